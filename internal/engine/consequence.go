package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/troupekit/troupe/internal/store"
)

const (
	eventBatchSize   = 100
	eventLookback    = 24 * time.Hour
	consequenceDedup = 12 * time.Hour
	consequenceTTL   = 7 * 24 * time.Hour
)

// Consequence tiers, derived from sustained affinity.
const (
	TierConfrontation = "confrontation"
	TierAvoidance     = "avoidance"
	TierToneShift     = "tone_shift"
	TierBonding       = "bonding"
)

// tierFor maps an affinity value to its consequence tier, or "" when the
// relationship sits in the unremarkable middle.
func tierFor(affinity float64) string {
	switch {
	case affinity < 10:
		return TierConfrontation
	case affinity < 30:
		return TierAvoidance
	case affinity < 50:
		return TierToneShift
	case affinity >= 80:
		return TierBonding
	default:
		return ""
	}
}

// ConsequenceResult summarizes one processor run.
type ConsequenceResult struct {
	Reason          string `json:"reason,omitempty"`
	EventsProcessed int    `json:"events_processed"`
	MemoriesCreated int    `json:"memories_created"`
	WantsCreated    int    `json:"wants_created"`
	PairsEvaluated  int    `json:"pairs_evaluated"`
}

// ProcessRelationshipEvents drains the unprocessed event log, buckets by
// ordered pair, and converts sustained affinity extremes into memories,
// wants, and (for confrontation) a derived escalation fact. Every event in
// the batch ends the run processed, consequence or not — the log can never
// wedge on an orphaned pair.
func (e *Engine) ProcessRelationshipEvents(ctx context.Context) ConsequenceResult {
	since := time.Now().Add(-eventLookback).UnixMilli()
	events, err := e.DB.UnprocessedEvents(since, eventBatchSize)
	if err != nil {
		log.Printf("consequences: fetch events: %v", err)
		return ConsequenceResult{Reason: ReasonEvaluationFailed}
	}
	if len(events) == 0 {
		return ConsequenceResult{Reason: ReasonNoEvents}
	}

	type pairKey struct{ source, target string }
	groups := make(map[pairKey][]store.RelationshipEvent)
	var order []pairKey
	for _, ev := range events {
		key := pairKey{ev.SourceID, ev.TargetID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ev)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].source != order[j].source {
			return order[i].source < order[j].source
		}
		return order[i].target < order[j].target
	})

	result := ConsequenceResult{PairsEvaluated: len(order)}
	dedupSince := time.Now().Add(-consequenceDedup).UnixMilli()

	for _, key := range order {
		group := groups[key]
		ids := make([]int64, len(group))
		for i, ev := range group {
			ids[i] = ev.ID
		}

		consume := func() {
			if err := e.DB.MarkEventsProcessed(ids); err != nil {
				log.Printf("consequences: mark %s->%s processed: %v", key.source, key.target, err)
				return
			}
			result.EventsProcessed += len(ids)
		}

		rel, err := e.DB.GetRelationship(key.source, key.target)
		if err != nil {
			log.Printf("consequences: ledger read %s->%s: %v", key.source, key.target, err)
			consume()
			continue
		}
		if rel == nil {
			// Orphaned pair: nothing to react to, but the events are spent.
			consume()
			continue
		}

		tier := tierFor(rel.Affinity)
		if tier == "" {
			consume()
			continue
		}

		recent, err := e.DB.HasRecentConsequence(key.source, key.target, dedupSince)
		if err != nil {
			log.Printf("consequences: dedup check %s->%s: %v", key.source, key.target, err)
			consume()
			continue
		}
		if recent {
			consume()
			continue
		}

		if e.applyConsequence(rel, tier, &result) {
			log.Printf("consequences: %s tier for %s->%s (affinity %.0f)",
				tier, key.source, key.target, rel.Affinity)
		}

		consume()
	}

	return result
}

// applyConsequence creates the tier-appropriate artifacts for a pair.
// Returns true if a memory was minted.
func (e *Engine) applyConsequence(rel *store.Relationship, tier string, result *ConsequenceResult) bool {
	content, importance := consequenceMemory(tier, rel)
	exp := time.Now().Add(consequenceTTL).UnixMilli()
	m := &store.Memory{
		OwnerID:       rel.SourceID,
		Content:       content,
		Type:          "consequence_" + tier,
		Importance:    importance,
		Tier:          store.TierWorking,
		EmotionalTags: consequenceTags(tier),
		RelatedIDs:    []string{rel.TargetID},
		ExpiresAt:     &exp,
	}
	if err := e.DB.CreateMemory(m); err != nil {
		log.Printf("consequences: memory for %s: %v", rel.SourceID, err)
		return false
	}
	result.MemoriesCreated++

	if tier == TierAvoidance || tier == TierConfrontation {
		similar, err := e.DB.HasSimilarWant(rel.SourceID, rel.TargetID)
		if err != nil {
			log.Printf("consequences: want check for %s: %v", rel.SourceID, err)
		} else if !similar {
			text, priority := consequenceWant(tier, rel.TargetID)
			w := &store.Want{
				OwnerID:  rel.SourceID,
				Text:     text,
				Type:     "social",
				Priority: priority,
			}
			if err := e.DB.CreateWant(w); err != nil {
				log.Printf("consequences: want for %s: %v", rel.SourceID, err)
			} else {
				result.WantsCreated++
			}
		}
	}

	if tier == TierConfrontation {
		// Derived fact, born processed: recorded for narrative consumers
		// without ever re-entering the unprocessed queue.
		ev := &store.RelationshipEvent{
			SourceID:  rel.SourceID,
			TargetID:  rel.TargetID,
			EventType: "escalation",
			Intensity: rel.Affinity,
			Context: fmt.Sprintf("Tension between %s and %s has reached a breaking point",
				rel.SourceID, rel.TargetID),
			Origin:    store.OriginDerived,
			Processed: true,
		}
		if err := e.DB.RecordEvent(ev); err != nil {
			log.Printf("consequences: escalation event for %s: %v", rel.SourceID, err)
		}
	}

	return true
}

func consequenceMemory(tier string, rel *store.Relationship) (string, int) {
	switch tier {
	case TierConfrontation:
		return fmt.Sprintf("I can't keep pretending things are fine with %s. Something has to give (affinity %.0f).",
			rel.TargetID, rel.Affinity), 8
	case TierAvoidance:
		return fmt.Sprintf("Being around %s drains me lately. I've started finding reasons to be elsewhere (affinity %.0f).",
			rel.TargetID, rel.Affinity), 6
	case TierToneShift:
		return fmt.Sprintf("Conversations with %s have gotten shorter and cooler (affinity %.0f).",
			rel.TargetID, rel.Affinity), 5
	case TierBonding:
		return fmt.Sprintf("%s has become someone I genuinely look forward to seeing (affinity %.0f).",
			rel.TargetID, rel.Affinity), 7
	default:
		return "", 5
	}
}

func consequenceWant(tier, targetID string) (string, int) {
	if tier == TierConfrontation {
		return fmt.Sprintf("Confront %s about the tension between us", targetID), 8
	}
	return fmt.Sprintf("Keep some distance from %s for a while", targetID), 5
}

func consequenceTags(tier string) []string {
	switch tier {
	case TierConfrontation:
		return []string{"anger", "tension"}
	case TierAvoidance:
		return []string{"discomfort"}
	case TierToneShift:
		return []string{"distance"}
	case TierBonding:
		return []string{"warmth"}
	default:
		return nil
	}
}
