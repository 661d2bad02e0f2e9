package engine

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/troupekit/troupe/internal/llm"
	"github.com/troupekit/troupe/internal/store"
	"github.com/troupekit/troupe/internal/transcript"
)

const (
	sweepMinMessages   = 8
	sweepMinSpeakers   = 3
	sweepMinImportance = 5
	sweepMaxImportance = 8

	sweepLastRunKey  = "sweep_last_run"
	sweepCountPrefix = "sweep_count:"

	groupMemoryPrefix = "[Group memory] "
	seedAffinity      = 0.0
	seedLabel         = "acquaintance"
)

// memoryTypes the sweep verdict may classify a moment as. Anything else
// falls back to "banter".
var sweepMemoryTypes = map[string]bool{
	"banter": true, "bonding": true, "conflict": true,
	"revelation": true, "callback": true, "vulnerability": true,
}

// SweepResult summarizes one sweep invocation.
type SweepResult struct {
	Evaluated            bool   `json:"evaluated"`
	Reason               string `json:"reason,omitempty"`
	Memorable            bool   `json:"memorable"`
	Importance           int    `json:"importance,omitempty"`
	Type                 string `json:"type,omitempty"`
	MemoriesCreated      int    `json:"memories_created"`
	RelationshipsCreated int    `json:"relationships_created"`
}

// SweepConversation judges a sliding window of multi-party dialogue for
// narrative significance. Four hard guards short-circuit in order; only a
// window that clears all four costs an evaluation call. A memorable verdict
// mints one group memory per judged participant and lazily creates both
// directed relationship rows for every participant pair — the only path by
// which new pairs enter the ledger.
func (e *Engine) SweepConversation(ctx context.Context, msgs []transcript.Message) SweepResult {
	if e.LLM == nil {
		return SweepResult{Reason: ReasonNoEvaluator}
	}

	if len(msgs) < sweepMinMessages {
		return SweepResult{Reason: ReasonWindowTooSmall}
	}
	speakers := transcript.DistinctSpeakers(msgs)
	if len(speakers) < sweepMinSpeakers {
		return SweepResult{Reason: ReasonTooFewSpeakers}
	}

	now := time.Now()
	lastRun, err := e.DB.GetSettingInt64(sweepLastRunKey)
	if err != nil {
		log.Printf("sweep: read last run: %v", err)
		return SweepResult{Reason: ReasonEvaluationFailed}
	}
	if lastRun > 0 && now.UnixMilli()-lastRun < e.SweepCooldown.Milliseconds() {
		return SweepResult{Reason: ReasonCooldown}
	}

	countKey := sweepCountPrefix + now.Format("2006-01-02")
	count, err := e.DB.GetSettingInt64(countKey)
	if err != nil {
		log.Printf("sweep: read daily count: %v", err)
		return SweepResult{Reason: ReasonEvaluationFailed}
	}
	if count >= int64(e.SweepDailyCap) {
		return SweepResult{Reason: ReasonDailyCap}
	}

	runID := uuid.NewString()[:8]
	resp, err := e.LLM.Complete(ctx, llm.SweepPrompt(transcript.Render(msgs)))
	if err != nil {
		log.Printf("sweep %s: evaluation: %v", runID, err)
		return SweepResult{Reason: ReasonEvaluationFailed}
	}

	verdict, err := parseSweepVerdict(resp.Content)
	if err != nil {
		log.Printf("sweep %s: parse failure: %v", runID, err)
		return SweepResult{Reason: ReasonParseFailure}
	}

	result := SweepResult{Evaluated: true, Memorable: verdict.Memorable}

	if verdict.Memorable && len(verdict.Participants) > 0 {
		importance := verdict.Importance
		if importance < sweepMinImportance {
			importance = sweepMinImportance
		}
		if importance > sweepMaxImportance {
			importance = sweepMaxImportance
		}
		result.Importance = importance

		memType := strings.ToLower(verdict.Type)
		if !sweepMemoryTypes[memType] {
			memType = "banter"
		}
		result.Type = memType

		ttl := 7 * 24 * time.Hour
		if importance == sweepMaxImportance {
			ttl = 14 * 24 * time.Hour
		}
		expires := now.UnixMilli() + ttl.Milliseconds()

		var tags []string
		if tone := strings.TrimSpace(verdict.EmotionalTone); tone != "" {
			tags = []string{tone}
		}

		// One memory per judged participant — the subset the verdict named,
		// not every speaker in the window.
		for _, participant := range verdict.Participants {
			others := withoutSelf(verdict.Participants, participant)
			exp := expires
			m := &store.Memory{
				OwnerID:       participant,
				Content:       groupMemoryPrefix + verdict.Summary,
				Type:          memType,
				Importance:    importance,
				Tier:          store.TierWorking,
				EmotionalTags: tags,
				RelatedIDs:    others,
				ExpiresAt:     &exp,
			}
			if err := e.DB.CreateMemory(m); err != nil {
				log.Printf("sweep %s: memory for %s: %v", runID, participant, err)
				continue
			}
			result.MemoriesCreated++
		}

		// Lazy ledger creation: both directions for every unordered pair.
		pairs := participantPairs(verdict.Participants)
		for _, p := range pairs {
			for _, dir := range [][2]string{{p[0], p[1]}, {p[1], p[0]}} {
				created, err := e.DB.EnsureRelationship(dir[0], dir[1], seedAffinity, seedLabel)
				if err != nil {
					log.Printf("sweep %s: relationship %s->%s: %v", runID, dir[0], dir[1], err)
					continue
				}
				if created {
					result.RelationshipsCreated++
				}
			}
		}

		log.Printf("sweep %s: memorable %s (importance %d) — %d memories, %d new relationships",
			runID, memType, importance, result.MemoriesCreated, result.RelationshipsCreated)
	}

	// Cooldown and counter advance after any completed evaluation, memorable
	// or not. Read-then-write: the cap is best-effort.
	if err := e.DB.SetSettingInt64(sweepLastRunKey, now.UnixMilli()); err != nil {
		log.Printf("sweep %s: store last run: %v", runID, err)
	}
	if err := e.DB.SetSettingInt64(countKey, count+1); err != nil {
		log.Printf("sweep %s: store daily count: %v", runID, err)
	}

	return result
}

// participantPairs returns every unordered pair among participants,
// duplicates and blanks removed.
func participantPairs(participants []string) [][2]string {
	seen := make(map[string]bool, len(participants))
	var names []string
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		names = append(names, p)
	}
	sort.Strings(names)

	var pairs [][2]string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pairs = append(pairs, [2]string{names[i], names[j]})
		}
	}
	return pairs
}

func withoutSelf(participants []string, self string) []string {
	var others []string
	for _, p := range participants {
		if p != self {
			others = append(others, p)
		}
	}
	return others
}
