package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/troupekit/troupe/internal/llm"
)

const (
	reviewBatchSize    = 12
	reviewMinBatch     = 3
	keepExtension      = 14 * 24 * time.Hour
	fadeExtension      = 7 * 24 * time.Hour
	forgetGrace        = time.Hour
	maxKeepImportance  = 8
	minFadeImportance  = 3
	compressedMaxChars = 100
	candidatePreview   = 200
)

// ReviewResult summarizes one review cycle for one character.
type ReviewResult struct {
	Reviewed  bool   `json:"reviewed"`
	Reason    string `json:"reason,omitempty"`
	Total     int    `json:"total"`
	Kept      int    `json:"kept"`
	Faded     int    `json:"faded"`
	Forgotten int    `json:"forgotten"`
}

// ReviewMemories judges a batch of a character's oldest working memories.
// One evaluation call per batch regardless of size; a malformed response
// leaves the whole batch untouched for the next cycle. Never returns an
// error — every outcome degrades to a ReviewResult with a reason.
func (e *Engine) ReviewMemories(ctx context.Context, ownerID string) ReviewResult {
	if e.LLM == nil {
		return ReviewResult{Reason: ReasonNoEvaluator}
	}

	candidates, err := e.DB.ReviewCandidates(ownerID, reviewBatchSize)
	if err != nil {
		log.Printf("review: fetch candidates for %s: %v", ownerID, err)
		return ReviewResult{Reason: ReasonEvaluationFailed}
	}
	if len(candidates) < reviewMinBatch {
		return ReviewResult{Reason: ReasonInsufficientMemories, Total: len(candidates)}
	}

	var b strings.Builder
	now := time.Now().UnixMilli()
	for i, m := range candidates {
		content := m.Content
		if len(content) > candidatePreview {
			content = content[:candidatePreview] + "..."
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i, ageBucket(now-m.CreatedAt), content)
	}

	resp, err := e.LLM.Complete(ctx, llm.ReviewPrompt(ownerID, b.String()))
	if err != nil {
		log.Printf("review: evaluation for %s: %v", ownerID, err)
		return ReviewResult{Reason: ReasonEvaluationFailed, Total: len(candidates)}
	}

	verdicts, err := parseReviewVerdicts(resp.Content)
	if err != nil {
		log.Printf("review: parse failure for %s: %v", ownerID, err)
		return ReviewResult{Reason: ReasonParseFailure, Total: len(candidates)}
	}

	result := ReviewResult{Reviewed: true, Total: len(candidates)}
	for _, v := range verdicts {
		if v.Index < 0 || v.Index >= len(candidates) {
			log.Printf("review: verdict index %d out of range for %s", v.Index, ownerID)
			continue
		}
		m := candidates[v.Index]

		switch strings.ToUpper(v.Verdict) {
		case "KEEP":
			importance := m.Importance + 1
			if importance > maxKeepImportance {
				importance = maxKeepImportance
			}
			expires := now + keepExtension.Milliseconds()
			if err := e.DB.UpdateMemoryReview(m.ID, m.Content, m.Type, importance, expires); err != nil {
				log.Printf("review: keep %d: %v", m.ID, err)
				continue
			}
			result.Kept++

		case "FADE":
			compressed := strings.TrimSpace(v.Compressed)
			if compressed == "" {
				compressed = m.Content
			}
			if len(compressed) > compressedMaxChars {
				compressed = compressed[:compressedMaxChars]
			}
			importance := m.Importance - 1
			if importance < minFadeImportance {
				importance = minFadeImportance
			}
			expires := now + fadeExtension.Milliseconds()
			if err := e.DB.UpdateMemoryReview(m.ID, compressed, "faded", importance, expires); err != nil {
				log.Printf("review: fade %d: %v", m.ID, err)
				continue
			}
			result.Faded++

		case "FORGET":
			// Soft delete: collapse the expiry, read paths do the rest.
			expires := now + forgetGrace.Milliseconds()
			if err := e.DB.UpdateMemoryReview(m.ID, m.Content, m.Type, m.Importance, expires); err != nil {
				log.Printf("review: forget %d: %v", m.ID, err)
				continue
			}
			result.Forgotten++

		default:
			log.Printf("review: unknown verdict %q for %s", v.Verdict, ownerID)
		}
	}

	log.Printf("review: %s — %d/%d judged (keep %d, fade %d, forget %d)",
		ownerID, result.Kept+result.Faded+result.Forgotten, result.Total,
		result.Kept, result.Faded, result.Forgotten)
	return result
}

// ageBucket renders elapsed milliseconds as a coarse label for the prompt.
func ageBucket(elapsed int64) string {
	switch {
	case elapsed < 24*time.Hour.Milliseconds():
		return "today"
	case elapsed < 7*24*time.Hour.Milliseconds():
		return "this week"
	default:
		return "older"
	}
}
