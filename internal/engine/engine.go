package engine

import (
	"time"

	"github.com/troupekit/troupe/internal/llm"
	"github.com/troupekit/troupe/internal/store"
)

// Job skip reasons. Every job entry point returns one of these instead of an
// error when it declines to act — the scheduler treats any returned payload
// as a completed cycle.
const (
	ReasonNoEvaluator          = "evaluator_not_configured"
	ReasonInsufficientMemories = "insufficient_memories"
	ReasonEvaluationFailed     = "evaluation_failed"
	ReasonParseFailure         = "parse_failure"
	ReasonWindowTooSmall       = "window_too_small"
	ReasonTooFewSpeakers       = "too_few_speakers"
	ReasonCooldown             = "cooldown"
	ReasonDailyCap             = "daily_cap"
	ReasonNoEvents             = "no_events"
)

// Engine orchestrates memory review, conversation sweeps, relationship
// consequences, and vitals. Every job is a bounded, idempotent batch meant
// to be fired by an external heartbeat; nothing here runs continuously.
type Engine struct {
	DB  *store.DB
	LLM llm.Client

	// Sweep guards, overridable for testing and config.
	SweepCooldown time.Duration
	SweepDailyCap int
}

// New creates a new Engine.
func New(db *store.DB, client llm.Client) *Engine {
	return &Engine{
		DB:            db,
		LLM:           client,
		SweepCooldown: 20 * time.Minute,
		SweepDailyCap: 8,
	}
}
