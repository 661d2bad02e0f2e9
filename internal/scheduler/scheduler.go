package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/troupekit/troupe/internal/config"
	"github.com/troupekit/troupe/internal/engine"
)

// Scheduler fires the engine's periodic jobs on cron cadences. The sweep is
// not scheduled here — its window arrives over the API and it guards itself.
type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
}

// New builds a scheduler from the configured cron expressions.
func New(eng *engine.Engine, cfg config.JobsConfig) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		engine: eng,
	}

	if _, err := s.cron.AddFunc(cfg.ConsequenceCron, s.runConsequences); err != nil {
		return nil, fmt.Errorf("consequence schedule %q: %w", cfg.ConsequenceCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReviewCron, s.runReviews); err != nil {
		return nil, fmt.Errorf("review schedule %q: %w", cfg.ReviewCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.ResetCron, s.runReset); err != nil {
		return nil, fmt.Errorf("reset schedule %q: %w", cfg.ResetCron, err)
	}

	return s, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule. Running jobs finish their bounded batch.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runConsequences() {
	result := s.engine.ProcessRelationshipEvents(context.Background())
	if result.Reason != engine.ReasonNoEvents {
		log.Printf("scheduler: consequences — %d events, %d memories, %d wants across %d pairs",
			result.EventsProcessed, result.MemoriesCreated, result.WantsCreated, result.PairsEvaluated)
	}
}

func (s *Scheduler) runReviews() {
	owners, err := s.engine.DB.Owners()
	if err != nil {
		log.Printf("scheduler: list owners for review: %v", err)
		return
	}
	for _, owner := range owners {
		result := s.engine.ReviewMemories(context.Background(), owner)
		if result.Reviewed {
			log.Printf("scheduler: reviewed %s — keep %d, fade %d, forget %d",
				owner, result.Kept, result.Faded, result.Forgotten)
		}
	}
}

func (s *Scheduler) runReset() {
	s.engine.DailyReset(context.Background())
}
