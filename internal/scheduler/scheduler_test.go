package scheduler

import (
	"testing"

	"github.com/troupekit/troupe/internal/config"
	"github.com/troupekit/troupe/internal/engine"
	"github.com/troupekit/troupe/internal/store"
)

func TestNew(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()
	eng := engine.New(db, nil)

	s, err := New(eng, config.Default().Jobs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	s.Stop()
}

func TestNewRejectsBadCron(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()
	eng := engine.New(db, nil)

	jobs := config.Default().Jobs
	jobs.ReviewCron = "not a cron"
	if _, err := New(eng, jobs); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
