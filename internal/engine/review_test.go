package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/troupekit/troupe/internal/llm"
	"github.com/troupekit/troupe/internal/store"
)

func testEngine(t *testing.T, mock *llm.MockClient) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var client llm.Client
	if mock != nil {
		client = mock
	}
	return New(db, client)
}

// seedMemories inserts count working memories for an owner with distinct,
// deterministic ages (oldest first).
func seedMemories(t *testing.T, db *store.DB, ownerID string, contents []string) []int64 {
	t.Helper()
	var ids []int64
	base := time.Now().Add(-time.Duration(len(contents)) * time.Hour).UnixMilli()
	for i, content := range contents {
		m := &store.Memory{OwnerID: ownerID, Content: content}
		if err := db.CreateMemory(m); err != nil {
			t.Fatalf("CreateMemory: %v", err)
		}
		at := base + int64(i)*int64(time.Hour/time.Millisecond)
		if _, err := db.Exec("UPDATE memories SET created_at = ? WHERE id = ?", at, m.ID); err != nil {
			t.Fatalf("backdate: %v", err)
		}
		ids = append(ids, m.ID)
	}
	return ids
}

func TestReviewNoEvaluator(t *testing.T) {
	e := testEngine(t, nil)

	result := e.ReviewMemories(context.Background(), "kevin")
	if result.Reviewed {
		t.Error("should not review without an evaluator")
	}
	if result.Reason != ReasonNoEvaluator {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonNoEvaluator)
	}
}

func TestReviewInsufficientMemories(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "[]"}}
	e := testEngine(t, mock)
	seedMemories(t, e.DB, "kevin", []string{"one", "two"})

	result := e.ReviewMemories(context.Background(), "kevin")
	if result.Reason != ReasonInsufficientMemories {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonInsufficientMemories)
	}
	if len(mock.Calls) != 0 {
		t.Error("no evaluation call should be made below the minimum batch")
	}
}

func TestReviewVerdicts(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: `[
		{"index": 0, "verdict": "KEEP"},
		{"index": 1, "verdict": "FADE", "compressed": "argued about the dishes"},
		{"index": 2, "verdict": "FORGET"}
	]`}}
	e := testEngine(t, mock)
	ids := seedMemories(t, e.DB, "kevin", []string{
		"Neiv apologized after the blowup, it meant a lot",
		"long pointless argument about whose turn the dishes were, went in circles for an hour",
		"someone mentioned the weather",
	})

	result := e.ReviewMemories(context.Background(), "kevin")
	if !result.Reviewed {
		t.Fatalf("not reviewed: %+v", result)
	}
	if result.Kept != 1 || result.Faded != 1 || result.Forgotten != 1 {
		t.Errorf("kept/faded/forgotten = %d/%d/%d, want 1/1/1", result.Kept, result.Faded, result.Forgotten)
	}

	now := time.Now().UnixMilli()

	kept, _ := e.DB.GetMemory(ids[0])
	if kept.Importance != 6 {
		t.Errorf("kept importance = %d, want 6", kept.Importance)
	}
	if kept.ExpiresAt == nil || *kept.ExpiresAt < now+13*24*time.Hour.Milliseconds() {
		t.Error("kept memory should have its expiry pushed ~14 days out")
	}

	faded, _ := e.DB.GetMemory(ids[1])
	if faded.Content != "argued about the dishes" {
		t.Errorf("faded content = %q", faded.Content)
	}
	if faded.Type != "faded" {
		t.Errorf("faded type = %q, want faded", faded.Type)
	}
	if faded.Importance != 4 {
		t.Errorf("faded importance = %d, want 4", faded.Importance)
	}

	forgotten, _ := e.DB.GetMemory(ids[2])
	if forgotten.ExpiresAt == nil || *forgotten.ExpiresAt > now+2*time.Hour.Milliseconds() {
		t.Error("forgotten memory should expire within the grace window")
	}
	if forgotten.ExpiresAt != nil && *forgotten.ExpiresAt <= now {
		t.Error("forgotten memory should remain readable until the grace passes")
	}

	// Prompt should enumerate the candidates by index.
	if len(mock.Calls) != 1 {
		t.Fatalf("got %d evaluation calls, want 1", len(mock.Calls))
	}
	if !strings.Contains(mock.Calls[0], "[0]") || !strings.Contains(mock.Calls[0], "[2]") {
		t.Error("prompt should enumerate candidate indexes")
	}
}

func TestReviewImportanceBounds(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: `[
		{"index": 0, "verdict": "KEEP"},
		{"index": 1, "verdict": "FADE"}
	]`}}
	e := testEngine(t, mock)
	ids := seedMemories(t, e.DB, "kevin", []string{"peak", "floor", "filler"})

	// Push index 0 to the KEEP cap and index 1 to the FADE floor.
	if _, err := e.DB.Exec("UPDATE memories SET importance = 8 WHERE id = ?", ids[0]); err != nil {
		t.Fatalf("set importance: %v", err)
	}
	if _, err := e.DB.Exec("UPDATE memories SET importance = 3 WHERE id = ?", ids[1]); err != nil {
		t.Fatalf("set importance: %v", err)
	}

	result := e.ReviewMemories(context.Background(), "kevin")
	if !result.Reviewed {
		t.Fatalf("not reviewed: %+v", result)
	}

	kept, _ := e.DB.GetMemory(ids[0])
	if kept.Importance != 8 {
		t.Errorf("KEEP importance = %d, want capped at 8", kept.Importance)
	}
	faded, _ := e.DB.GetMemory(ids[1])
	if faded.Importance != 3 {
		t.Errorf("FADE importance = %d, want floored at 3", faded.Importance)
	}
}

func TestReviewMalformedResponseIsNoOp(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "I think these memories are all lovely."}}
	e := testEngine(t, mock)
	ids := seedMemories(t, e.DB, "kevin", []string{"a", "b", "c"})

	before := make(map[int64]store.Memory)
	for _, id := range ids {
		m, _ := e.DB.GetMemory(id)
		before[id] = *m
	}

	result := e.ReviewMemories(context.Background(), "kevin")
	if result.Reviewed {
		t.Error("parse failure should not count as reviewed")
	}
	if result.Reason != ReasonParseFailure {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonParseFailure)
	}

	for _, id := range ids {
		after, _ := e.DB.GetMemory(id)
		b := before[id]
		if after.Content != b.Content || after.Importance != b.Importance || *after.ExpiresAt != *b.ExpiresAt {
			t.Errorf("memory %d mutated on parse failure", id)
		}
	}
}

func TestReviewEvaluationError(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("api unavailable")}
	e := testEngine(t, mock)
	seedMemories(t, e.DB, "kevin", []string{"a", "b", "c"})

	result := e.ReviewMemories(context.Background(), "kevin")
	if result.Reason != ReasonEvaluationFailed {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonEvaluationFailed)
	}
}

func TestReviewIgnoresOutOfRangeIndexes(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: `[
		{"index": 99, "verdict": "FORGET"},
		{"index": -1, "verdict": "FORGET"},
		{"index": 0, "verdict": "KEEP"}
	]`}}
	e := testEngine(t, mock)
	seedMemories(t, e.DB, "kevin", []string{"a", "b", "c"})

	result := e.ReviewMemories(context.Background(), "kevin")
	if !result.Reviewed {
		t.Fatalf("not reviewed: %+v", result)
	}
	if result.Kept != 1 || result.Forgotten != 0 {
		t.Errorf("kept/forgotten = %d/%d, want 1/0", result.Kept, result.Forgotten)
	}
}
