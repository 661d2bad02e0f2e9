package store

import (
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateMemoryDefaults(t *testing.T) {
	db := testDB(t)

	m := &Memory{OwnerID: "kevin", Content: "tried the new noodle place"}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	if m.ID == 0 {
		t.Error("expected ID to be set")
	}
	if m.Tier != TierWorking {
		t.Errorf("Tier = %q, want %q", m.Tier, TierWorking)
	}
	if m.Type != "general" {
		t.Errorf("Type = %q, want general", m.Type)
	}
	if m.Importance != 5 {
		t.Errorf("Importance = %d, want 5", m.Importance)
	}
	if m.ExpiresAt == nil {
		t.Fatal("non-pinned memory should get a default expiry")
	}
	wantExp := m.CreatedAt + defaultMemoryTTL.Milliseconds()
	if *m.ExpiresAt != wantExp {
		t.Errorf("ExpiresAt = %d, want %d", *m.ExpiresAt, wantExp)
	}
}

func TestCreateMemoryPinnedNoExpiry(t *testing.T) {
	db := testDB(t)

	exp := time.Now().Add(time.Hour).UnixMilli()
	m := &Memory{OwnerID: "kevin", Content: "I grew up by the sea", Pinned: true, Tier: TierCore, ExpiresAt: &exp}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	if m.ExpiresAt != nil {
		t.Error("pinned memory should have its expiry cleared")
	}

	got, err := db.GetMemory(m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got == nil {
		t.Fatal("memory not found")
	}
	if !got.Pinned || got.ExpiresAt != nil {
		t.Errorf("got pinned=%v expiresAt=%v, want pinned with nil expiry", got.Pinned, got.ExpiresAt)
	}
}

func TestActiveMemoriesFiltersExpired(t *testing.T) {
	db := testDB(t)

	live := &Memory{OwnerID: "kevin", Content: "fresh"}
	if err := db.CreateMemory(live); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	pinned := &Memory{OwnerID: "kevin", Content: "permanent", Pinned: true}
	if err := db.CreateMemory(pinned); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	expired := &Memory{OwnerID: "kevin", Content: "old news"}
	if err := db.CreateMemory(expired); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	past := time.Now().Add(-time.Hour).UnixMilli()
	if _, err := db.Exec("UPDATE memories SET expires_at = ? WHERE id = ?", past, expired.ID); err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	active, err := db.ActiveMemories("kevin")
	if err != nil {
		t.Fatalf("ActiveMemories: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("got %d active memories, want 2", len(active))
	}
	for _, m := range active {
		if m.Content == "old news" {
			t.Error("expired memory leaked into active set")
		}
	}

	// The expired row still physically exists; expiry is a soft delete.
	got, err := db.GetMemory(expired.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got == nil {
		t.Error("expired memory should still be fetchable by ID")
	}
}

func TestReviewCandidates(t *testing.T) {
	db := testDB(t)

	// Pinned and core-tier memories are never review candidates.
	pinned := &Memory{OwnerID: "kevin", Content: "pinned", Pinned: true}
	if err := db.CreateMemory(pinned); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	core := &Memory{OwnerID: "kevin", Content: "core", Tier: TierCore}
	if err := db.CreateMemory(core); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	var ids []int64
	for _, content := range []string{"first", "second", "third"} {
		m := &Memory{OwnerID: "kevin", Content: content}
		if err := db.CreateMemory(m); err != nil {
			t.Fatalf("CreateMemory: %v", err)
		}
		ids = append(ids, m.ID)
	}
	// Backdate created_at so ordering is deterministic: first is oldest.
	base := time.Now().Add(-3 * time.Hour).UnixMilli()
	for i, id := range ids {
		at := base + int64(i)*int64(time.Hour/time.Millisecond)
		if _, err := db.Exec("UPDATE memories SET created_at = ? WHERE id = ?", at, id); err != nil {
			t.Fatalf("backdate created_at: %v", err)
		}
	}

	candidates, err := db.ReviewCandidates("kevin", 2)
	if err != nil {
		t.Fatalf("ReviewCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Content != "first" || candidates[1].Content != "second" {
		t.Errorf("got %q, %q; want oldest first", candidates[0].Content, candidates[1].Content)
	}
}

func TestUpdateMemoryReviewSkipsPinned(t *testing.T) {
	db := testDB(t)

	m := &Memory{OwnerID: "kevin", Content: "immutable", Pinned: true}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	exp := time.Now().Add(time.Hour).UnixMilli()
	if err := db.UpdateMemoryReview(m.ID, "mutated", "faded", 1, exp); err != nil {
		t.Fatalf("UpdateMemoryReview: %v", err)
	}

	got, err := db.GetMemory(m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got.Content != "immutable" {
		t.Errorf("pinned memory was mutated by review update: %q", got.Content)
	}
}

func TestHasRecentConsequence(t *testing.T) {
	db := testDB(t)

	m := &Memory{
		OwnerID:    "kevin",
		Content:    "kept my distance from Neiv",
		Type:       "consequence_avoidance",
		RelatedIDs: []string{"neiv"},
	}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	since := time.Now().Add(-time.Hour).UnixMilli()
	has, err := db.HasRecentConsequence("kevin", "neiv", since)
	if err != nil {
		t.Fatalf("HasRecentConsequence: %v", err)
	}
	if !has {
		t.Error("expected a recent consequence for (kevin, neiv)")
	}

	has, err = db.HasRecentConsequence("kevin", "mira", since)
	if err != nil {
		t.Fatalf("HasRecentConsequence: %v", err)
	}
	if has {
		t.Error("unexpected consequence hit for (kevin, mira)")
	}

	// Outside the window.
	future := time.Now().Add(time.Hour).UnixMilli()
	has, err = db.HasRecentConsequence("kevin", "neiv", future)
	if err != nil {
		t.Fatalf("HasRecentConsequence: %v", err)
	}
	if has {
		t.Error("consequence outside the window should not count")
	}
}

func TestDeleteStaleMemories(t *testing.T) {
	db := testDB(t)

	stale := &Memory{OwnerID: "kevin", Content: "small talk", Importance: 2}
	if err := db.CreateMemory(stale); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	important := &Memory{OwnerID: "kevin", Content: "big fight", Importance: 8}
	if err := db.CreateMemory(important); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	pinnedLow := &Memory{OwnerID: "kevin", Content: "pinned trivia", Importance: 2, Pinned: true}
	if err := db.CreateMemory(pinnedLow); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	old := time.Now().Add(-4 * 24 * time.Hour).UnixMilli()
	for _, id := range []int64{stale.ID, important.ID, pinnedLow.ID} {
		if _, err := db.Exec("UPDATE memories SET created_at = ? WHERE id = ?", old, id); err != nil {
			t.Fatalf("backdate: %v", err)
		}
	}

	cutoff := time.Now().Add(-3 * 24 * time.Hour).UnixMilli()
	n, err := db.DeleteStaleMemories(5, cutoff)
	if err != nil {
		t.Fatalf("DeleteStaleMemories: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d memories, want 1", n)
	}

	if got, _ := db.GetMemory(stale.ID); got != nil {
		t.Error("stale memory survived cleanup")
	}
	if got, _ := db.GetMemory(important.ID); got == nil {
		t.Error("important memory was deleted")
	}
	if got, _ := db.GetMemory(pinnedLow.ID); got == nil {
		t.Error("pinned memory was deleted")
	}
}

func TestMemoryListsRoundTrip(t *testing.T) {
	db := testDB(t)

	m := &Memory{
		OwnerID:       "kevin",
		Content:       "game night got heated",
		EmotionalTags: []string{"tense", "funny"},
		RelatedIDs:    []string{"neiv", "mira"},
	}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	got, err := db.GetMemory(m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if len(got.EmotionalTags) != 2 || got.EmotionalTags[0] != "tense" {
		t.Errorf("EmotionalTags = %v", got.EmotionalTags)
	}
	if len(got.RelatedIDs) != 2 || got.RelatedIDs[1] != "mira" {
		t.Errorf("RelatedIDs = %v", got.RelatedIDs)
	}
}
