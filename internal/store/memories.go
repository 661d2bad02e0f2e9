package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Memory tiers.
const (
	TierWorking = "working"
	TierCore    = "core"
)

// defaultMemoryTTL is applied when a non-pinned memory arrives without an expiry.
const defaultMemoryTTL = 7 * 24 * time.Hour

// Memory is a single remembered moment for one character.
// Non-pinned memories always carry an expiry; read paths filter on it,
// so expiry is the only deletion mechanism outside the coarse daily sweep.
type Memory struct {
	ID            int64
	OwnerID       string
	Content       string
	Type          string
	Importance    int
	Tier          string
	Pinned        bool
	EmotionalTags []string
	RelatedIDs    []string
	CreatedAt     int64
	ExpiresAt     *int64
}

// Expired reports whether the memory's expiry has passed at the given time.
// Pinned memories never expire.
func (m *Memory) Expired(now int64) bool {
	if m.Pinned || m.ExpiresAt == nil {
		return false
	}
	return *m.ExpiresAt <= now
}

// CreateMemory inserts a memory. Pinned memories get a NULL expiry; non-pinned
// memories without one default to 7 days out.
func (db *DB) CreateMemory(m *Memory) error {
	now := time.Now().UnixMilli()
	if m.Tier == "" {
		m.Tier = TierWorking
	}
	if m.Type == "" {
		m.Type = "general"
	}
	if m.Importance == 0 {
		m.Importance = 5
	}

	if m.Pinned {
		m.ExpiresAt = nil
	} else if m.ExpiresAt == nil {
		exp := now + defaultMemoryTTL.Milliseconds()
		m.ExpiresAt = &exp
	}

	tags, err := marshalList(m.EmotionalTags)
	if err != nil {
		return fmt.Errorf("marshal emotional tags: %w", err)
	}
	related, err := marshalList(m.RelatedIDs)
	if err != nil {
		return fmt.Errorf("marshal related ids: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO memories (owner_id, content, mem_type, importance, tier, pinned,
			emotional_tags, related_ids, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.OwnerID, m.Content, m.Type, m.Importance, m.Tier, boolInt(m.Pinned),
		tags, related, now, m.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create memory: %w", err)
	}

	id, _ := result.LastInsertId()
	m.ID = id
	m.CreatedAt = now
	return nil
}

// GetMemory returns a memory by ID, or nil if not found.
func (db *DB) GetMemory(id int64) (*Memory, error) {
	rows, err := db.Query(memorySelect+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	defer rows.Close()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if len(memories) == 0 {
		return nil, nil
	}
	return &memories[0], nil
}

// ActiveMemories returns all non-expired memories for an owner, strongest first.
func (db *DB) ActiveMemories(ownerID string) ([]Memory, error) {
	now := time.Now().UnixMilli()
	rows, err := db.Query(memorySelect+`
		WHERE owner_id = ? AND (pinned = 1 OR expires_at > ?)
		ORDER BY importance DESC, created_at DESC
	`, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("active memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ReviewCandidates returns the oldest non-pinned, non-expired, working-tier
// memories for an owner, up to limit. These are what the review job judges.
func (db *DB) ReviewCandidates(ownerID string, limit int) ([]Memory, error) {
	now := time.Now().UnixMilli()
	rows, err := db.Query(memorySelect+`
		WHERE owner_id = ? AND pinned = 0 AND tier = ? AND expires_at > ?
		ORDER BY created_at ASC
		LIMIT ?
	`, ownerID, TierWorking, now, limit)
	if err != nil {
		return nil, fmt.Errorf("review candidates: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// UpdateMemoryReview applies a review mutation: content, type, importance, expiry.
func (db *DB) UpdateMemoryReview(id int64, content, memType string, importance int, expiresAt int64) error {
	_, err := db.Exec(`
		UPDATE memories SET content = ?, mem_type = ?, importance = ?, expires_at = ?
		WHERE id = ? AND pinned = 0
	`, content, memType, importance, expiresAt, id)
	if err != nil {
		return fmt.Errorf("update memory review: %w", err)
	}
	return nil
}

// HasRecentConsequence reports whether a consequence memory of any kind exists
// for (owner, target) created at or after the given time. Target matching uses
// the serialized related_ids column — cheap, no join needed.
func (db *DB) HasRecentConsequence(ownerID, targetID string, since int64) (bool, error) {
	pattern := `%"` + targetID + `"%`
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM memories
		WHERE owner_id = ? AND mem_type LIKE 'consequence_%'
		AND related_ids LIKE ? AND created_at >= ?
	`, ownerID, pattern, since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("recent consequence check: %w", err)
	}
	return count > 0, nil
}

// DeleteStaleMemories removes non-pinned memories below the importance
// threshold that are older than the cutoff. Used by the daily reset's coarse
// cleanup, independent of the tiered review path.
func (db *DB) DeleteStaleMemories(belowImportance int, olderThan int64) (int, error) {
	result, err := db.Exec(`
		DELETE FROM memories
		WHERE pinned = 0 AND importance < ? AND created_at < ?
	`, belowImportance, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete stale memories: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

const memorySelect = `
	SELECT id, owner_id, content, mem_type, importance, tier, pinned,
		emotional_tags, related_ids, created_at, expires_at
	FROM memories`

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		var m Memory
		var pinned int
		var tags, related sql.NullString
		var expiresAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Content, &m.Type, &m.Importance,
			&m.Tier, &pinned, &tags, &related, &m.CreatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Pinned = pinned != 0
		if expiresAt.Valid {
			m.ExpiresAt = &expiresAt.Int64
		}
		var err error
		if m.EmotionalTags, err = unmarshalList(tags.String); err != nil {
			return nil, fmt.Errorf("decode emotional tags: %w", err)
		}
		if m.RelatedIDs, err = unmarshalList(related.String); err != nil {
			return nil, fmt.Errorf("decode related ids: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func marshalList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
