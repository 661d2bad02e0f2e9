package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Relationship is one directed affinity row. A→B and B→A are independent rows
// and may diverge; symmetry is never enforced.
type Relationship struct {
	ID           int64
	SourceID     string
	TargetID     string
	Affinity     float64
	SeedAffinity float64
	Label        string
	CreatedAt    int64
}

// GetRelationship returns the directed row for (source, target), or nil if none.
func (db *DB) GetRelationship(sourceID, targetID string) (*Relationship, error) {
	var r Relationship
	err := db.QueryRow(`
		SELECT id, source_id, target_id, affinity, seed_affinity, label, created_at
		FROM relationships WHERE source_id = ? AND target_id = ?
	`, sourceID, targetID).Scan(&r.ID, &r.SourceID, &r.TargetID,
		&r.Affinity, &r.SeedAffinity, &r.Label, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return &r, nil
}

// EnsureRelationship lazily creates the directed row for (source, target) if
// absent. Returns true if a new row was created.
func (db *DB) EnsureRelationship(sourceID, targetID string, seed float64, label string) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT OR IGNORE INTO relationships (source_id, target_id, affinity, seed_affinity, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sourceID, targetID, seed, seed, label, now)
	if err != nil {
		return false, fmt.Errorf("ensure relationship: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// AdjustAffinity applies a signed delta to an existing row. Missing rows are
// left missing — pairs only enter the ledger through a memorable sweep.
func (db *DB) AdjustAffinity(sourceID, targetID string, delta float64) error {
	_, err := db.Exec(`
		UPDATE relationships SET affinity = affinity + ?
		WHERE source_id = ? AND target_id = ?
	`, delta, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("adjust affinity: %w", err)
	}
	return nil
}

// SetRelationshipLabel updates the free-form classification on a row.
func (db *DB) SetRelationshipLabel(sourceID, targetID, label string) error {
	_, err := db.Exec(`
		UPDATE relationships SET label = ?
		WHERE source_id = ? AND target_id = ?
	`, label, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("set relationship label: %w", err)
	}
	return nil
}

// ListRelationships returns all outbound rows for a source character.
func (db *DB) ListRelationships(sourceID string) ([]Relationship, error) {
	rows, err := db.Query(`
		SELECT id, source_id, target_id, affinity, seed_affinity, label, created_at
		FROM relationships WHERE source_id = ?
		ORDER BY affinity DESC
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID,
			&r.Affinity, &r.SeedAffinity, &r.Label, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
