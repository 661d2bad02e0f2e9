package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Want is a short-term behavioral objective attached to a character.
// At most one want per (owner, type) is active at a time: creating a new one
// soft-fails the previous ("superseded").
type Want struct {
	ID          int64
	OwnerID     string
	Text        string
	Type        string
	Priority    int
	Progress    int
	CreatedAt   int64
	CompletedAt *int64
	FailedAt    *int64
	FailReason  string
}

// CreateWant inserts a want, superseding any active want of the same
// owner+type first.
func (db *DB) CreateWant(w *Want) error {
	now := time.Now().UnixMilli()
	if w.Type == "" {
		w.Type = "general"
	}
	if w.Priority == 0 {
		w.Priority = 5
	}

	_, err := db.Exec(`
		UPDATE wants SET failed_at = ?, fail_reason = 'superseded'
		WHERE owner_id = ? AND want_type = ? AND completed_at IS NULL AND failed_at IS NULL
	`, now, w.OwnerID, w.Type)
	if err != nil {
		return fmt.Errorf("supersede wants: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO wants (owner_id, text, want_type, priority, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.OwnerID, w.Text, w.Type, w.Priority, w.Progress, now)
	if err != nil {
		return fmt.Errorf("create want: %w", err)
	}

	id, _ := result.LastInsertId()
	w.ID = id
	w.CreatedAt = now
	return nil
}

// ActiveWants returns all wants for an owner that are neither completed nor failed.
func (db *DB) ActiveWants(ownerID string) ([]Want, error) {
	rows, err := db.Query(wantSelect+`
		WHERE owner_id = ? AND completed_at IS NULL AND failed_at IS NULL
		ORDER BY priority DESC, created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("active wants: %w", err)
	}
	defer rows.Close()
	return scanWants(rows)
}

// HasSimilarWant reports whether the owner already has an active want whose
// text mentions the needle (substring match).
func (db *DB) HasSimilarWant(ownerID, needle string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM wants
		WHERE owner_id = ? AND completed_at IS NULL AND failed_at IS NULL
		AND text LIKE '%' || ? || '%'
	`, ownerID, needle).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("similar want check: %w", err)
	}
	return count > 0, nil
}

// UpdateWantProgress sets progress, clamped to [0,100].
func (db *DB) UpdateWantProgress(id int64, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := db.Exec("UPDATE wants SET progress = ? WHERE id = ?", progress, id)
	if err != nil {
		return fmt.Errorf("update want progress: %w", err)
	}
	return nil
}

// CompleteWant marks a want completed at full progress.
func (db *DB) CompleteWant(id int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE wants SET completed_at = ?, progress = 100
		WHERE id = ? AND completed_at IS NULL AND failed_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("complete want: %w", err)
	}
	return nil
}

// FailWant marks a want failed with a reason.
func (db *DB) FailWant(id int64, reason string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE wants SET failed_at = ?, fail_reason = ?
		WHERE id = ? AND completed_at IS NULL AND failed_at IS NULL
	`, now, reason, id)
	if err != nil {
		return fmt.Errorf("fail want: %w", err)
	}
	return nil
}

const wantSelect = `
	SELECT id, owner_id, text, want_type, priority, progress, created_at,
		completed_at, failed_at, fail_reason
	FROM wants`

func scanWants(rows *sql.Rows) ([]Want, error) {
	var wants []Want
	for rows.Next() {
		var w Want
		var completedAt, failedAt sql.NullInt64
		var failReason sql.NullString
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Text, &w.Type, &w.Priority,
			&w.Progress, &w.CreatedAt, &completedAt, &failedAt, &failReason); err != nil {
			return nil, fmt.Errorf("scan want: %w", err)
		}
		if completedAt.Valid {
			w.CompletedAt = &completedAt.Int64
		}
		if failedAt.Valid {
			w.FailedAt = &failedAt.Int64
		}
		w.FailReason = failReason.String
		wants = append(wants, w)
	}
	return wants, rows.Err()
}
