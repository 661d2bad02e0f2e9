package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultFocus is the location token non-human characters return to after an
// activity.
const DefaultFocus = "commons"

// Vitals is the per-character energy/patience/mood/location row.
// Energy and patience are always clamped to [0,100] at write time.
type Vitals struct {
	OwnerID        string
	Energy         int
	Patience       int
	Mood           string
	Focus          string
	IsHuman        bool
	LastActivityAt *int64
	CreatedAt      int64
}

// EnsureVitals lazily creates the default vitals row for an owner and
// returns the current state.
func (db *DB) EnsureVitals(ownerID string, isHuman bool) (*Vitals, error) {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT OR IGNORE INTO vitals (owner_id, is_human, created_at)
		VALUES (?, ?, ?)
	`, ownerID, boolInt(isHuman), now)
	if err != nil {
		return nil, fmt.Errorf("ensure vitals: %w", err)
	}
	return db.GetVitals(ownerID)
}

// GetVitals returns the vitals row for an owner, or nil if none exists.
func (db *DB) GetVitals(ownerID string) (*Vitals, error) {
	var v Vitals
	var isHuman int
	var lastActivity sql.NullInt64
	err := db.QueryRow(`
		SELECT owner_id, energy, patience, mood, focus, is_human, last_activity_at, created_at
		FROM vitals WHERE owner_id = ?
	`, ownerID).Scan(&v.OwnerID, &v.Energy, &v.Patience, &v.Mood, &v.Focus,
		&isHuman, &lastActivity, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vitals: %w", err)
	}
	v.IsHuman = isHuman != 0
	if lastActivity.Valid {
		v.LastActivityAt = &lastActivity.Int64
	}
	return &v, nil
}

// AllVitals returns every vitals row. Used by the daily reset.
func (db *DB) AllVitals() ([]Vitals, error) {
	rows, err := db.Query(`
		SELECT owner_id, energy, patience, mood, focus, is_human, last_activity_at, created_at
		FROM vitals ORDER BY owner_id
	`)
	if err != nil {
		return nil, fmt.Errorf("all vitals: %w", err)
	}
	defer rows.Close()

	var all []Vitals
	for rows.Next() {
		var v Vitals
		var isHuman int
		var lastActivity sql.NullInt64
		if err := rows.Scan(&v.OwnerID, &v.Energy, &v.Patience, &v.Mood, &v.Focus,
			&isHuman, &lastActivity, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vitals: %w", err)
		}
		v.IsHuman = isHuman != 0
		if lastActivity.Valid {
			v.LastActivityAt = &lastActivity.Int64
		}
		all = append(all, v)
	}
	return all, rows.Err()
}

// Owners returns every character id with a vitals row.
func (db *DB) Owners() ([]string, error) {
	rows, err := db.Query("SELECT owner_id FROM vitals ORDER BY owner_id")
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// AdjustVitals applies signed deltas to energy and patience, clamping both to
// [0,100] in SQL so an oversized delta can never escape the range.
func (db *DB) AdjustVitals(ownerID string, dEnergy, dPatience int) error {
	_, err := db.Exec(`
		UPDATE vitals SET
			energy = MAX(0, MIN(100, energy + ?)),
			patience = MAX(0, MIN(100, patience + ?))
		WHERE owner_id = ?
	`, dEnergy, dPatience, ownerID)
	if err != nil {
		return fmt.Errorf("adjust vitals: %w", err)
	}
	return nil
}

// SetMood updates the mood token.
func (db *DB) SetMood(ownerID, mood string) error {
	_, err := db.Exec("UPDATE vitals SET mood = ? WHERE owner_id = ?", mood, ownerID)
	if err != nil {
		return fmt.Errorf("set mood: %w", err)
	}
	return nil
}

// SetFocus updates the current location token.
func (db *DB) SetFocus(ownerID, focus string) error {
	_, err := db.Exec("UPDATE vitals SET focus = ? WHERE owner_id = ?", focus, ownerID)
	if err != nil {
		return fmt.Errorf("set focus: %w", err)
	}
	return nil
}

// TouchActivity records that an activity was performed: bumps the global
// cooldown timestamp and the per-activity mark.
func (db *DB) TouchActivity(ownerID, activity string, at int64) error {
	if _, err := db.Exec(
		"UPDATE vitals SET last_activity_at = ? WHERE owner_id = ?", at, ownerID,
	); err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}

	_, err := db.Exec(`
		INSERT INTO activity_marks (owner_id, activity, last_at)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id, activity) DO UPDATE SET last_at = excluded.last_at
	`, ownerID, activity, at)
	if err != nil {
		return fmt.Errorf("mark activity: %w", err)
	}
	return nil
}

// ActivityMarks returns the per-activity last-performed timestamps for an owner.
func (db *DB) ActivityMarks(ownerID string) (map[string]int64, error) {
	rows, err := db.Query(
		"SELECT activity, last_at FROM activity_marks WHERE owner_id = ?", ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("activity marks: %w", err)
	}
	defer rows.Close()

	marks := make(map[string]int64)
	for rows.Next() {
		var activity string
		var lastAt int64
		if err := rows.Scan(&activity, &lastAt); err != nil {
			return nil, fmt.Errorf("scan activity mark: %w", err)
		}
		marks[activity] = lastAt
	}
	return marks, rows.Err()
}
