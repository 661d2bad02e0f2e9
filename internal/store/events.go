package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event origins. Derived events are facts the engine wrote about itself
// (e.g. an escalation) and are born already-processed so they never re-enter
// the unprocessed queue.
const (
	OriginInteraction = "interaction"
	OriginDerived     = "derived"
)

// RelationshipEvent is one append-only row in the interaction log.
type RelationshipEvent struct {
	ID         int64
	ExternalID string
	SourceID   string
	TargetID   string
	EventType  string
	Intensity  float64
	Context    string
	Origin     string
	Processed  bool
	CreatedAt  int64
}

// RecordEvent appends an event. Derived events may arrive with Processed
// already set. An external id is minted if the caller didn't supply one.
func (db *DB) RecordEvent(ev *RelationshipEvent) error {
	now := time.Now().UnixMilli()
	if ev.ExternalID == "" {
		ev.ExternalID = uuid.NewString()
	}
	if ev.Origin == "" {
		ev.Origin = OriginInteraction
	}

	result, err := db.Exec(`
		INSERT INTO relationship_events (external_id, source_id, target_id, event_type,
			intensity, context, origin, processed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ExternalID, ev.SourceID, ev.TargetID, ev.EventType,
		ev.Intensity, ev.Context, ev.Origin, boolInt(ev.Processed), now)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	id, _ := result.LastInsertId()
	ev.ID = id
	ev.CreatedAt = now
	return nil
}

// UnprocessedEvents returns unprocessed events created at or after since,
// oldest first, up to limit.
func (db *DB) UnprocessedEvents(since int64, limit int) ([]RelationshipEvent, error) {
	rows, err := db.Query(eventSelect+`
		WHERE processed = 0 AND created_at >= ?
		ORDER BY created_at ASC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("unprocessed events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MarkEventsProcessed flips processed on the given event IDs.
func (db *DB) MarkEventsProcessed(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ph := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		args[i] = id
	}

	query := fmt.Sprintf("UPDATE relationship_events SET processed = 1 WHERE id IN (%s)", ph)
	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("mark events processed: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent events for a source character,
// including derived narrative facts.
func (db *DB) RecentEvents(sourceID string, limit int) ([]RelationshipEvent, error) {
	rows, err := db.Query(eventSelect+`
		WHERE source_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

const eventSelect = `
	SELECT id, external_id, source_id, target_id, event_type, intensity, context,
		origin, processed, created_at
	FROM relationship_events`

func scanEvents(rows *sql.Rows) ([]RelationshipEvent, error) {
	var events []RelationshipEvent
	for rows.Next() {
		var ev RelationshipEvent
		var processed int
		var context sql.NullString
		if err := rows.Scan(&ev.ID, &ev.ExternalID, &ev.SourceID, &ev.TargetID,
			&ev.EventType, &ev.Intensity, &context, &ev.Origin, &processed, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Context = context.String
		ev.Processed = processed != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}
