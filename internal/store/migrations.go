package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: tiered character memories with expiry",
		SQL: `
CREATE TABLE memories (
    id             INTEGER PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    content        TEXT NOT NULL,
    mem_type       TEXT NOT NULL DEFAULT 'general',
    importance     INTEGER NOT NULL DEFAULT 5 CHECK (importance BETWEEN 1 AND 10),
    tier           TEXT NOT NULL DEFAULT 'working' CHECK (tier IN ('working', 'core')),
    pinned         INTEGER NOT NULL DEFAULT 0,

    emotional_tags TEXT,
    related_ids    TEXT,

    created_at     INTEGER NOT NULL,
    expires_at     INTEGER,

    CHECK (pinned = 1 OR expires_at IS NOT NULL)
);

CREATE INDEX idx_memories_owner   ON memories(owner_id);
CREATE INDEX idx_memories_expires ON memories(expires_at);
CREATE INDEX idx_memories_type    ON memories(mem_type);
`,
	},
	{
		Version:     2,
		Description: "relationships: directed affinity ledger",
		SQL: `
CREATE TABLE relationships (
    id            INTEGER PRIMARY KEY,
    source_id     TEXT NOT NULL,
    target_id     TEXT NOT NULL,
    affinity      REAL NOT NULL DEFAULT 0,
    seed_affinity REAL NOT NULL DEFAULT 0,
    label         TEXT NOT NULL DEFAULT 'acquaintance',
    created_at    INTEGER NOT NULL,

    UNIQUE (source_id, target_id)
);

CREATE INDEX idx_relationships_source ON relationships(source_id);
`,
	},
	{
		Version:     3,
		Description: "relationship_events: append-only interaction log",
		SQL: `
CREATE TABLE relationship_events (
    id          INTEGER PRIMARY KEY,
    external_id TEXT NOT NULL UNIQUE,
    source_id   TEXT NOT NULL,
    target_id   TEXT NOT NULL,
    event_type  TEXT NOT NULL,
    intensity   REAL NOT NULL DEFAULT 0,
    context     TEXT,
    origin      TEXT NOT NULL DEFAULT 'interaction' CHECK (origin IN ('interaction', 'derived')),
    processed   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_events_processed ON relationship_events(processed, created_at);
CREATE INDEX idx_events_pair      ON relationship_events(source_id, target_id);
`,
	},
	{
		Version:     4,
		Description: "wants: short-term behavioral goals",
		SQL: `
CREATE TABLE wants (
    id           INTEGER PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    text         TEXT NOT NULL,
    want_type    TEXT NOT NULL DEFAULT 'general',
    priority     INTEGER NOT NULL DEFAULT 5,
    progress     INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
    created_at   INTEGER NOT NULL,
    completed_at INTEGER,
    failed_at    INTEGER,
    fail_reason  TEXT
);

CREATE INDEX idx_wants_owner ON wants(owner_id);
`,
	},
	{
		Version:     5,
		Description: "vitals + activity_marks: per-character state and cooldowns",
		SQL: `
CREATE TABLE vitals (
    owner_id         TEXT PRIMARY KEY,
    energy           INTEGER NOT NULL DEFAULT 100 CHECK (energy BETWEEN 0 AND 100),
    patience         INTEGER NOT NULL DEFAULT 100 CHECK (patience BETWEEN 0 AND 100),
    mood             TEXT NOT NULL DEFAULT 'neutral',
    focus            TEXT NOT NULL DEFAULT 'commons',
    is_human         INTEGER NOT NULL DEFAULT 0,
    last_activity_at INTEGER,
    created_at       INTEGER NOT NULL
);

CREATE TABLE activity_marks (
    owner_id   TEXT NOT NULL,
    activity   TEXT NOT NULL,
    last_at    INTEGER NOT NULL,

    PRIMARY KEY (owner_id, activity)
);
`,
	},
	{
		Version:     6,
		Description: "settings: persisted key-value job state",
		SQL: `
CREATE TABLE settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
