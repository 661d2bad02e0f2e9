package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Settings is a generic persisted key-value surface for job state — sweep
// cooldown timestamps, daily counters, interaction tallies. Read-then-write:
// the narrow race between concurrent job runs is accepted.

// GetSetting returns the value for a key, or "" if unset.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a key-value pair, replacing any existing value.
func (db *DB) SetSetting(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetSettingInt64 returns a key's value parsed as int64, or 0 if unset or
// unparseable.
func (db *DB) GetSettingInt64(key string) (int64, error) {
	value, err := db.GetSetting(key)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetSettingInt64 writes an int64 value for a key.
func (db *DB) SetSettingInt64(key string, value int64) error {
	return db.SetSetting(key, strconv.FormatInt(value, 10))
}

// DeleteSettingsPrefix removes all keys with the given prefix. Used by the
// daily reset to zero interaction counters.
func (db *DB) DeleteSettingsPrefix(prefix string) (int, error) {
	result, err := db.Exec("DELETE FROM settings WHERE key LIKE ? || '%'", prefix)
	if err != nil {
		return 0, fmt.Errorf("delete settings prefix %q: %w", prefix, err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
