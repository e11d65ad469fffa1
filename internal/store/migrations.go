package store

import "fmt"

// migrations are applied in order on every start and must stay idempotent.
var migrations = []string{
	// Key/value user settings
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// Plugin actions bound to tracking events
	`CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		gesture TEXT NOT NULL CHECK(gesture IN ('press', 'release', 'spread', 'pinch', 'lost')),
		plugin_name TEXT NOT NULL,
		action_name TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// One row per acquired subject
	`CREATE TABLE IF NOT EXISTS tracking_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tracking_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		frames INTEGER NOT NULL DEFAULT 0,
		end_reason TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_actions_gesture ON actions(gesture)`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_sessions_started_at ON tracking_sessions(started_at)`,
}

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	for i, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
