package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Windows table - stores recorded labeled training windows.
		// The samples column holds the 25-sample JSON array in the format the
		// training pipeline consumes.
		`CREATE TABLE IF NOT EXISTS windows (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL CHECK(label IN ('tap', 'background')),
			samples TEXT NOT NULL,
			captured_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Actions table - stores plugin actions to execute when a tap fires
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_windows_label ON windows(label)`,
		`CREATE INDEX IF NOT EXISTS idx_windows_captured_at ON windows(captured_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
