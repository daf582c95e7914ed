package patternstore

// Migrate creates the tables and indexes if they don't exist.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pattern_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM pattern_schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Patterns},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := tx.Exec("INSERT INTO pattern_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

const migrationV1Patterns = `
CREATE TABLE IF NOT EXISTS patterns (
	task_type TEXT PRIMARY KEY,
	use_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pattern_examples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_type TEXT NOT NULL,
	steps TEXT NOT NULL,  -- JSON array of subtask strings
	created_at DATETIME NOT NULL,
	FOREIGN KEY (task_type) REFERENCES patterns(task_type) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_pattern_examples_type ON pattern_examples(task_type);
CREATE INDEX IF NOT EXISTS idx_patterns_use_count ON patterns(use_count DESC);
`
