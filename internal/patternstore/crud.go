package patternstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amcoelho/taskpilot/internal/engine"
)

// Save replaces the stored pattern set with the given one. It is
// called at the end of a run with the engine's current cache contents.
func (s *Store) Save(patterns []*engine.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM pattern_examples"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear examples: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM patterns"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear patterns: %w", err)
	}

	now := formatTime(time.Now())
	for _, p := range patterns {
		if _, err := tx.Exec(
			"INSERT INTO patterns (task_type, use_count, updated_at) VALUES (?, ?, ?)",
			p.Type, p.Count, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert pattern %q: %w", p.Type, err)
		}

		for _, example := range p.Examples {
			steps, err := json.Marshal(example)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("encode example for %q: %w", p.Type, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO pattern_examples (task_type, steps, created_at) VALUES (?, ?, ?)",
				p.Type, string(steps), now,
			); err != nil {
				tx.Rollback()
				return fmt.Errorf("insert example for %q: %w", p.Type, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads all stored patterns, most used first. Examples within a
// pattern come back oldest first, matching the cache's append order.
func (s *Store) Load() ([]*engine.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT task_type, use_count FROM patterns ORDER BY use_count DESC")
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*engine.Pattern
	byType := make(map[string]*engine.Pattern)
	for rows.Next() {
		p := &engine.Pattern{}
		if err := rows.Scan(&p.Type, &p.Count); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, p)
		byType[p.Type] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}

	exampleRows, err := s.db.Query("SELECT task_type, steps FROM pattern_examples ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query examples: %w", err)
	}
	defer exampleRows.Close()

	for exampleRows.Next() {
		var taskType, steps string
		if err := exampleRows.Scan(&taskType, &steps); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		p, ok := byType[taskType]
		if !ok {
			continue
		}
		var example []string
		if err := json.Unmarshal([]byte(steps), &example); err != nil {
			// A corrupt row loses one example, not the whole cache.
			continue
		}
		p.Examples = append(p.Examples, example)
	}
	return patterns, exampleRows.Err()
}
