package state

import (
	"fmt"
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// AddUserContext appends one piece of user-provided context to the named
// buffer.
func (s *Store) AddUserContext(kind models.UserContextKind, content string) error {
	_, err := s.exec(`
		INSERT INTO user_context (kind, content, created_at)
		VALUES (?, ?, ?)
	`, string(kind), content, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("add user context: %w", err)
	}
	return nil
}

// GetUserContext returns all buffered context entries grouped by kind,
// each group oldest-first.
func (s *Store) GetUserContext() (map[models.UserContextKind][]models.UserContextEntry, error) {
	rows, err := s.query(`
		SELECT id, kind, content, created_at
		FROM user_context ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("get user context: %w", err)
	}
	defer rows.Close()

	buffers := make(map[models.UserContextKind][]models.UserContextEntry)
	for rows.Next() {
		var e models.UserContextEntry
		var kind, createdAt string
		if err := rows.Scan(&e.ID, &kind, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user context entry: %w", err)
		}
		e.Kind = models.UserContextKind(kind)
		e.CreatedAt = parseTime(createdAt)
		buffers[e.Kind] = append(buffers[e.Kind], e)
	}
	return buffers, rows.Err()
}
