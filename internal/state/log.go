package state

import (
	"fmt"
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// AppendLog writes one entry to the append-only workspace log.
func (s *Store) AppendLog(agentID string, level models.LogLevel, message string) error {
	_, err := s.exec(`
		INSERT INTO log (agent_id, level, message, created_at)
		VALUES (?, ?, ?, ?)
	`, agentID, string(level), message, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Logf appends a formatted info-level entry.
func (s *Store) Logf(agentID, format string, args ...any) error {
	return s.AppendLog(agentID, models.LogInfo, fmt.Sprintf(format, args...))
}

// TailLog returns the last n log entries, oldest-first within that
// window. n <= 0 yields an empty slice.
func (s *Store) TailLog(n int) ([]models.LogEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.query(`
		SELECT id, agent_id, level, message, created_at FROM (
			SELECT id, agent_id, level, message, created_at
			FROM log ORDER BY id DESC LIMIT ?
		) ORDER BY id
	`, n)
	if err != nil {
		return nil, fmt.Errorf("tail log: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		var level, createdAt string
		if err := rows.Scan(&e.ID, &e.AgentID, &level, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.Level = models.LogLevel(level)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
