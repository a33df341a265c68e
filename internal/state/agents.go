package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// InitRoles writes the initial agent-state triple for a fresh workspace.
// Existing states are overwritten; every orchestration step assumes all
// three fixed roles exist.
func (s *Store) InitRoles(statuses map[models.RoleName]models.AgentStatus) error {
	return s.transaction(func(tx *sql.Tx) error {
		now := formatTime(time.Now())
		for _, role := range models.Roles() {
			status, ok := statuses[role]
			if !ok {
				status = models.StatusIdle
			}
			_, err := tx.Exec(`
				INSERT INTO agent_states (agent_id, role, status, current_task, updated_at)
				VALUES (?, ?, ?, NULL, ?)
				ON CONFLICT(agent_id) DO UPDATE SET
					role = excluded.role,
					status = excluded.status,
					current_task = NULL,
					updated_at = excluded.updated_at
			`, string(role), string(role), string(status), now)
			if err != nil {
				return fmt.Errorf("init role %s: %w", role, err)
			}
		}
		return nil
	})
}

// SetAgentState upserts one agent's state. Last write wins.
func (s *Store) SetAgentState(st models.AgentState) error {
	var task any
	if st.CurrentTask != "" {
		task = st.CurrentTask
	}
	_, err := s.exec(`
		INSERT INTO agent_states (agent_id, role, status, current_task, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			role = excluded.role,
			status = excluded.status,
			current_task = excluded.current_task,
			updated_at = excluded.updated_at
	`, st.AgentID, string(st.Role), string(st.Status), task, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("set agent state %s: %w", st.AgentID, err)
	}
	return nil
}

// GetAgentState returns the state for agentID. An id that was never
// written yields the idle default, not an error.
func (s *Store) GetAgentState(agentID string) (models.AgentState, error) {
	row := s.queryRow(`
		SELECT agent_id, role, status, current_task, updated_at
		FROM agent_states WHERE agent_id = ?
	`, agentID)

	var st models.AgentState
	var role, status string
	var task sql.NullString
	var updatedAt string
	err := row.Scan(&st.AgentID, &role, &status, &task, &updatedAt)
	if err == sql.ErrNoRows {
		return models.IdleState(agentID), nil
	}
	if err != nil {
		return models.AgentState{}, fmt.Errorf("get agent state %s: %w", agentID, err)
	}
	st.Role = models.RoleName(role)
	st.Status = models.AgentStatus(status)
	if task.Valid {
		st.CurrentTask = task.String
	}
	st.LastUpdated = parseTime(updatedAt)
	return st, nil
}

// AgentStates returns all persisted agent states keyed by agent id.
func (s *Store) AgentStates() (map[string]models.AgentState, error) {
	rows, err := s.query(`
		SELECT agent_id, role, status, current_task, updated_at
		FROM agent_states
	`)
	if err != nil {
		return nil, fmt.Errorf("list agent states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]models.AgentState)
	for rows.Next() {
		var st models.AgentState
		var role, status string
		var task sql.NullString
		var updatedAt string
		if err := rows.Scan(&st.AgentID, &role, &status, &task, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan agent state: %w", err)
		}
		st.Role = models.RoleName(role)
		st.Status = models.AgentStatus(status)
		if task.Valid {
			st.CurrentTask = task.String
		}
		st.LastUpdated = parseTime(updatedAt)
		states[st.AgentID] = st
	}
	return states, rows.Err()
}
