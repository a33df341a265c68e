package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// AppendConversation adds one turn to the conversation ledger and returns
// its assigned id.
func (s *Store) AppendConversation(agentID, role, content string) (int64, error) {
	res, err := s.exec(`
		INSERT INTO conversation (agent_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, agentID, role, content, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("append conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conversation id: %w", err)
	}
	return id, nil
}

// Conversation returns the full conversation ledger, oldest first.
func (s *Store) Conversation() ([]models.ConversationEntry, error) {
	rows, err := s.query(`
		SELECT id, agent_id, role, content, created_at
		FROM conversation ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var entries []models.ConversationEntry
	for rows.Next() {
		var e models.ConversationEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Role, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordDecision appends an arbitration outcome to the decision ledger.
func (s *Store) RecordDecision(agentID, decision, reasoning string) (int64, error) {
	res, err := s.exec(`
		INSERT INTO decisions (agent_id, decision, reasoning, created_at)
		VALUES (?, ?, ?, ?)
	`, agentID, decision, reasoning, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("record decision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("decision id: %w", err)
	}
	return id, nil
}

// Decisions returns the decision ledger, oldest first.
func (s *Store) Decisions() ([]models.DecisionEntry, error) {
	rows, err := s.query(`
		SELECT id, agent_id, decision, reasoning, created_at
		FROM decisions ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []models.DecisionEntry
	for rows.Next() {
		var e models.DecisionEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Decision, &e.Reasoning, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordBug appends a bug to the ledger and returns its assigned id.
// The id is issued inside the append's own serialization boundary, so
// concurrent recorders never collide.
func (s *Store) RecordBug(agentID, description, context string) (int64, error) {
	res, err := s.exec(`
		INSERT INTO bugs (agent_id, description, context, resolved, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, agentID, description, context, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("record bug: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("bug id: %w", err)
	}
	return id, nil
}

// RecordSolution appends a solution referencing bugID and marks that bug
// resolved, atomically. An unknown bugID fails with ErrBugNotFound.
func (s *Store) RecordSolution(agentID string, bugID int64, solution string) (int64, error) {
	var solutionID int64
	err := s.transaction(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM bugs WHERE id = ?", bugID).Scan(&exists); err != nil {
			return fmt.Errorf("look up bug %d: %w", bugID, err)
		}
		if exists == 0 {
			return fmt.Errorf("record solution for bug %d: %w", bugID, ErrBugNotFound)
		}

		res, err := tx.Exec(`
			INSERT INTO solutions (bug_id, agent_id, solution, created_at)
			VALUES (?, ?, ?, ?)
		`, bugID, agentID, solution, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("record solution: %w", err)
		}
		solutionID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("solution id: %w", err)
		}

		if _, err := tx.Exec("UPDATE bugs SET resolved = 1 WHERE id = ?", bugID); err != nil {
			return fmt.Errorf("mark bug %d resolved: %w", bugID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return solutionID, nil
}

// GetBug returns one bug entry by id, or ErrBugNotFound.
func (s *Store) GetBug(bugID int64) (*models.BugEntry, error) {
	row := s.queryRow(`
		SELECT id, agent_id, description, context, resolved, created_at
		FROM bugs WHERE id = ?
	`, bugID)

	var e models.BugEntry
	var context sql.NullString
	var resolved int
	var createdAt string
	err := row.Scan(&e.ID, &e.AgentID, &e.Description, &context, &resolved, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get bug %d: %w", bugID, ErrBugNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug %d: %w", bugID, err)
	}
	if context.Valid {
		e.Context = context.String
	}
	e.Resolved = resolved != 0
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// Bugs returns the bug ledger, oldest first. When unresolvedOnly is set,
// resolved bugs are filtered out.
func (s *Store) Bugs(unresolvedOnly bool) ([]models.BugEntry, error) {
	q := `
		SELECT id, agent_id, description, context, resolved, created_at
		FROM bugs ORDER BY id
	`
	if unresolvedOnly {
		q = `
			SELECT id, agent_id, description, context, resolved, created_at
			FROM bugs WHERE resolved = 0 ORDER BY id
		`
	}
	rows, err := s.query(q)
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	defer rows.Close()

	var entries []models.BugEntry
	for rows.Next() {
		var e models.BugEntry
		var context sql.NullString
		var resolved int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Description, &context, &resolved, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bug entry: %w", err)
		}
		if context.Valid {
			e.Context = context.String
		}
		e.Resolved = resolved != 0
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Solutions returns the solution ledger, oldest first.
func (s *Store) Solutions() ([]models.SolutionEntry, error) {
	rows, err := s.query(`
		SELECT id, bug_id, agent_id, solution, created_at
		FROM solutions ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	defer rows.Close()

	var entries []models.SolutionEntry
	for rows.Next() {
		var e models.SolutionEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.BugID, &e.AgentID, &e.Solution, &createdAt); err != nil {
			return nil, fmt.Errorf("scan solution entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
