package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// RegisterSpawn appends a spawn record for a newly created team.
func (s *Store) RegisterSpawn(parentID, spawnedID, task string) (int64, error) {
	res, err := s.exec(`
		INSERT INTO spawns (parent_id, spawned_id, task, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, parentID, spawnedID, task, string(models.SpawnActive), formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("register spawn %s: %w", spawnedID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("spawn id: %w", err)
	}
	return id, nil
}

// ListSpawns returns all spawn records, oldest first.
func (s *Store) ListSpawns() ([]models.SpawnRecord, error) {
	rows, err := s.query(`
		SELECT id, parent_id, spawned_id, task, status, created_at
		FROM spawns ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list spawns: %w", err)
	}
	defer rows.Close()

	var records []models.SpawnRecord
	for rows.Next() {
		var r models.SpawnRecord
		var status, createdAt string
		if err := rows.Scan(&r.ID, &r.ParentID, &r.SpawnedID, &r.Task, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan spawn record: %w", err)
		}
		r.Status = models.SpawnStatus(status)
		r.CreatedAt = parseTime(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkSpawnTerminated flips an active spawn record to terminated. The
// record itself is append-only and stays in the registry. Returns false
// when spawnedID has no active record, so an unknown or
// already-terminated team cannot be deregistered twice.
func (s *Store) MarkSpawnTerminated(spawnedID string) (bool, error) {
	res, err := s.exec(`
		UPDATE spawns SET status = ? WHERE spawned_id = ? AND status = ?
	`, string(models.SpawnTerminated), spawnedID, string(models.SpawnActive))
	if err != nil {
		return false, fmt.Errorf("terminate spawn %s: %w", spawnedID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("terminate spawn %s: %w", spawnedID, err)
	}
	return affected > 0, nil
}

// SaveTeamConfig persists the retrievable descriptor for a spawned team.
func (s *Store) SaveTeamConfig(cfg *models.TeamConfig) error {
	roles, err := json.Marshal(cfg.Roles)
	if err != nil {
		return fmt.Errorf("marshal team roles: %w", err)
	}
	_, err = s.exec(`
		INSERT INTO team_configs (team_id, parent_workspace, workspace, task, spawned_by, spawned_at, roles)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(team_id) DO UPDATE SET
			parent_workspace = excluded.parent_workspace,
			workspace = excluded.workspace,
			task = excluded.task,
			spawned_by = excluded.spawned_by,
			spawned_at = excluded.spawned_at,
			roles = excluded.roles
	`, cfg.TeamID, cfg.ParentWorkspace, cfg.Workspace, cfg.Task, cfg.SpawnedBy,
		formatTime(cfg.SpawnedAt), string(roles))
	if err != nil {
		return fmt.Errorf("save team config %s: %w", cfg.TeamID, err)
	}
	return nil
}

// GetTeamConfig returns the descriptor for teamID, or nil if unknown.
func (s *Store) GetTeamConfig(teamID string) (*models.TeamConfig, error) {
	row := s.queryRow(`
		SELECT team_id, parent_workspace, workspace, task, spawned_by, spawned_at, roles
		FROM team_configs WHERE team_id = ?
	`, teamID)

	var cfg models.TeamConfig
	var spawnedAt, roles string
	err := row.Scan(&cfg.TeamID, &cfg.ParentWorkspace, &cfg.Workspace, &cfg.Task,
		&cfg.SpawnedBy, &spawnedAt, &roles)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team config %s: %w", teamID, err)
	}
	cfg.SpawnedAt = parseTime(spawnedAt)
	if err := json.Unmarshal([]byte(roles), &cfg.Roles); err != nil {
		return nil, fmt.Errorf("unmarshal team roles: %w", err)
	}
	return &cfg, nil
}
