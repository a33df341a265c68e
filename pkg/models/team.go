package models

import "time"

// SpawnStatus is the lifecycle state of a spawned team.
type SpawnStatus string

const (
	// SpawnActive indicates the team is registered and running.
	SpawnActive SpawnStatus = "active"
	// SpawnTerminated indicates the team has been deregistered.
	SpawnTerminated SpawnStatus = "terminated"
)

// SpawnRecord registers one spawned team in the parent workspace.
// Records are append-only; termination updates status, never deletes.
type SpawnRecord struct {
	ID        int64       `json:"id"`
	ParentID  string      `json:"parent_id"`
	SpawnedID string      `json:"spawned_id"`
	Task      string      `json:"task"`
	Status    SpawnStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// TeamConfig is the retrievable descriptor persisted for each spawned
// team: what it works on, who spawned it, and its role set.
type TeamConfig struct {
	// TeamID is the unique team identifier.
	TeamID string `json:"team_id"`
	// ParentWorkspace is the workspace of the spawning team.
	ParentWorkspace string `json:"parent_workspace"`
	// Workspace is the team's own namespaced workspace.
	Workspace string `json:"workspace"`
	// Task is the task assigned to this team.
	Task string `json:"task"`
	// SpawnedBy is the agent id that requested the spawn.
	SpawnedBy string `json:"spawned_by"`
	// SpawnedAt is when the team was created.
	SpawnedAt time.Time `json:"spawned_at"`
	// Roles maps each fixed role to its initial status.
	Roles map[RoleName]AgentStatus `json:"roles"`
}

// HealthLevel classifies overall system health from the log tail.
type HealthLevel string

const (
	// HealthHealthy indicates normal operation.
	HealthHealthy HealthLevel = "healthy"
	// HealthWarning indicates elevated warning volume.
	HealthWarning HealthLevel = "warning"
	// HealthCritical indicates error volume requiring intervention.
	HealthCritical HealthLevel = "critical"
)

// Diagnosis is the arbitrator's assessment of system health.
type Diagnosis struct {
	// Health is the classified level.
	Health HealthLevel `json:"health"`
	// Errors is the number of error entries in the examined tail.
	Errors int `json:"errors"`
	// Warnings is the number of warning entries in the examined tail.
	Warnings int `json:"warnings"`
	// ExecutorStatus and ReviewerStatus snapshot the peer roles at
	// diagnosis time.
	ExecutorStatus AgentStatus `json:"executor_status"`
	ReviewerStatus AgentStatus `json:"reviewer_status"`
}
