// Package orchestrator sequences the three fixed roles through a
// task: assess complexity, spawn extra teams, let the executor work,
// then have the reviewer and arbitrator observe the outcome.
package orchestrator

import (
	"time"

	"github.com/triad-agents/triad/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPhaseChanged indicates the orchestrator entered a new phase.
	EventPhaseChanged EventType = "phase_changed"
	// EventTeamSpawned indicates an additional team was admitted.
	EventTeamSpawned EventType = "team_spawned"
	// EventSpawnDenied indicates a spawn request was denied by the cap.
	EventSpawnDenied EventType = "spawn_denied"
	// EventExecutorStuck indicates the executor filed a bug and needs help.
	EventExecutorStuck EventType = "executor_stuck"
	// EventSubstitution indicates the reviewer took over the executor's task.
	EventSubstitution EventType = "substitution"
	// EventDisputeSettled indicates the arbitrator recorded a ruling.
	EventDisputeSettled EventType = "dispute_settled"
	// EventHealthReport carries the arbitrator's diagnosis.
	EventHealthReport EventType = "health_report"
	// EventIntervention indicates critical health raised the intervention flag.
	EventIntervention EventType = "intervention"
	// EventTaskDone indicates the task run finished.
	EventTaskDone EventType = "task_done"
)

// Event is emitted by the orchestrator for dashboards and logs.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Workspace is the emitting orchestrator's workspace.
	Workspace string
	// Phase is the orchestrator phase at emission time.
	Phase Phase
	// AgentID is the related agent, if applicable.
	AgentID string
	// TeamID is the related spawned team, if applicable.
	TeamID string
	// Message provides additional context.
	Message string
	// Health carries the diagnosis for health events.
	Health models.HealthLevel
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
