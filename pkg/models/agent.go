package models

import "time"

// RoleName identifies one of the three fixed roles in a team.
type RoleName string

const (
	// RoleExecutor drives implementation forward. It stays focused on
	// user context and does not read logs.
	RoleExecutor RoleName = "executor"
	// RoleReviewer monitors the executor, suggests improvements, and
	// substitutes when the executor rests.
	RoleReviewer RoleName = "reviewer"
	// RoleArbitrator settles disputes, diagnoses system health, and
	// heals failures.
	RoleArbitrator RoleName = "arbitrator"
)

// Roles lists the fixed role set in declaration order.
// Every team carries exactly one agent per role.
func Roles() []RoleName {
	return []RoleName{RoleExecutor, RoleReviewer, RoleArbitrator}
}

// Valid returns true if the role name is a known value.
func (r RoleName) Valid() bool {
	switch r {
	case RoleExecutor, RoleReviewer, RoleArbitrator:
		return true
	default:
		return false
	}
}

// AgentStatus represents the current state of a role handler.
type AgentStatus string

const (
	// StatusIdle indicates the agent has no current task.
	StatusIdle AgentStatus = "idle"
	// StatusActive indicates the agent is working.
	StatusActive AgentStatus = "active"
	// StatusCoding indicates the executor is mid-implementation.
	StatusCoding AgentStatus = "coding"
	// StatusResting indicates the executor stepped away; its task is
	// retained so the reviewer can pick it up verbatim.
	StatusResting AgentStatus = "resting"
	// StatusSubstituting indicates the reviewer has taken over the
	// executor's task.
	StatusSubstituting AgentStatus = "substituting"
	// StatusMonitoring indicates the agent is observing, not mutating.
	StatusMonitoring AgentStatus = "monitoring"
	// StatusStandby indicates the agent is waiting to be needed.
	StatusStandby AgentStatus = "standby"
	// StatusNeedsHelp indicates the agent's last step failed and it is
	// waiting for assistance.
	StatusNeedsHelp AgentStatus = "needs_help"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusActive, StatusCoding, StatusResting,
		StatusSubstituting, StatusMonitoring, StatusStandby, StatusNeedsHelp:
		return true
	default:
		return false
	}
}

// AgentState is the persisted state of one role handler within a team.
// There is exactly one per fixed role per workspace; writes are
// last-write-wins.
type AgentState struct {
	// AgentID is the stable identifier of the role handler.
	AgentID string `json:"agent_id"`
	// Role is the fixed role this agent fills.
	Role RoleName `json:"role"`
	// Status is the agent's current status.
	Status AgentStatus `json:"status"`
	// CurrentTask is the task the agent is working on, if any.
	CurrentTask string `json:"current_task,omitempty"`
	// LastUpdated is when the state was last written.
	LastUpdated time.Time `json:"last_updated"`
}

// IdleState returns the well-defined default state for an agent id that
// has never been written.
func IdleState(agentID string) AgentState {
	return AgentState{
		AgentID: agentID,
		Status:  StatusIdle,
	}
}
