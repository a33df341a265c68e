// Package roles implements the three fixed agents of a workspace:
// the executor drives the task forward, the reviewer monitors and
// substitutes, and the arbitrator diagnoses and settles disputes. All
// three are the same Role type differing only in capabilities.
package roles

import (
	"context"
	"fmt"
	"sync"

	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

// Capabilities declares what a role is allowed to do.
type Capabilities struct {
	// CanReadLogs permits reading the workspace log. The executor
	// deliberately lacks this and stays focused on user context.
	CanReadLogs bool
	// CanIntervene permits deep fixes and emergency commands.
	CanIntervene bool
	// IsArbitrator permits settling disputes and recording decisions.
	IsArbitrator bool
}

// Role is one agent bound to a workspace store and the shared
// inference layer.
type Role struct {
	agentID string
	name    models.RoleName
	caps    Capabilities
	store   *state.Store
	infer   *inference.Failover

	mu           sync.Mutex
	currentTask  string
	substituting bool
	needsHelp    bool
}

// NewExecutor returns the primary coding role. It cannot read logs.
func NewExecutor(store *state.Store, infer *inference.Failover) *Role {
	return newRole(models.RoleExecutor, Capabilities{}, store, infer)
}

// NewReviewer returns the monitoring and backup role.
func NewReviewer(store *state.Store, infer *inference.Failover) *Role {
	return newRole(models.RoleReviewer, Capabilities{CanReadLogs: true}, store, infer)
}

// NewArbitrator returns the diagnosis and dispute role.
func NewArbitrator(store *state.Store, infer *inference.Failover) *Role {
	return newRole(models.RoleArbitrator, Capabilities{
		CanReadLogs:  true,
		CanIntervene: true,
		IsArbitrator: true,
	}, store, infer)
}

func newRole(name models.RoleName, caps Capabilities, store *state.Store, infer *inference.Failover) *Role {
	return &Role{
		agentID: string(name),
		name:    name,
		caps:    caps,
		store:   store,
		infer:   infer,
	}
}

// ID returns the agent id, which is the role name.
func (r *Role) ID() string { return r.agentID }

// Name returns the role name.
func (r *Role) Name() models.RoleName { return r.name }

// Capabilities returns the role's capability set.
func (r *Role) Capabilities() Capabilities { return r.caps }

// NeedsHelp reports whether the last step hit a wall.
func (r *Role) NeedsHelp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.needsHelp
}

// CurrentTask returns the task the role is holding.
func (r *Role) CurrentTask() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTask
}

// UserContext returns the buffered user input, docs and codebase
// context. This is the executor's working set; it reads no logs.
func (r *Role) UserContext() (map[models.UserContextKind][]models.UserContextEntry, error) {
	return r.store.GetUserContext()
}

// ReadLogs returns the last n workspace log entries. Roles without
// the log capability are refused.
func (r *Role) ReadLogs(n int) ([]models.LogEntry, error) {
	if !r.caps.CanReadLogs {
		return nil, fmt.Errorf("role %s cannot read logs", r.name)
	}
	return r.store.TailLog(n)
}

// StartTask begins work on a task and publishes the state change.
func (r *Role) StartTask(task string) error {
	r.mu.Lock()
	r.currentTask = task
	r.needsHelp = false
	r.mu.Unlock()

	err := r.store.SetAgentState(models.AgentState{
		AgentID:     r.agentID,
		Role:        r.name,
		Status:      models.StatusCoding,
		CurrentTask: task,
	})
	if err != nil {
		return fmt.Errorf("start task: %w", err)
	}
	if _, err := r.store.AppendConversation(r.agentID, "system", "Starting task: "+task); err != nil {
		return fmt.Errorf("start task: %w", err)
	}
	return nil
}

// StepFunc is one unit of work handed to RunStep. The role records
// the outcome but does not interpret the output.
type StepFunc func(ctx context.Context) (string, error)

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Success   bool
	Output    string
	Err       string
	BugID     int64
	NeedsHelp bool
}

// RunStep executes one unit of work. A failing step never escapes as
// an error: the failure is filed as a bug, the role flags itself as
// needing help, and the result carries the error text.
func (r *Role) RunStep(ctx context.Context, description string, fn StepFunc) *StepResult {
	if err := r.store.Logf(r.agentID, "Executing: %s", description); err != nil {
		return &StepResult{Err: err.Error()}
	}

	output, err := fn(ctx)
	if err == nil {
		if _, cerr := r.store.AppendConversation(r.agentID, "assistant", "Completed: "+description); cerr != nil {
			return &StepResult{Success: true, Output: output, Err: cerr.Error()}
		}
		return &StepResult{Success: true, Output: output}
	}

	r.mu.Lock()
	r.needsHelp = true
	task := r.currentTask
	r.mu.Unlock()

	res := &StepResult{Err: err.Error(), NeedsHelp: true}
	bugID, berr := r.store.RecordBug(r.agentID, err.Error(),
		fmt.Sprintf(`{"task":%q,"step":%q}`, task, description))
	if berr == nil {
		res.BugID = bugID
	}
	r.store.AppendLog(r.agentID, models.LogWarning,
		fmt.Sprintf("Hit a wall: %s. Requesting assistance.", err))
	return res
}

// TakeBreak moves the role to resting. The current task stays on the
// published state so a substitute can pick up exactly that task.
func (r *Role) TakeBreak() error {
	r.mu.Lock()
	task := r.currentTask
	r.mu.Unlock()

	err := r.store.SetAgentState(models.AgentState{
		AgentID:     r.agentID,
		Role:        r.name,
		Status:      models.StatusResting,
		CurrentTask: task,
	})
	if err != nil {
		return fmt.Errorf("take break: %w", err)
	}
	return r.store.Logf(r.agentID, "Taking a break")
}

// Resume returns the role to active work on its held task.
func (r *Role) Resume() error {
	r.mu.Lock()
	task := r.currentTask
	r.mu.Unlock()

	err := r.store.SetAgentState(models.AgentState{
		AgentID:     r.agentID,
		Role:        r.name,
		Status:      models.StatusActive,
		CurrentTask: task,
	})
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	return r.store.Logf(r.agentID, "Resumed work")
}
