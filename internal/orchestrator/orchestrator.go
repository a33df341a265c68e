package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/triad-agents/triad/internal/complexity"
	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/license"
	"github.com/triad-agents/triad/internal/roles"
	"github.com/triad-agents/triad/internal/spawner"
	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

// Phase is the orchestrator's position in a task run.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAssessing        Phase = "assessing"
	PhaseSpawning         Phase = "spawning"
	PhasePrimaryExecuting Phase = "primary_executing"
	PhaseMonitoring       Phase = "monitoring"
	PhaseCompleted        Phase = "completed"
)

// Options configures an orchestrator.
type Options struct {
	// BaseDir is the data directory holding workspace stores.
	BaseDir string
	// Workspace names this orchestrator's store namespace.
	Workspace string
	// Infer is the shared failover layer for this orchestrator's roles.
	Infer *inference.Failover
	// Counter is the process-wide spawn admission counter.
	Counter *spawner.TeamCounter
	// License gates spawning and the dual-layer variant.
	License license.Checker
	// Step runs the executor's work. Nil means the built-in no-op
	// step that succeeds immediately; real deployments wire their
	// execution tooling here.
	Step roles.StepFunc
	// Logger receives operator-facing diagnostics. Nil means no-op.
	Logger *DebugLogger
	// EventBuffer sizes the event channel; zero uses a default.
	EventBuffer int
}

// TaskResult is what a task run returns. Errors never escape
// ExecuteTask; any failure is encoded here.
type TaskResult struct {
	Task              string
	Phase             Phase
	Score             int
	SpawnedTeams      []string
	StepOutput        string
	Health            *models.Diagnosis
	NeedsIntervention bool
	Agents            map[string]models.AgentState
	Err               string
}

// Orchestrator drives one team of three roles through tasks.
type Orchestrator struct {
	workspace  string
	store      *state.Store
	infer      *inference.Failover
	executor   *roles.Role
	reviewer   *roles.Role
	arbitrator *roles.Role
	spawner    *spawner.Spawner
	emitter    *EventEmitter
	logger     *DebugLogger
	step       roles.StepFunc

	mu    sync.Mutex
	phase Phase
}

// New opens the workspace store, initializes the role triple, and
// wires the spawner. All three fixed-role states exist before any
// orchestration step runs.
func New(opts Options) (*Orchestrator, error) {
	if opts.Workspace == "" {
		return nil, fmt.Errorf("orchestrator needs a workspace name")
	}
	if opts.Infer == nil {
		return nil, fmt.Errorf("orchestrator needs an inference layer")
	}
	if opts.Counter == nil {
		opts.Counter = spawner.NewTeamCounter(spawner.DefaultMaxTeams)
	}
	if opts.License == nil {
		opts.License = license.AllowAll{}
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.Step == nil {
		opts.Step = func(context.Context) (string, error) { return "", nil }
	}

	store, err := state.Open(opts.BaseDir, opts.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", opts.Workspace, err)
	}
	if store.Recovered() {
		opts.Logger.Log("workspace %s recovered from corrupt state", opts.Workspace)
	}

	if err := store.InitRoles(map[models.RoleName]models.AgentStatus{
		models.RoleExecutor:   models.StatusIdle,
		models.RoleReviewer:   models.StatusMonitoring,
		models.RoleArbitrator: models.StatusStandby,
	}); err != nil {
		store.Close()
		return nil, fmt.Errorf("init roles: %w", err)
	}

	o := &Orchestrator{
		workspace:  opts.Workspace,
		store:      store,
		infer:      opts.Infer,
		executor:   roles.NewExecutor(store, opts.Infer),
		reviewer:   roles.NewReviewer(store, opts.Infer),
		arbitrator: roles.NewArbitrator(store, opts.Infer),
		spawner:    spawner.New(store, opts.BaseDir, opts.Counter, opts.License),
		emitter:    NewEventEmitter(opts.EventBuffer),
		logger:     opts.Logger,
		step:       opts.Step,
		phase:      PhaseIdle,
	}
	return o, nil
}

// Workspace returns the orchestrator's workspace name.
func (o *Orchestrator) Workspace() string { return o.workspace }

// Store returns the workspace store. The dual-layer shadow uses this
// for its read-only cross-reads.
func (o *Orchestrator) Store() *state.Store { return o.store }

// Events returns the event subscription channel.
func (o *Orchestrator) Events() <-chan Event { return o.emitter.Events() }

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	o.logger.Log("phase: %s", p)
	o.emitter.Emit(Event{Type: EventPhaseChanged, Workspace: o.workspace, Phase: p})
}

// Close releases the workspace store and the event channel.
func (o *Orchestrator) Close() error {
	o.emitter.Close()
	return o.store.Close()
}

// ExecuteTask runs one task through the full phase sequence. It never
// returns an error: validation failures, storage trouble and role
// failures are all encoded in the result.
func (o *Orchestrator) ExecuteTask(ctx context.Context, task *models.TaskDescriptor) *TaskResult {
	result := &TaskResult{Task: task.Description}
	defer func() {
		result.Phase = o.Phase()
		if states, err := o.store.AgentStates(); err == nil {
			result.Agents = states
		}
		o.emitter.Emit(Event{Type: EventTaskDone, Workspace: o.workspace, Message: task.Description})
	}()

	// Assess.
	o.setPhase(PhaseAssessing)
	if err := task.Validate(); err != nil {
		result.Err = err.Error()
		o.logger.Log("task rejected: %v", err)
		o.setPhase(PhaseCompleted)
		return result
	}
	result.Score = complexity.Score(task)
	o.logger.Log("complexity score: %d", result.Score)
	if task.UserInput != "" {
		if err := o.store.AddUserContext(models.ContextUserInput, task.UserInput); err != nil {
			o.logger.Log("buffer user input: %v", err)
		}
	}
	if task.UserDocs != "" {
		if err := o.store.AddUserContext(models.ContextUserDocs, task.UserDocs); err != nil {
			o.logger.Log("buffer user docs: %v", err)
		}
	}

	// Spawn. Denied or failed spawns are logged and never block the
	// primary team.
	o.setPhase(PhaseSpawning)
	teams, err := o.spawner.SpawnForTask(task, o.executor.ID())
	if err != nil {
		o.logger.Log("spawning incomplete: %v", err)
		o.emitter.Emit(Event{Type: EventSpawnDenied, Workspace: o.workspace, Message: err.Error()})
	}
	result.SpawnedTeams = teams
	for _, teamID := range teams {
		o.emitter.Emit(Event{Type: EventTeamSpawned, Workspace: o.workspace, TeamID: teamID})
	}

	// Primary execution.
	o.setPhase(PhasePrimaryExecuting)
	if err := o.executor.StartTask(task.Description); err != nil {
		result.Err = err.Error()
		o.setPhase(PhaseCompleted)
		return result
	}
	step := o.executor.RunStep(ctx, task.Description, o.step)
	result.StepOutput = step.Output
	if !step.Success {
		result.Err = step.Err
		o.emitter.Emit(Event{
			Type:      EventExecutorStuck,
			Workspace: o.workspace,
			AgentID:   o.executor.ID(),
			Message:   step.Err,
		})
		if serr := o.store.SetAgentState(models.AgentState{
			AgentID:     o.executor.ID(),
			Role:        models.RoleExecutor,
			Status:      models.StatusNeedsHelp,
			CurrentTask: task.Description,
		}); serr != nil {
			o.logger.Log("mark executor needs help: %v", serr)
		}
		if step.BugID != 0 {
			o.rescue(ctx, step.BugID)
		}
	}

	// Monitoring always runs, even after a clean execution.
	o.setPhase(PhaseMonitoring)
	if report, err := o.reviewer.Monitor(o.executor.ID()); err != nil {
		o.logger.Log("monitor: %v", err)
	} else if report.Substituted {
		o.emitter.Emit(Event{
			Type:      EventSubstitution,
			Workspace: o.workspace,
			AgentID:   o.reviewer.ID(),
			Message:   o.reviewer.CurrentTask(),
		})
	}

	diagnosis, err := o.arbitrator.Diagnose()
	if err != nil {
		o.logger.Log("diagnose: %v", err)
	} else {
		result.Health = diagnosis
		o.emitter.Emit(Event{
			Type:      EventHealthReport,
			Workspace: o.workspace,
			Health:    diagnosis.Health,
		})
		if diagnosis.Health == models.HealthCritical {
			result.NeedsIntervention = true
			o.emitter.Emit(Event{Type: EventIntervention, Workspace: o.workspace, Health: diagnosis.Health})
		}
	}

	o.setPhase(PhaseCompleted)
	return result
}

// rescue escalates a filed bug: the reviewer assists first, the
// arbitrator cures if assistance failed.
func (o *Orchestrator) rescue(ctx context.Context, bugID int64) {
	_, err := o.reviewer.AssistWithBug(ctx, bugID)
	if err == nil {
		return
	}
	o.logger.Log("reviewer assistance failed for bug %d: %v", bugID, err)
	if _, err := o.arbitrator.CureBug(ctx, bugID); err != nil {
		o.logger.Log("arbitrator cure failed for bug %d: %v", bugID, err)
	}
}

// HandleDispute gives both positions to the arbitrator and records
// the ruling. Advisory record-keeping only: nothing is merged.
func (o *Orchestrator) HandleDispute(ctx context.Context, executorPosition, reviewerPosition, about string) (*roles.Ruling, error) {
	ruling, err := o.arbitrator.SettleDispute(ctx, executorPosition, reviewerPosition, about)
	if err != nil {
		return nil, fmt.Errorf("handle dispute: %w", err)
	}
	o.emitter.Emit(Event{
		Type:      EventDisputeSettled,
		Workspace: o.workspace,
		AgentID:   o.arbitrator.ID(),
		Message:   ruling.Decision,
	})
	return ruling, nil
}

// RestExecutor moves the executor to resting and lets the reviewer
// observe and substitute. The two-state handoff has no cross-role
// locking; concurrent rest/resume callers race.
func (o *Orchestrator) RestExecutor() error {
	if err := o.executor.TakeBreak(); err != nil {
		return err
	}
	report, err := o.reviewer.Monitor(o.executor.ID())
	if err != nil {
		return err
	}
	if report.Substituted {
		o.emitter.Emit(Event{
			Type:      EventSubstitution,
			Workspace: o.workspace,
			AgentID:   o.reviewer.ID(),
			Message:   o.reviewer.CurrentTask(),
		})
	}
	return nil
}

// ResumeExecutor returns the executor to active work and the reviewer
// to monitoring.
func (o *Orchestrator) ResumeExecutor() error {
	if err := o.executor.Resume(); err != nil {
		return err
	}
	if o.reviewer.Substituting() {
		return o.reviewer.StepBack()
	}
	return nil
}

// Intervene runs the arbitrator's emergency-command path. The command
// itself is a logged, always-reported-successful placeholder; a real
// deployment must define the actual command set.
func (o *Orchestrator) Intervene(command, reason string) error {
	return o.arbitrator.EmergencyCommand(command, reason)
}

// SystemStatus is the aggregated view returned to callers.
type SystemStatus struct {
	Workspace string
	Phase     Phase
	Agents    map[string]models.AgentState
	Teams     []models.SpawnRecord
	Health    *models.Diagnosis
	Providers []inference.ProviderStatus
}

// Status aggregates agent states, spawned teams, health and provider
// health into one snapshot.
func (o *Orchestrator) Status(ctx context.Context) (*SystemStatus, error) {
	agents, err := o.store.AgentStates()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	teams, err := o.store.ListSpawns()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	health, err := o.arbitrator.Diagnose()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return &SystemStatus{
		Workspace: o.workspace,
		Phase:     o.Phase(),
		Agents:    agents,
		Teams:     teams,
		Health:    health,
		Providers: o.infer.Status(ctx),
	}, nil
}
