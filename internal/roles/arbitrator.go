package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/pkg/models"
)

// diagnoseWindow is how far back a diagnosis looks in the log.
const diagnoseWindow = 200

// Diagnose reads the agent states and recent log and grades overall
// health: more than 5 errors is critical, more than 10 warnings is a
// warning, anything else healthy.
func (r *Role) Diagnose() (*models.Diagnosis, error) {
	if !r.caps.CanReadLogs {
		return nil, fmt.Errorf("role %s cannot diagnose", r.name)
	}
	if err := r.store.Logf(r.agentID, "Running system diagnosis"); err != nil {
		return nil, err
	}

	executor, err := r.store.GetAgentState(string(models.RoleExecutor))
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	reviewer, err := r.store.GetAgentState(string(models.RoleReviewer))
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	logs, err := r.store.TailLog(diagnoseWindow)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}

	d := &models.Diagnosis{
		ExecutorStatus: executor.Status,
		ReviewerStatus: reviewer.Status,
	}
	for _, e := range logs {
		switch e.Level {
		case models.LogError:
			d.Errors++
		case models.LogWarning:
			d.Warnings++
		}
	}
	switch {
	case d.Errors > 5:
		d.Health = models.HealthCritical
	case d.Warnings > 10:
		d.Health = models.HealthWarning
	default:
		d.Health = models.HealthHealthy
	}
	return d, nil
}

// Ruling is the arbitrator's resolution of a dispute.
type Ruling struct {
	Decision  string
	Reasoning string
}

// SettleDispute makes the final call between two positions and
// records it in the decision ledger. With no provider available the
// ruling falls back to deterministic text so a dispute never stays
// open.
func (r *Role) SettleDispute(ctx context.Context, positionA, positionB, about string) (*Ruling, error) {
	if !r.caps.IsArbitrator {
		return nil, fmt.Errorf("role %s cannot settle disputes", r.name)
	}
	if err := r.store.Logf(r.agentID, "Settling dispute: %s", about); err != nil {
		return nil, err
	}

	ruling := &Ruling{
		Decision:  fmt.Sprintf("Proceeding with the first approach, incorporating the second position's safety checks. Context: %s", about),
		Reasoning: "No provider reachable; applied the standing tie-break favoring forward momentum with added caution.",
	}
	res, err := r.infer.Generate(ctx, inference.Request{
		System: "You arbitrate technical disputes. Answer with a decision line then a reasoning line.",
		Prompt: fmt.Sprintf("Context: %s\nPosition A: %s\nPosition B: %s", about, positionA, positionB),
	})
	if err == nil {
		ruling.Decision = res.Response
		ruling.Reasoning = "Ruled by " + res.Provider
	} else if !errors.Is(err, inference.ErrAllProvidersUnavailable) {
		return nil, fmt.Errorf("settle dispute: %w", err)
	}

	if _, err := r.store.RecordDecision(r.agentID, ruling.Decision, ruling.Reasoning); err != nil {
		return nil, fmt.Errorf("settle dispute: %w", err)
	}
	return ruling, nil
}

// Cure is the outcome of a deep bug fix.
type Cure struct {
	BugID     int64
	Diagnosis string
	Treatment string
}

// CureBug is the arbitrator's deep fix, more thorough than the
// reviewer's assistance. It reads an extended log window and records
// the cure as the bug's solution.
func (r *Role) CureBug(ctx context.Context, bugID int64) (*Cure, error) {
	if !r.caps.CanIntervene {
		return nil, fmt.Errorf("role %s cannot cure bugs", r.name)
	}
	if err := r.store.Logf(r.agentID, "Curing bug #%d", bugID); err != nil {
		return nil, err
	}

	bug, err := r.store.GetBug(bugID)
	if err != nil {
		return nil, fmt.Errorf("cure bug: %w", err)
	}
	if _, err := r.store.TailLog(300); err != nil {
		return nil, fmt.Errorf("cure bug: %w", err)
	}

	cure := &Cure{
		BugID:     bugID,
		Diagnosis: "Root cause analysis unavailable: no provider reachable",
		Treatment: "Reset agent state, restore from last known good state",
	}
	res, err := r.infer.Generate(ctx, inference.Request{
		System: "You are fixing a critical bug. Answer with a root cause line then a treatment line.",
		Prompt: fmt.Sprintf("Bug: %s\nContext: %s", bug.Description, bug.Context),
	})
	if err == nil {
		cure.Diagnosis = res.Response
		cure.Treatment = "See diagnosis"
	} else if !errors.Is(err, inference.ErrAllProvidersUnavailable) {
		return nil, fmt.Errorf("cure bug: %w", err)
	}

	solution := fmt.Sprintf("Deep cure: %s. Treatment: %s", cure.Diagnosis, cure.Treatment)
	if _, err := r.store.RecordSolution(r.agentID, bugID, solution); err != nil {
		return nil, fmt.Errorf("cure bug: %w", err)
	}
	return cure, nil
}

// EmergencyCommand records a direct intervention. The command is
// logged at warning level and echoed to the conversation so the
// intervention is visible in both ledgers.
func (r *Role) EmergencyCommand(command, reason string) error {
	if !r.caps.CanIntervene {
		return fmt.Errorf("role %s cannot run emergency commands", r.name)
	}
	err := r.store.AppendLog(r.agentID, models.LogWarning,
		fmt.Sprintf("EMERGENCY: executing %q. Reason: %s", command, reason))
	if err != nil {
		return fmt.Errorf("emergency command: %w", err)
	}
	if _, err := r.store.AppendConversation(r.agentID, "system", "Emergency intervention: "+command); err != nil {
		return fmt.Errorf("emergency command: %w", err)
	}
	return nil
}
