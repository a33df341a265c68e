package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/pkg/models"
)

// Substituting reports whether the role is currently covering for
// another agent.
func (r *Role) Substituting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.substituting
}

// Substitute takes over the given task for a resting agent.
func (r *Role) Substitute(task string) error {
	r.mu.Lock()
	if r.substituting {
		r.mu.Unlock()
		return fmt.Errorf("%s is already substituting", r.agentID)
	}
	r.substituting = true
	r.currentTask = task
	r.mu.Unlock()

	err := r.store.SetAgentState(models.AgentState{
		AgentID:     r.agentID,
		Role:        r.name,
		Status:      models.StatusSubstituting,
		CurrentTask: task,
	})
	if err != nil {
		return fmt.Errorf("substitute: %w", err)
	}
	return r.store.Logf(r.agentID, "Substituting on task: %s", task)
}

// StepBack ends a substitution and returns to monitoring.
func (r *Role) StepBack() error {
	r.mu.Lock()
	r.substituting = false
	r.currentTask = ""
	r.mu.Unlock()

	err := r.store.SetAgentState(models.AgentState{
		AgentID: r.agentID,
		Role:    r.name,
		Status:  models.StatusMonitoring,
	})
	if err != nil {
		return fmt.Errorf("step back: %w", err)
	}
	return r.store.Logf(r.agentID, "Returning to support role")
}

// MonitorReport summarizes one monitoring pass.
type MonitorReport struct {
	TargetStatus models.AgentStatus
	IssuesFound  int
	Substituted  bool
}

// Monitor inspects the target agent's published state. A coding
// target gets its recent logs scanned for trouble; a resting target
// with a held task triggers substitution.
func (r *Role) Monitor(targetID string) (*MonitorReport, error) {
	if !r.caps.CanReadLogs {
		return nil, fmt.Errorf("role %s cannot monitor", r.name)
	}

	target, err := r.store.GetAgentState(targetID)
	if err != nil {
		return nil, fmt.Errorf("monitor %s: %w", targetID, err)
	}
	report := &MonitorReport{TargetStatus: target.Status}

	switch target.Status {
	case models.StatusCoding:
		logs, err := r.store.TailLog(20)
		if err != nil {
			return nil, fmt.Errorf("monitor %s: %w", targetID, err)
		}
		for _, e := range logs {
			if e.Level == models.LogWarning || e.Level == models.LogError {
				report.IssuesFound++
			}
		}
	case models.StatusResting:
		if target.CurrentTask != "" && !r.Substituting() {
			if err := r.Substitute(target.CurrentTask); err != nil {
				return nil, err
			}
			report.Substituted = true
		}
	}
	return report, nil
}

// SuggestImprovements asks the inference layer to review code. When
// every provider is down the pass is skipped rather than failed; the
// work itself is not blocked on advice.
func (r *Role) SuggestImprovements(ctx context.Context, code, about string) (string, error) {
	if err := r.store.Logf(r.agentID, "Analyzing code for improvements: %s", about); err != nil {
		return "", err
	}

	res, err := r.infer.Generate(ctx, inference.Request{
		System: "You review code. List concrete improvements, one per line. Be terse.",
		Prompt: fmt.Sprintf("Context: %s\n\nCode:\n%s", about, code),
	})
	if err != nil {
		if errors.Is(err, inference.ErrAllProvidersUnavailable) {
			r.store.AppendLog(r.agentID, models.LogWarning, "Improvement pass skipped: no provider available")
			return "", nil
		}
		return "", fmt.Errorf("suggest improvements: %w", err)
	}

	if _, err := r.store.AppendConversation(r.agentID, "assistant", "Suggested improvements: "+res.Response); err != nil {
		return "", err
	}
	return res.Response, nil
}

// AssistWithBug produces and records a solution for a filed bug.
// Provider outage degrades to a generic checklist so the bug still
// gets a recorded solution.
func (r *Role) AssistWithBug(ctx context.Context, bugID int64) (string, error) {
	if err := r.store.Logf(r.agentID, "Assisting with bug #%d", bugID); err != nil {
		return "", err
	}

	bug, err := r.store.GetBug(bugID)
	if err != nil {
		return "", fmt.Errorf("assist with bug: %w", err)
	}

	var logContext string
	if r.caps.CanReadLogs {
		logs, err := r.store.TailLog(100)
		if err != nil {
			return "", fmt.Errorf("assist with bug: %w", err)
		}
		var sb strings.Builder
		for _, e := range logs {
			sb.WriteString(string(e.Level))
			sb.WriteString(" ")
			sb.WriteString(e.Message)
			sb.WriteString("\n")
		}
		logContext = sb.String()
	}

	solution := fmt.Sprintf("Check input validation and edge cases around: %s", bug.Description)
	res, err := r.infer.Generate(ctx, inference.Request{
		System: "You debug software. Propose one concrete fix. Be terse.",
		Prompt: fmt.Sprintf("Bug: %s\nContext: %s\nRecent log:\n%s", bug.Description, bug.Context, logContext),
	})
	if err == nil {
		solution = res.Response
	} else if !errors.Is(err, inference.ErrAllProvidersUnavailable) {
		return "", fmt.Errorf("assist with bug: %w", err)
	}

	if _, err := r.store.RecordSolution(r.agentID, bugID, solution); err != nil {
		return "", fmt.Errorf("assist with bug: %w", err)
	}
	return solution, nil
}
