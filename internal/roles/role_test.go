package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

// stubProvider answers every generation with a fixed response, or
// plays dead when down.
type stubProvider struct {
	response string
	down     bool
}

func (s *stubProvider) Name() string                   { return "stub" }
func (s *stubProvider) Available(context.Context) bool { return !s.down }

func (s *stubProvider) Generate(context.Context, inference.Request) (string, error) {
	if s.down {
		return "", errors.New("stub down")
	}
	return s.response, nil
}

type fixture struct {
	store      *state.Store
	executor   *Role
	reviewer   *Role
	arbitrator *Role
}

func setup(t *testing.T, provider *stubProvider) *fixture {
	t.Helper()
	s, err := state.Open(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	infer := inference.NewFailover(provider)
	return &fixture{
		store:      s,
		executor:   NewExecutor(s, infer),
		reviewer:   NewReviewer(s, infer),
		arbitrator: NewArbitrator(s, infer),
	}
}

func TestExecutorCannotReadLogs(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if _, err := f.executor.ReadLogs(10); err == nil {
		t.Error("executor must be refused log access")
	}
	if _, err := f.reviewer.ReadLogs(10); err != nil {
		t.Errorf("reviewer should read logs: %v", err)
	}
}

func TestRunStep_Success(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.executor.StartTask("build parser"); err != nil {
		t.Fatalf("StartTask: %v", err)
	}

	res := f.executor.RunStep(context.Background(), "write tokenizer", func(context.Context) (string, error) {
		return "tokenizer done", nil
	})
	if !res.Success {
		t.Fatalf("step failed: %+v", res)
	}
	if f.executor.NeedsHelp() {
		t.Error("successful step should not flag help")
	}

	conv, err := f.store.Conversation()
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	// Start message plus completion message.
	if len(conv) != 2 {
		t.Errorf("conversation entries = %d, want 2", len(conv))
	}
}

func TestRunStep_FailureFilesBugAndFlagsHelp(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.executor.StartTask("build parser"); err != nil {
		t.Fatalf("StartTask: %v", err)
	}

	res := f.executor.RunStep(context.Background(), "write tokenizer", func(context.Context) (string, error) {
		return "", errors.New("syntax explosion")
	})
	if res.Success {
		t.Fatal("step should report failure")
	}
	if res.Err != "syntax explosion" {
		t.Errorf("error text = %q", res.Err)
	}
	if !res.NeedsHelp || !f.executor.NeedsHelp() {
		t.Error("failed step must flag help")
	}

	bug, err := f.store.GetBug(res.BugID)
	if err != nil {
		t.Fatalf("bug not filed: %v", err)
	}
	if bug.Description != "syntax explosion" {
		t.Errorf("bug description = %q", bug.Description)
	}
}

func TestBreakTriggersSubstitutionWithExactTask(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.executor.StartTask("implement fibonacci"); err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if err := f.executor.TakeBreak(); err != nil {
		t.Fatalf("TakeBreak: %v", err)
	}

	report, err := f.reviewer.Monitor(f.executor.ID())
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if !report.Substituted {
		t.Fatal("reviewer should substitute for a resting executor")
	}
	if got := f.reviewer.CurrentTask(); got != "implement fibonacci" {
		t.Errorf("substitute picked up task %q, want the exact resting task", got)
	}

	st, _ := f.store.GetAgentState(f.reviewer.ID())
	if st.Status != models.StatusSubstituting {
		t.Errorf("reviewer status = %q, want substituting", st.Status)
	}
}

func TestMonitor_NoDoubleSubstitution(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.executor.StartTask("task one"); err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if err := f.executor.TakeBreak(); err != nil {
		t.Fatalf("TakeBreak: %v", err)
	}

	if _, err := f.reviewer.Monitor(f.executor.ID()); err != nil {
		t.Fatalf("first Monitor: %v", err)
	}
	report, err := f.reviewer.Monitor(f.executor.ID())
	if err != nil {
		t.Fatalf("second Monitor: %v", err)
	}
	if report.Substituted {
		t.Error("already-substituting reviewer must not substitute again")
	}
}

func TestStepBack(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.reviewer.Substitute("cover the task"); err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if err := f.reviewer.StepBack(); err != nil {
		t.Fatalf("StepBack: %v", err)
	}
	if f.reviewer.Substituting() {
		t.Error("StepBack should clear the substitution flag")
	}
	st, _ := f.store.GetAgentState(f.reviewer.ID())
	if st.Status != models.StatusMonitoring {
		t.Errorf("status = %q, want monitoring", st.Status)
	}
}

func TestMonitor_CountsIssuesWhileCoding(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if err := f.executor.StartTask("task"); err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	f.store.AppendLog(f.executor.ID(), models.LogWarning, "slow query")
	f.store.AppendLog(f.executor.ID(), models.LogError, "panic in handler")
	f.store.AppendLog(f.executor.ID(), models.LogInfo, "still going")

	report, err := f.reviewer.Monitor(f.executor.ID())
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if report.IssuesFound != 2 {
		t.Errorf("issues = %d, want 2", report.IssuesFound)
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name     string
		errors   int
		warnings int
		want     models.HealthLevel
	}{
		{"healthy", 0, 0, models.HealthHealthy},
		{"warnings under threshold", 0, 10, models.HealthHealthy},
		{"warning", 0, 11, models.HealthWarning},
		{"errors under threshold", 5, 0, models.HealthHealthy},
		{"critical", 6, 0, models.HealthCritical},
		{"critical beats warning", 6, 20, models.HealthCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, &stubProvider{response: "ok"})
			for i := 0; i < tt.errors; i++ {
				f.store.AppendLog("executor", models.LogError, "err")
			}
			for i := 0; i < tt.warnings; i++ {
				f.store.AppendLog("executor", models.LogWarning, "warn")
			}

			d, err := f.arbitrator.Diagnose()
			if err != nil {
				t.Fatalf("Diagnose: %v", err)
			}
			if d.Health != tt.want {
				t.Errorf("health = %q, want %q", d.Health, tt.want)
			}
			if d.Errors != tt.errors || d.Warnings != tt.warnings {
				t.Errorf("counts = %d/%d, want %d/%d", d.Errors, d.Warnings, tt.errors, tt.warnings)
			}
		})
	}
}

func TestSettleDispute(t *testing.T) {
	f := setup(t, &stubProvider{response: "go with recursion"})

	ruling, err := f.arbitrator.SettleDispute(context.Background(),
		"use recursion", "use iteration", "fibonacci strategy")
	if err != nil {
		t.Fatalf("SettleDispute: %v", err)
	}
	if ruling.Decision != "go with recursion" {
		t.Errorf("decision = %q", ruling.Decision)
	}

	decs, err := f.store.Decisions()
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decs) != 1 {
		t.Fatalf("decisions recorded = %d, want 1", len(decs))
	}
}

func TestSettleDispute_ProviderOutageFallsBack(t *testing.T) {
	f := setup(t, &stubProvider{down: true})

	ruling, err := f.arbitrator.SettleDispute(context.Background(), "a", "b", "ctx")
	if err != nil {
		t.Fatalf("SettleDispute should degrade, got: %v", err)
	}
	if ruling.Decision == "" {
		t.Error("fallback ruling must carry a decision")
	}
	decs, _ := f.store.Decisions()
	if len(decs) != 1 {
		t.Error("fallback ruling must still be recorded")
	}
}

func TestSettleDispute_NonArbitratorRefused(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if _, err := f.reviewer.SettleDispute(context.Background(), "a", "b", "ctx"); err == nil {
		t.Error("reviewer must not settle disputes")
	}
}

func TestAssistWithBug_ResolvesEvenWhenProvidersDown(t *testing.T) {
	f := setup(t, &stubProvider{down: true})

	bugID, err := f.store.RecordBug("executor", "off by one", "")
	if err != nil {
		t.Fatalf("RecordBug: %v", err)
	}

	solution, err := f.reviewer.AssistWithBug(context.Background(), bugID)
	if err != nil {
		t.Fatalf("AssistWithBug: %v", err)
	}
	if solution == "" {
		t.Error("fallback solution must not be empty")
	}

	bug, err := f.store.GetBug(bugID)
	if err != nil {
		t.Fatalf("GetBug: %v", err)
	}
	if !bug.Resolved {
		t.Error("bug should be resolved after assistance")
	}
}

func TestAssistWithBug_UnknownBug(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	_, err := f.reviewer.AssistWithBug(context.Background(), 404)
	if !errors.Is(err, state.ErrBugNotFound) {
		t.Errorf("err = %v, want ErrBugNotFound", err)
	}
}

func TestCureBug(t *testing.T) {
	f := setup(t, &stubProvider{response: "race in shared access; add locking"})

	bugID, err := f.store.RecordBug("executor", "intermittent corruption", "")
	if err != nil {
		t.Fatalf("RecordBug: %v", err)
	}

	cure, err := f.arbitrator.CureBug(context.Background(), bugID)
	if err != nil {
		t.Fatalf("CureBug: %v", err)
	}
	if cure.BugID != bugID {
		t.Errorf("cure bug id = %d", cure.BugID)
	}
	bug, _ := f.store.GetBug(bugID)
	if !bug.Resolved {
		t.Error("cured bug should be resolved")
	}
}

func TestCureBug_ReviewerRefused(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})
	if _, err := f.reviewer.CureBug(context.Background(), 1); err == nil {
		t.Error("reviewer must not run deep cures")
	}
}

func TestEmergencyCommand(t *testing.T) {
	f := setup(t, &stubProvider{response: "ok"})

	if err := f.executor.EmergencyCommand("restart", "stuck"); err == nil {
		t.Error("executor must not run emergency commands")
	}
	if err := f.arbitrator.EmergencyCommand("restart worker", "stuck in loop"); err != nil {
		t.Fatalf("EmergencyCommand: %v", err)
	}

	logs, err := f.store.TailLog(10)
	if err != nil {
		t.Fatalf("TailLog: %v", err)
	}
	var found bool
	for _, e := range logs {
		if e.Level == models.LogWarning {
			found = true
		}
	}
	if !found {
		t.Error("emergency command must log at warning level")
	}
}

func TestSuggestImprovements_SkippedOnOutage(t *testing.T) {
	f := setup(t, &stubProvider{down: true})

	got, err := f.reviewer.SuggestImprovements(context.Background(), "func f() {}", "stub code")
	if err != nil {
		t.Fatalf("SuggestImprovements should skip on outage, got: %v", err)
	}
	if got != "" {
		t.Errorf("skipped pass should return empty suggestions, got %q", got)
	}
}
