package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/triad-agents/triad/internal/orchestrator"
	"github.com/triad-agents/triad/pkg/models"
)

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		ev   orchestrator.Event
		want string
	}{
		{
			"spawn",
			orchestrator.Event{Type: orchestrator.EventTeamSpawned, TeamID: "team-abc", Timestamp: ts},
			"spawned team-abc",
		},
		{
			"substitution",
			orchestrator.Event{Type: orchestrator.EventSubstitution, AgentID: "reviewer", Message: "fix auth", Timestamp: ts},
			"reviewer substituting: fix auth",
		},
		{
			"health",
			orchestrator.Event{Type: orchestrator.EventHealthReport, Health: models.HealthWarning, Timestamp: ts},
			"health: warning",
		},
		{
			"intervention",
			orchestrator.Event{Type: orchestrator.EventIntervention, Timestamp: ts},
			"INTERVENTION REQUIRED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatEvent(tt.ev)
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatEvent() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestDashboard_EventWindowBounded(t *testing.T) {
	d := &Dashboard{}
	for i := 0; i < 20; i++ {
		model, _ := d.Update(eventMsg(orchestrator.Event{
			Type:      orchestrator.EventPhaseChanged,
			Timestamp: time.Now(),
		}))
		d = model.(*Dashboard)
	}
	if len(d.recent) > 8 {
		t.Errorf("recent events = %d, want at most 8", len(d.recent))
	}
}
