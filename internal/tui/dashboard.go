// Package tui provides the terminal dashboard for Triad. It shows
// agent states, spawned teams and provider health for one workspace,
// refreshed from orchestrator events and a periodic status poll.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/triad-agents/triad/internal/orchestrator"
	"github.com/triad-agents/triad/pkg/models"
)

// refreshInterval is the status poll cadence.
const refreshInterval = time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true).
			Padding(0, 1)

	healthStyles = map[models.HealthLevel]lipgloss.Style{
		models.HealthHealthy:  lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1")).Bold(true),
		models.HealthWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857")).Bold(true),
		models.HealthCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginTop(1)

	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// statusMsg carries a fresh status snapshot.
type statusMsg struct {
	status *orchestrator.SystemStatus
	err    error
}

// eventMsg wraps an orchestrator event.
type eventMsg orchestrator.Event

// tickMsg triggers the next status poll.
type tickMsg time.Time

// Dashboard is the bubbletea model for the workspace dashboard.
type Dashboard struct {
	orch        *orchestrator.Orchestrator
	agentTable  table.Model
	teamTable   table.Model
	status      *orchestrator.SystemStatus
	recent      []string
	width       int
	quitting    bool
	statusError string
}

// NewDashboard creates a dashboard for the orchestrator.
func NewDashboard(orch *orchestrator.Orchestrator) *Dashboard {
	agentTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Agent", Width: 12},
			{Title: "Status", Width: 14},
			{Title: "Task", Width: 36},
		}),
		table.WithHeight(5),
	)
	teamTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Team", Width: 14},
			{Title: "Status", Width: 12},
			{Title: "Task", Width: 36},
		}),
		table.WithHeight(6),
	)
	return &Dashboard{
		orch:       orch,
		agentTable: agentTable,
		teamTable:  teamTable,
	}
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.pollStatus, d.waitForEvent, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (d *Dashboard) pollStatus() tea.Msg {
	status, err := d.orch.Status(context.Background())
	return statusMsg{status: status, err: err}
}

func (d *Dashboard) waitForEvent() tea.Msg {
	ev, ok := <-d.orch.Events()
	if !ok {
		return nil
	}
	return eventMsg(ev)
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			return d, tea.Quit
		}
	case tea.WindowSizeMsg:
		d.width = msg.Width
	case tickMsg:
		return d, tea.Batch(d.pollStatus, tick())
	case statusMsg:
		if msg.err != nil {
			d.statusError = msg.err.Error()
		} else {
			d.statusError = ""
			d.status = msg.status
			d.refreshTables()
		}
	case eventMsg:
		d.recent = append(d.recent, formatEvent(orchestrator.Event(msg)))
		if len(d.recent) > 8 {
			d.recent = d.recent[len(d.recent)-8:]
		}
		return d, d.waitForEvent
	}
	return d, nil
}

func (d *Dashboard) refreshTables() {
	var agentRows []table.Row
	for _, role := range models.Roles() {
		st, ok := d.status.Agents[string(role)]
		if !ok {
			continue
		}
		agentRows = append(agentRows, table.Row{string(role), string(st.Status), st.CurrentTask})
	}
	d.agentTable.SetRows(agentRows)

	var teamRows []table.Row
	for _, team := range d.status.Teams {
		teamRows = append(teamRows, table.Row{team.SpawnedID, string(team.Status), team.Task})
	}
	d.teamTable.SetRows(teamRows)
}

func formatEvent(ev orchestrator.Event) string {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Type {
	case orchestrator.EventTeamSpawned:
		return fmt.Sprintf("%s spawned %s", ts, ev.TeamID)
	case orchestrator.EventSubstitution:
		return fmt.Sprintf("%s %s substituting: %s", ts, ev.AgentID, ev.Message)
	case orchestrator.EventHealthReport:
		return fmt.Sprintf("%s health: %s", ts, ev.Health)
	case orchestrator.EventIntervention:
		return fmt.Sprintf("%s INTERVENTION REQUIRED", ts)
	default:
		return fmt.Sprintf("%s %s %s", ts, ev.Type, ev.Message)
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}

	title := titleStyle.Render(fmt.Sprintf("triad - workspace %s", d.orch.Workspace()))

	var health string
	if d.status != nil && d.status.Health != nil {
		style, ok := healthStyles[d.status.Health.Health]
		if !ok {
			style = eventStyle
		}
		health = fmt.Sprintf("%s  phase %s  errors %d  warnings %d",
			style.Render(string(d.status.Health.Health)),
			d.status.Phase, d.status.Health.Errors, d.status.Health.Warnings)
	} else if d.statusError != "" {
		health = healthStyles[models.HealthCritical].Render("status unavailable: " + d.statusError)
	}

	var providers string
	if d.status != nil {
		for _, p := range d.status.Providers {
			mark := "down"
			if p.Available {
				mark = "up"
			}
			providers += fmt.Sprintf("  %s [%s, %d failures]", p.Name, mark, p.Failures)
		}
	}

	sections := []string{
		title,
		health,
		sectionStyle.Render("Agents"),
		borderStyle.Render(d.agentTable.View()),
		sectionStyle.Render("Spawned teams"),
		borderStyle.Render(d.teamTable.View()),
		sectionStyle.Render("Providers" + providers),
		sectionStyle.Render("Recent events"),
		eventStyle.Render(joinLines(d.recent)),
		eventStyle.Render("q to quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Run starts the dashboard and blocks until quit.
func Run(orch *orchestrator.Orchestrator) error {
	p := tea.NewProgram(NewDashboard(orch), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
