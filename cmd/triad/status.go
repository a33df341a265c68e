package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace state",
	Long: `Display the current state of a workspace.

Shows:
  - The three fixed roles and their status
  - Spawned teams and their tasks
  - System health from the arbitrator's diagnosis
  - Provider availability and failure counts`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath := state.WorkspacePath(baseDir(cfg), cfg.Data.Workspace)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("Workspace %q has no state yet. Run 'triad run <task>' to start.\n", cfg.Data.Workspace)
		return nil
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer orch.Close()

	status, err := orch.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Workspace: %s\n", status.Workspace)
	fmt.Printf("Phase:     %s\n", status.Phase)

	fmt.Println("\nAgents:")
	for _, role := range models.Roles() {
		st, ok := status.Agents[string(role)]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-11s %s", role, st.Status)
		if st.CurrentTask != "" {
			line += "  " + st.CurrentTask
		}
		if !st.LastUpdated.IsZero() {
			line += fmt.Sprintf("  (updated %s ago)", formatDuration(time.Since(st.LastUpdated)))
		}
		fmt.Println(line)
	}

	if len(status.Teams) > 0 {
		fmt.Println("\nSpawned teams:")
		for _, team := range status.Teams {
			fmt.Printf("  %-14s %-11s %s\n", team.SpawnedID, team.Status, team.Task)
		}
	}

	if status.Health != nil {
		symbol, attr := healthMark(status.Health.Health)
		fmt.Println()
		printStatus(symbol, fmt.Sprintf("Health: %s (%d errors, %d warnings in recent log)",
			status.Health.Health, status.Health.Errors, status.Health.Warnings), attr)
	}

	fmt.Println("\nProviders:")
	for _, p := range status.Providers {
		mark := "down"
		if p.Available {
			mark = "up"
		}
		primary := ""
		if p.Primary {
			primary = " (primary)"
		}
		fmt.Printf("  %-24s %-4s failures=%d%s\n", p.Name, mark, p.Failures, primary)
	}
	return nil
}

// formatDuration renders a duration in the largest sensible unit.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}
