package main

import (
	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/tui"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the live workspace dashboard",
	Long: `Open a terminal dashboard for a workspace.

The dashboard shows agent states, spawned teams, provider availability
and recent orchestrator events, refreshed once a second. Press q to
quit.`,
	RunE: runDash,
}

func runDash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer orch.Close()

	return tui.Run(orch)
}
