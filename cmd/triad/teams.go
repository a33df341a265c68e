package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

var (
	teamsAll       bool
	teamsTerminate string
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List spawned teams for a workspace",
	Long: `List the teams spawned from a workspace.

Spawn records are append-only: terminated teams stay in the registry
with a terminated status. By default only active teams are shown.
Termination deregisters the team only; its own workspace is left in
place.`,
	RunE: runTeams,
}

func init() {
	teamsCmd.Flags().BoolVar(&teamsAll, "all", false, "Include terminated teams")
	teamsCmd.Flags().StringVar(&teamsTerminate, "terminate", "", "Mark a team terminated by id")
}

func runTeams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := baseDir(cfg)
	dbPath := state.WorkspacePath(dir, cfg.Data.Workspace)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("Workspace %q has no state yet.\n", cfg.Data.Workspace)
		return nil
	}

	store, err := state.Open(dir, cfg.Data.Workspace)
	if err != nil {
		return err
	}
	defer store.Close()

	if teamsTerminate != "" {
		terminated, err := store.MarkSpawnTerminated(teamsTerminate)
		if err != nil {
			return err
		}
		if !terminated {
			return fmt.Errorf("no active team %q in workspace %s", teamsTerminate, cfg.Data.Workspace)
		}
		fmt.Printf("Terminated %s\n", teamsTerminate)
	}

	records, err := store.ListSpawns()
	if err != nil {
		return err
	}

	shown := 0
	for _, rec := range records {
		if !teamsAll && rec.Status != models.SpawnActive {
			continue
		}
		shown++
		fmt.Printf("%-14s %-11s %-20s %s\n",
			rec.SpawnedID, rec.Status, rec.CreatedAt.Format(time.DateTime), rec.Task)
	}
	if shown == 0 {
		fmt.Println("No teams to show.")
	}
	return nil
}
