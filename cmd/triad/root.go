package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/config"
	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/license"
	"github.com/triad-agents/triad/internal/orchestrator"
	"github.com/triad-agents/triad/internal/spawner"
	"github.com/triad-agents/triad/internal/state"
)

var (
	flagConfig    string
	flagWorkspace string
)

var rootCmd = &cobra.Command{
	Use:   "triad",
	Short: "Tri-agent task orchestrator",
	Long: `Triad runs a fixed team of three agents on a task: an executor that
implements, a reviewer that monitors and substitutes, and an arbitrator
that settles disputes and diagnoses health.

Complex tasks spawn additional teams, each with its own workspace and
role triple. Inference runs through a provider chain with automatic
failover; with a pro license a shadow layer on a second provider
cross-checks the primary.

Core capabilities:
- Scores task complexity and spawns helper teams for high scores
- Persists conversations, decisions, bugs and solutions per workspace
- Substitutes the reviewer in when the executor rests
- Diagnoses health from the shared log and escalates critical states
- Fails over between Ollama, vLLM, LiteLLM and Anthropic providers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a config file (default: user + project config)")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "Workspace name (default: from config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(licenseCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration honoring the --config and --workspace
// overrides shared by every subcommand.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFromPath(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flagWorkspace != "" {
		cfg.Data.Workspace = flagWorkspace
	}
	return cfg, nil
}

// baseDir resolves the workspace storage directory from config.
func baseDir(cfg *config.Config) string {
	if cfg.Data.Dir != "" {
		return cfg.Data.Dir
	}
	return state.DefaultBaseDir()
}

// buildOptions wires the full stack for one workspace: license,
// provider chain, spawn counter and debug logger.
func buildOptions(cfg *config.Config) (orchestrator.Options, error) {
	lic, err := license.NewManager()
	if err != nil {
		return orchestrator.Options{}, fmt.Errorf("load license: %w", err)
	}

	infer, err := inference.NewFailoverFromConfig(cfg.Inference.Primary, cfg.Inference.Backups)
	if err != nil {
		return orchestrator.Options{}, fmt.Errorf("build inference chain: %w", err)
	}
	if cfg.Inference.AttemptTimeout > 0 {
		infer.SetAttemptTimeout(cfg.Inference.AttemptTimeout)
	}

	dir := baseDir(cfg)
	return orchestrator.Options{
		BaseDir:   dir,
		Workspace: cfg.Data.Workspace,
		Infer:     infer,
		Counter:   spawner.NewTeamCounter(cfg.Spawning.MaxTeams),
		License:   lic,
		Logger:    orchestrator.NewDebugLoggerForWorkspace(dir, cfg.Data.Workspace),
	}, nil
}

func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(opts)
}
