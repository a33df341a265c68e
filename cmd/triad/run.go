package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/triad-agents/triad/internal/exec"
	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/orchestrator"
	"github.com/triad-agents/triad/pkg/models"
)

var (
	runSubtasks   []string
	runHours      float64
	runDeps       []string
	runDifficulty string
	runInput      string
	runDocs       string
	runDual       bool
	runStepCmd    string
	runFile       string
)

var runCmd = &cobra.Command{
	Use:   "run <task description>",
	Short: "Run a task through the team",
	Long: `Run a task through the full orchestration sequence.

The task is scored for complexity; high scores spawn helper teams, one
per declared subtask where available. The executor then works the task,
the reviewer monitors, and the arbitrator diagnoses system health at
the end of the run.

Examples:
  triad run "add pagination to the users endpoint"
  triad run "rebuild the billing pipeline" --hours 16 --difficulty high \
      --subtask "extract invoicing" --subtask "migrate webhooks"
  triad run "refactor auth" --dual   # observe with the shadow layer
  triad run --file task.yaml         # full descriptor from YAML`,
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runSubtasks, "subtask", nil, "Declared subtask (repeatable, assigned to spawned teams in order)")
	runCmd.Flags().Float64Var(&runHours, "hours", 1, "Estimated effort in hours")
	runCmd.Flags().StringArrayVar(&runDeps, "dep", nil, "External dependency (repeatable)")
	runCmd.Flags().StringVar(&runDifficulty, "difficulty", "medium", "Task difficulty: low, medium or high")
	runCmd.Flags().StringVar(&runInput, "input", "", "Free-text user input forwarded to the executor")
	runCmd.Flags().StringVar(&runDocs, "docs", "", "Supporting documentation text")
	runCmd.Flags().BoolVar(&runDual, "dual", false, "Enable the shadow observation layer (requires a pro license)")
	runCmd.Flags().StringVar(&runStepCmd, "cmd", "", "Shell command the executor runs as its step (failure files a bug)")
	runCmd.Flags().StringVar(&runFile, "file", "", "Read the task descriptor from a YAML file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runDual {
		cfg.DualLayer.Enabled = true
	}

	task, err := buildTask(args)
	if err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	if runStepCmd != "" {
		opts.Step = exec.ShellStep(exec.NewRunner(), "", runStepCmd)
	}

	var result *orchestrator.TaskResult
	if cfg.DualLayer.Enabled {
		shadowInfer, serr := inference.NewFailoverFromConfig(cfg.DualLayer.Primary, cfg.DualLayer.Backups)
		if serr != nil {
			return fmt.Errorf("build shadow inference chain: %w", serr)
		}
		dual, derr := orchestrator.NewDual(opts, shadowInfer)
		if derr != nil {
			return derr
		}
		defer dual.Close()
		if err := dual.Start(); err != nil {
			return err
		}

		if dual.ShadowEnabled() {
			fmt.Println("Shadow layer observing.")
		} else {
			printStatus("⚠", "Shadow layer unavailable, running primary only", color.FgYellow)
		}
		result = dual.ExecuteTask(ctx, task)
		printShadowFindings(dual)
	} else {
		orch, oerr := orchestrator.New(opts)
		if oerr != nil {
			return oerr
		}
		defer orch.Close()
		result = orch.ExecuteTask(ctx, task)
	}

	printResult(result)
	if result.Err != "" {
		return fmt.Errorf("task did not complete cleanly: %s", result.Err)
	}
	return nil
}

// buildTask assembles the descriptor from --file or flags. Positional
// args override the file's description so a saved descriptor can be
// reused for variants.
func buildTask(args []string) (*models.TaskDescriptor, error) {
	if runFile == "" {
		return &models.TaskDescriptor{
			Description:    strings.Join(args, " "),
			Subtasks:       runSubtasks,
			EstimatedHours: runHours,
			Dependencies:   runDeps,
			Difficulty:     models.Difficulty(runDifficulty),
			UserInput:      runInput,
			UserDocs:       runDocs,
		}, nil
	}

	data, err := os.ReadFile(runFile)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	task := &models.TaskDescriptor{}
	if err := yaml.Unmarshal(data, task); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", runFile, err)
	}
	if len(args) > 0 {
		task.Description = strings.Join(args, " ")
	}
	return task, nil
}

func printResult(result *orchestrator.TaskResult) {
	fmt.Println()
	fmt.Printf("Task: %s\n", result.Task)
	fmt.Printf("Complexity score: %d\n", result.Score)

	if len(result.SpawnedTeams) > 0 {
		printStatus("✓", fmt.Sprintf("Spawned %d helper team(s): %s",
			len(result.SpawnedTeams), strings.Join(result.SpawnedTeams, ", ")), color.FgGreen)
	}

	if result.Err == "" {
		printStatus("✓", "Execution completed", color.FgGreen)
	} else {
		printStatus("✗", "Execution failed: "+result.Err, color.FgRed)
	}
	if result.StepOutput != "" {
		fmt.Printf("Output: %s\n", result.StepOutput)
	}

	if result.Health != nil {
		symbol, attr := healthMark(result.Health.Health)
		printStatus(symbol, fmt.Sprintf("Health: %s (%d errors, %d warnings)",
			result.Health.Health, result.Health.Errors, result.Health.Warnings), attr)
	}
	if result.NeedsIntervention {
		printStatus("✗", "System health is critical: intervention required", color.FgRed)
	}
}

func printShadowFindings(dual *orchestrator.DualOrchestrator) {
	findings, err := dual.ShadowFindings(10)
	if err != nil || len(findings) == 0 {
		return
	}
	fmt.Println("\nShadow findings:")
	for _, entry := range findings {
		fmt.Printf("  [%s] %s\n", entry.Level, entry.Message)
	}
}

func healthMark(level models.HealthLevel) (string, color.Attribute) {
	switch level {
	case models.HealthCritical:
		return "✗", color.FgRed
	case models.HealthWarning:
		return "⚠", color.FgYellow
	default:
		return "✓", color.FgGreen
	}
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
