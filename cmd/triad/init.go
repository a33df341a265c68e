package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a project for Triad",
	Long: `Initialize a directory for use with Triad.

This creates a .triad.yaml project config seeded with the current
defaults. The project config overrides the user config in
~/.config/triad/config.yaml; either file can be edited afterwards.

The directory argument is optional and defaults to the current
directory.

Examples:
  triad init              # Initialize current directory
  triad init ./myproject  # Initialize specific directory
  triad init --force      # Overwrite an existing .triad.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing .triad.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	configPath := filepath.Join(absPath, ".triad.yaml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Println("Project already initialized. Use --force to overwrite .triad.yaml.")
		return nil
	}

	if err := writeProjectConfig(configPath, filepath.Base(absPath)); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	printStatus("✓", "Created .triad.yaml", color.FgGreen)

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review .triad.yaml and point inference at your providers")
	fmt.Println("  2. Run a task:")
	fmt.Println("     triad run \"your task here\"")
	fmt.Println("  3. Watch it live:")
	fmt.Println("     triad dash")
	return nil
}

// writeProjectConfig seeds a .triad.yaml with the stock provider chain
// and the directory name as the workspace.
func writeProjectConfig(path, workspace string) error {
	starter := map[string]any{
		"data": map[string]any{
			"workspace": workspace,
		},
		"spawning": map[string]any{
			"max_teams": 10,
		},
		"inference": map[string]any{
			"primary": map[string]any{
				"type":     "ollama",
				"model":    "qwen3:8b",
				"base_url": "http://localhost:11434",
			},
			"backups":         []any{},
			"attempt_timeout": "60s",
		},
		"dual_layer": map[string]any{
			"enabled": false,
			"primary": map[string]any{
				"type":     "vllm",
				"model":    "Qwen/Qwen2.5-7B-Instruct",
				"base_url": "http://localhost:8000",
			},
		},
	}

	data, err := yaml.Marshal(starter)
	if err != nil {
		return err
	}
	header := "# Triad project configuration.\n# Overrides ~/.config/triad/config.yaml for this directory tree.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
