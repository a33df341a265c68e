// Package exec runs external commands as executor steps.
package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/triad-agents/triad/internal/roles"
)

// maxStepOutput bounds what a step feeds back into the task result.
const maxStepOutput = 4096

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes a shell command through "sh -c".
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)
}

// Runner implements CommandRunner using os/exec.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *Runner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunShell executes a shell command through "sh -c".
func (r *Runner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	return r.Run(ctx, workDir, "sh", "-c", command)
}

// Verify Runner implements CommandRunner at compile time.
var _ CommandRunner = (*Runner)(nil)

// ShellStep adapts a shell command into an executor step. The command's
// combined output becomes the step output; a non-zero exit becomes the
// step failure, with the output tail folded into the error so the filed
// bug carries it.
func ShellStep(runner CommandRunner, workDir, command string) roles.StepFunc {
	return func(ctx context.Context) (string, error) {
		out, err := runner.RunShell(ctx, workDir, command)
		output := truncate(strings.TrimSpace(string(out)), maxStepOutput)
		if err != nil {
			if output != "" {
				return output, fmt.Errorf("%s: %s", err, tail(output, 256))
			}
			return output, err
		}
		return output, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
