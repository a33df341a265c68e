// Package models contains the shared domain types for Triad: task
// descriptors, agent and team state, and the ledger entry types persisted
// by the workspace store.
package models

import (
	"fmt"
	"strings"
)

// Difficulty is the declared technical difficulty of a task.
type Difficulty string

const (
	// DifficultyLow marks routine work.
	DifficultyLow Difficulty = "low"
	// DifficultyMedium marks typical feature work.
	DifficultyMedium Difficulty = "medium"
	// DifficultyHigh marks work that needs careful design.
	DifficultyHigh Difficulty = "high"
)

// Valid returns true if the difficulty is a known value.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyLow, DifficultyMedium, DifficultyHigh:
		return true
	default:
		return false
	}
}

// TaskDescriptor declares a unit of work handed to a team.
// It is immutable once scored: the complexity assessor reads it, never
// writes it.
type TaskDescriptor struct {
	// Description is the human-readable summary of the task.
	Description string `json:"description" yaml:"description"`
	// Subtasks lists declared subtasks in order. The i-th spawned team
	// is assigned the i-th subtask.
	Subtasks []string `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
	// EstimatedHours is the declared effort estimate.
	EstimatedHours float64 `json:"estimated_hours" yaml:"estimated_hours"`
	// Dependencies names external systems or tasks this work depends on.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// Difficulty is the declared difficulty band.
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	// UserInput is free-text input from the user, forwarded to the
	// executor's context buffer.
	UserInput string `json:"user_input,omitempty" yaml:"user_input,omitempty"`
	// UserDocs is supporting documentation text from the user.
	UserDocs string `json:"user_docs,omitempty" yaml:"user_docs,omitempty"`
}

// Validate checks the descriptor for malformed fields.
func (t *TaskDescriptor) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task descriptor: description is required")
	}
	if t.EstimatedHours < 0 {
		return fmt.Errorf("task descriptor: estimated_hours must be non-negative, got %v", t.EstimatedHours)
	}
	if t.Difficulty == "" {
		return fmt.Errorf("task descriptor: difficulty is required")
	}
	if !t.Difficulty.Valid() {
		return fmt.Errorf("task descriptor: unknown difficulty %q", t.Difficulty)
	}
	for i, s := range t.Subtasks {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("task descriptor: subtask %d is empty", i+1)
		}
	}
	return nil
}
