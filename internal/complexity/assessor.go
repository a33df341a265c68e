// Package complexity scores task descriptors and maps scores to team
// counts. Scoring is a fixed arithmetic formula over declared task
// attributes: the same descriptor always produces the same score.
package complexity

import (
	"fmt"

	"github.com/triad-agents/triad/pkg/models"
)

// MaxExtraTeams is the flat ceiling on additional teams a single task can
// request, regardless of how large its score grows.
const MaxExtraTeams = 3

// Score computes the integer complexity score for a descriptor:
// subtask count + duration band + dependency count + difficulty weight.
func Score(d *models.TaskDescriptor) int {
	return len(d.Subtasks) + durationBand(d.EstimatedHours) + len(d.Dependencies) + difficultyWeight(d.Difficulty)
}

// TeamsNeeded maps a complexity score to the number of additional teams
// to spawn. The mapping is monotonic non-decreasing and capped at
// MaxExtraTeams.
func TeamsNeeded(score int) int {
	switch {
	case score <= 3:
		return 0
	case score <= 7:
		return 1
	case score <= 12:
		return 2
	default:
		return MaxExtraTeams
	}
}

// Assess validates a descriptor and returns its score and team count.
func Assess(d *models.TaskDescriptor) (score, teams int, err error) {
	if err := d.Validate(); err != nil {
		return 0, 0, fmt.Errorf("assess task: %w", err)
	}
	score = Score(d)
	return score, TeamsNeeded(score), nil
}

// durationBand contributes +2 for estimates over 8 hours and +1 for
// estimates over 4 hours.
func durationBand(hours float64) int {
	switch {
	case hours > 8:
		return 2
	case hours > 4:
		return 1
	default:
		return 0
	}
}

// difficultyWeight contributes +3 for high, +1 for medium, 0 for low.
func difficultyWeight(d models.Difficulty) int {
	switch d {
	case models.DifficultyHigh:
		return 3
	case models.DifficultyMedium:
		return 1
	default:
		return 0
	}
}
