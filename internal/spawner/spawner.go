// Package spawner creates additional agent teams to match task
// complexity. Each spawned team gets its own namespaced store with a
// fresh role triple; admission is bounded by a process-wide cap.
package spawner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/triad-agents/triad/internal/complexity"
	"github.com/triad-agents/triad/internal/license"
	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

// DefaultMaxTeams is the process-wide spawn cap.
const DefaultMaxTeams = 10

// TeamCounter is the shared admission counter. One counter serves the
// whole process so nested spawners cannot overshoot the cap together.
type TeamCounter struct {
	mu     sync.Mutex
	active int
	max    int
}

// NewTeamCounter returns a counter with the given cap; max <= 0 uses
// the default.
func NewTeamCounter(max int) *TeamCounter {
	if max <= 0 {
		max = DefaultMaxTeams
	}
	return &TeamCounter{max: max}
}

// tryAcquire admits one team if the cap allows it. Check and
// increment happen in one critical section.
func (c *TeamCounter) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active >= c.max {
		return false
	}
	c.active++
	return true
}

// release returns one admission slot.
func (c *TeamCounter) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active > 0 {
		c.active--
	}
}

// Active returns the number of admitted teams.
func (c *TeamCounter) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Spawner creates teams on behalf of one workspace.
type Spawner struct {
	store   *state.Store
	baseDir string
	counter *TeamCounter
	lic     license.Checker
}

// New returns a spawner writing its registry to store and creating
// team stores under baseDir.
func New(store *state.Store, baseDir string, counter *TeamCounter, lic license.Checker) *Spawner {
	return &Spawner{store: store, baseDir: baseDir, counter: counter, lic: lic}
}

// Spawn creates one team for the task. A cap-exceeded or unlicensed
// request is denied (ok=false), not an error; errors are reserved for
// storage failures.
func (s *Spawner) Spawn(task, parentID, teamWorkspace string) (teamID string, ok bool, err error) {
	if !s.lic.HasCapability(license.CapTeamSpawning) {
		s.store.AppendLog("spawner", models.LogWarning, "spawn denied: not licensed for team spawning")
		return "", false, nil
	}
	if !s.counter.tryAcquire() {
		s.store.Logf("spawner", "Max teams reached (%d), not spawning", s.counter.max)
		return "", false, nil
	}

	teamID = "team-" + uuid.New().String()[:8]
	if teamWorkspace == "" {
		teamWorkspace = s.store.Workspace() + "-" + teamID
	}

	// Any storage failure returns the admission slot.
	fail := func(e error) (string, bool, error) {
		s.counter.release()
		return "", false, e
	}

	if _, err := s.store.RegisterSpawn(parentID, teamID, task); err != nil {
		return fail(fmt.Errorf("spawn %s: %w", teamID, err))
	}

	teamStore, err := state.Open(s.baseDir, teamWorkspace)
	if err != nil {
		return fail(fmt.Errorf("spawn %s: %w", teamID, err))
	}
	defer teamStore.Close()

	roles := map[models.RoleName]models.AgentStatus{
		models.RoleExecutor:   models.StatusActive,
		models.RoleReviewer:   models.StatusMonitoring,
		models.RoleArbitrator: models.StatusStandby,
	}
	if err := teamStore.InitRoles(roles); err != nil {
		return fail(fmt.Errorf("spawn %s: %w", teamID, err))
	}

	cfg := &models.TeamConfig{
		TeamID:          teamID,
		ParentWorkspace: s.store.Workspace(),
		Workspace:       teamWorkspace,
		Task:            task,
		SpawnedBy:       parentID,
		SpawnedAt:       time.Now().UTC(),
		Roles:           roles,
	}
	if err := s.store.SaveTeamConfig(cfg); err != nil {
		return fail(fmt.Errorf("spawn %s: %w", teamID, err))
	}

	if err := s.store.Logf("spawner", "Spawned team %s for task: %s", teamID, task); err != nil {
		return fail(err)
	}
	return teamID, true, nil
}

// SpawnForTask scores the descriptor and spawns exactly the needed
// number of teams. Team i takes the i-th declared subtask; teams past
// the last subtask get a synthesized placeholder. Denied spawns end
// the sequence early.
func (s *Spawner) SpawnForTask(task *models.TaskDescriptor, parentID string) ([]string, error) {
	_, teamsNeeded, err := complexity.Assess(task)
	if err != nil {
		return nil, fmt.Errorf("spawn for task: %w", err)
	}
	if teamsNeeded == 0 {
		s.store.Logf("spawner", "Task complexity low, no extra teams needed")
		return nil, nil
	}

	var teamIDs []string
	for i := 0; i < teamsNeeded; i++ {
		subtask := fmt.Sprintf("parallel work %d", i+1)
		if i < len(task.Subtasks) {
			subtask = task.Subtasks[i]
		}
		teamID, ok, err := s.Spawn(subtask, parentID, "")
		if err != nil {
			return teamIDs, err
		}
		if !ok {
			break
		}
		teamIDs = append(teamIDs, teamID)
	}
	return teamIDs, nil
}

// Terminate deregisters a team from the active registry and frees its
// admission slot. The slot is freed only when an active record actually
// flipped: terminating an unknown or already-terminated team must not
// hand out admissions that were never held. The team's own orchestrator
// remains responsible for cleaning up whatever it still holds.
func (s *Spawner) Terminate(teamID string) error {
	terminated, err := s.store.MarkSpawnTerminated(teamID)
	if err != nil {
		return fmt.Errorf("terminate %s: %w", teamID, err)
	}
	if !terminated {
		return fmt.Errorf("terminate %s: no active spawn record", teamID)
	}
	s.counter.release()
	return s.store.Logf("spawner", "Terminated team %s", teamID)
}

// TeamStatus returns the persisted descriptor for a spawned team, or
// nil if the team is unknown.
func (s *Spawner) TeamStatus(teamID string) (*models.TeamConfig, error) {
	return s.store.GetTeamConfig(teamID)
}

// Teams returns all spawn records for this workspace.
func (s *Spawner) Teams() ([]models.SpawnRecord, error) {
	return s.store.ListSpawns()
}
