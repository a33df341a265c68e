package spawner

import (
	"strings"
	"sync"
	"testing"

	"github.com/triad-agents/triad/internal/license"
	"github.com/triad-agents/triad/internal/state"
	"github.com/triad-agents/triad/pkg/models"
)

// denyAll refuses every capability.
type denyAll struct{}

func (denyAll) HasCapability(string) bool { return false }

func setup(t *testing.T, maxTeams int) (*Spawner, *state.Store, string) {
	t.Helper()
	baseDir := t.TempDir()
	s, err := state.Open(baseDir, "parent")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, baseDir, NewTeamCounter(maxTeams), license.AllowAll{}), s, baseDir
}

func TestSpawn(t *testing.T) {
	sp, store, baseDir := setup(t, 10)

	teamID, ok, err := sp.Spawn("build auth", "executor", "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if !ok {
		t.Fatal("spawn denied under cap")
	}
	if !strings.HasPrefix(teamID, "team-") {
		t.Errorf("team id = %q", teamID)
	}

	// Registry entry in the parent store.
	spawns, err := store.ListSpawns()
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	if len(spawns) != 1 || spawns[0].SpawnedID != teamID {
		t.Errorf("spawn registry = %+v", spawns)
	}

	// Retrievable team descriptor.
	cfg, err := sp.TeamStatus(teamID)
	if err != nil {
		t.Fatalf("TeamStatus: %v", err)
	}
	if cfg == nil || cfg.Task != "build auth" || cfg.SpawnedBy != "executor" {
		t.Errorf("team config = %+v", cfg)
	}

	// Fresh role triple in the team workspace.
	teamStore, err := state.Open(baseDir, cfg.Workspace)
	if err != nil {
		t.Fatalf("open team store: %v", err)
	}
	defer teamStore.Close()
	states, err := teamStore.AgentStates()
	if err != nil {
		t.Fatalf("AgentStates: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("team agent states = %d, want 3", len(states))
	}
	if states[string(models.RoleExecutor)].Status != models.StatusActive {
		t.Errorf("executor status = %q, want active", states[string(models.RoleExecutor)].Status)
	}
}

func TestSpawn_CapDeniedNotError(t *testing.T) {
	sp, _, _ := setup(t, 2)

	for i := 0; i < 2; i++ {
		if _, ok, err := sp.Spawn("task", "executor", ""); err != nil || !ok {
			t.Fatalf("spawn %d under cap: ok=%v err=%v", i, ok, err)
		}
	}

	// The attempt immediately after reaching the cap.
	teamID, ok, err := sp.Spawn("one too many", "executor", "")
	if err != nil {
		t.Fatalf("cap-exceeded spawn must not error: %v", err)
	}
	if ok || teamID != "" {
		t.Errorf("spawn over cap = (%q, %v), want denied", teamID, ok)
	}
}

func TestSpawn_UnlicensedDenied(t *testing.T) {
	baseDir := t.TempDir()
	s, err := state.Open(baseDir, "parent")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	sp := New(s, baseDir, NewTeamCounter(10), denyAll{})
	_, ok, err := sp.Spawn("task", "executor", "")
	if err != nil {
		t.Fatalf("unlicensed spawn must not error: %v", err)
	}
	if ok {
		t.Error("unlicensed spawn must be denied")
	}
}

func TestSpawnForTask_SubtaskAssignment(t *testing.T) {
	sp, store, _ := setup(t, 10)

	// Score: 2 subtasks + 2 (16h) + 8 deps + 3 (high) = 15 → 3 teams.
	task := &models.TaskDescriptor{
		Description:    "big refactor",
		Subtasks:       []string{"A", "B"},
		EstimatedHours: 16,
		Dependencies:   []string{"db", "api", "frontend", "cache", "queue", "search", "auth", "billing"},
		Difficulty:     models.DifficultyHigh,
	}

	teamIDs, err := sp.SpawnForTask(task, "executor")
	if err != nil {
		t.Fatalf("SpawnForTask: %v", err)
	}
	if len(teamIDs) != 3 {
		t.Fatalf("spawned %d teams, want 3", len(teamIDs))
	}

	spawns, err := store.ListSpawns()
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	wantTasks := []string{"A", "B", "parallel work 3"}
	for i, want := range wantTasks {
		if spawns[i].Task != want {
			t.Errorf("team %d task = %q, want %q", i, spawns[i].Task, want)
		}
	}
}

func TestSpawnForTask_LowComplexityNoSpawn(t *testing.T) {
	sp, _, _ := setup(t, 10)

	task := &models.TaskDescriptor{
		Description:    "fix typo",
		Subtasks:       []string{"fix it"},
		EstimatedHours: 0.5,
		Difficulty:     models.DifficultyLow,
	}
	teamIDs, err := sp.SpawnForTask(task, "executor")
	if err != nil {
		t.Fatalf("SpawnForTask: %v", err)
	}
	if len(teamIDs) != 0 {
		t.Errorf("spawned %d teams for trivial task, want 0", len(teamIDs))
	}
}

func TestTerminateFreesSlot(t *testing.T) {
	sp, store, _ := setup(t, 1)

	teamID, ok, err := sp.Spawn("task", "executor", "")
	if err != nil || !ok {
		t.Fatalf("spawn: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := sp.Spawn("another", "executor", ""); ok {
		t.Fatal("second spawn should be denied at cap 1")
	}

	if err := sp.Terminate(teamID); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	// Slot freed, record kept.
	if _, ok, err := sp.Spawn("after terminate", "executor", ""); err != nil || !ok {
		t.Errorf("spawn after terminate: ok=%v err=%v", ok, err)
	}
	spawns, _ := store.ListSpawns()
	if len(spawns) != 2 {
		t.Errorf("registry records = %d, want 2 (append-only)", len(spawns))
	}
	if spawns[0].Status != models.SpawnTerminated {
		t.Errorf("terminated record status = %q", spawns[0].Status)
	}
}

func TestTerminate_RepeatAndUnknownDoNotFreeSlots(t *testing.T) {
	sp, store, _ := setup(t, 2)

	teamA, ok, err := sp.Spawn("task a", "executor", "")
	if err != nil || !ok {
		t.Fatalf("spawn a: ok=%v err=%v", ok, err)
	}
	if _, ok, err := sp.Spawn("task b", "executor", ""); err != nil || !ok {
		t.Fatalf("spawn b: ok=%v err=%v", ok, err)
	}

	if err := sp.Terminate(teamA); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	// Neither a repeat nor an unknown id holds a slot to free.
	if err := sp.Terminate(teamA); err == nil {
		t.Error("repeat terminate should error, the record is no longer active")
	}
	if err := sp.Terminate("team-nonexistent"); err == nil {
		t.Error("terminating an unknown team should error")
	}

	// Exactly one slot came back: one more spawn fits, the next is denied.
	if _, ok, err := sp.Spawn("task c", "executor", ""); err != nil || !ok {
		t.Fatalf("spawn c: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := sp.Spawn("task d", "executor", ""); ok {
		t.Fatal("spawn d should be denied at cap 2")
	}

	spawns, err := store.ListSpawns()
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	active := 0
	for _, rec := range spawns {
		if rec.Status == models.SpawnActive {
			active++
		}
	}
	if active > 2 {
		t.Errorf("active spawn records = %d, exceeds cap 2", active)
	}
}

func TestCounter_NoOvershootUnderConcurrency(t *testing.T) {
	c := NewTeamCounter(5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.tryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 5 {
		t.Errorf("admitted %d, want exactly 5", admitted)
	}
	if c.Active() != 5 {
		t.Errorf("active = %d, want 5", c.Active())
	}
}
