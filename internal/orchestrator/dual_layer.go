package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/triad-agents/triad/internal/inference"
	"github.com/triad-agents/triad/internal/license"
	"github.com/triad-agents/triad/pkg/models"
)

// shadowPollInterval is the fallback observation cadence used when
// filesystem events are quiet or unavailable.
const shadowPollInterval = 2 * time.Second

// DualOrchestrator runs a primary orchestrator plus a shadow instance
// on a second provider configuration. The shadow only observes: it
// cross-reads the primary's agent states and records findings in its
// own namespaced store, never touching primary state.
type DualOrchestrator struct {
	Primary *Orchestrator

	shadow       *Orchestrator
	watcher      *fsnotify.Watcher
	logger       *DebugLogger
	observations atomic.Uint64

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewDual builds the pair. The shadow layer needs the dual-layer
// entitlement; without it the primary still runs and the shadow is
// simply absent.
func NewDual(opts Options, shadowInfer *inference.Failover) (*DualOrchestrator, error) {
	primary, err := New(opts)
	if err != nil {
		return nil, err
	}

	d := &DualOrchestrator{
		Primary: primary,
		logger:  opts.Logger,
		stop:    make(chan struct{}),
	}
	if d.logger == nil {
		d.logger = NopLogger()
	}

	lic := opts.License
	if lic == nil {
		lic = license.AllowAll{}
	}
	if !lic.HasCapability(license.CapDualLayer) {
		d.logger.Log("dual layer not licensed, shadow disabled")
		return d, nil
	}
	if shadowInfer == nil {
		d.logger.Log("no shadow provider configuration, shadow disabled")
		return d, nil
	}

	shadowOpts := opts
	shadowOpts.Workspace = opts.Workspace + "-shadow"
	shadowOpts.Infer = shadowInfer
	shadow, err := New(shadowOpts)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("open shadow layer: %w", err)
	}
	d.shadow = shadow
	return d, nil
}

// ShadowEnabled reports whether the shadow layer is running.
func (d *DualOrchestrator) ShadowEnabled() bool {
	return d.shadow != nil
}

// Observations returns how many observation passes the shadow has run.
func (d *DualOrchestrator) Observations() uint64 {
	return d.observations.Load()
}

// Start begins shadow observation. The shadow wakes on writes to the
// primary's store directory, with a polling ticker as fallback for
// platforms or paths the watcher cannot cover.
func (d *DualOrchestrator) Start() error {
	if d.shadow == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Log("fsnotify unavailable, polling only: %v", err)
	} else {
		dir := filepath.Dir(d.Primary.Store().Path())
		if err := watcher.Add(dir); err != nil {
			d.logger.Log("watch %s failed, polling only: %v", dir, err)
			watcher.Close()
			watcher = nil
		}
	}
	d.watcher = watcher

	d.wg.Add(1)
	go d.observeLoop()
	return nil
}

func (d *DualOrchestrator) observeLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(shadowPollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if d.watcher != nil {
		events = d.watcher.Events
		errs = d.watcher.Errors
	}

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.observe()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				d.observe()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.logger.Log("shadow watcher: %v", err)
		}
	}
}

// observe cross-reads the primary's agent states and records findings
// in the shadow's own store.
func (d *DualOrchestrator) observe() {
	d.observations.Add(1)

	states, err := d.Primary.Store().AgentStates()
	if err != nil {
		d.logger.Log("shadow cross-read: %v", err)
		return
	}

	shadowStore := d.shadow.Store()
	for _, st := range states {
		switch st.Status {
		case models.StatusNeedsHelp:
			shadowStore.AppendLog("shadow", models.LogWarning,
				fmt.Sprintf("primary %s needs help on: %s", st.AgentID, st.CurrentTask))
		case models.StatusResting:
			shadowStore.Logf("shadow", "primary %s resting, task retained: %s", st.AgentID, st.CurrentTask)
		}
	}
}

// ExecuteTask runs the task on the primary layer. The shadow keeps
// observing concurrently; an extra observation pass runs right after
// completion so the final state is always seen.
func (d *DualOrchestrator) ExecuteTask(ctx context.Context, task *models.TaskDescriptor) *TaskResult {
	result := d.Primary.ExecuteTask(ctx, task)
	if d.shadow != nil {
		d.observe()
	}
	return result
}

// ShadowFindings returns the tail of the shadow layer's own log.
func (d *DualOrchestrator) ShadowFindings(n int) ([]models.LogEntry, error) {
	if d.shadow == nil {
		return nil, nil
	}
	return d.shadow.Store().TailLog(n)
}

// Close stops observation and releases both layers.
func (d *DualOrchestrator) Close() error {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
	if d.watcher != nil {
		d.watcher.Close()
	}
	var err error
	if d.shadow != nil {
		err = d.shadow.Close()
	}
	if cerr := d.Primary.Close(); cerr != nil {
		err = cerr
	}
	return err
}
