package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAllProvidersUnavailable is returned when every configured
// provider was skipped or failed for one request.
var ErrAllProvidersUnavailable = errors.New("all inference providers unavailable")

// Result is a completion plus where it came from.
type Result struct {
	Response     string
	Provider     string
	UsedFallback bool
}

// ProviderStatus is one provider's health snapshot.
type ProviderStatus struct {
	Name      string
	Available bool
	Failures  int
	Primary   bool
}

// Failover sweeps an ordered provider list per request: unavailable or
// failing providers are skipped and the next one is tried. Consecutive
// failures are counted per provider and reset on success.
type Failover struct {
	primary   Provider
	providers []Provider

	mu sync.Mutex
	// attemptTimeout bounds each single provider attempt; zero means
	// the caller's context is the only bound.
	attemptTimeout time.Duration
	failures       map[string]int
}

// NewFailover builds a failover layer. The primary is tried first on
// every request; backups follow in the given order.
func NewFailover(primary Provider, backups ...Provider) *Failover {
	providers := append([]Provider{primary}, backups...)
	failures := make(map[string]int, len(providers))
	for _, p := range providers {
		failures[p.Name()] = 0
	}
	return &Failover{
		primary:   primary,
		providers: providers,
		failures:  failures,
	}
}

// SetAttemptTimeout bounds each individual provider attempt.
func (f *Failover) SetAttemptTimeout(d time.Duration) {
	f.mu.Lock()
	f.attemptTimeout = d
	f.mu.Unlock()
}

// Generate tries providers in order until one succeeds.
func (f *Failover) Generate(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	timeout := f.attemptTimeout
	f.mu.Unlock()

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		if !p.Available(attemptCtx) {
			f.recordFailure(p.Name())
			lastErr = fmt.Errorf("%s unavailable", p.Name())
			if cancel != nil {
				cancel()
			}
			continue
		}

		response, err := p.Generate(attemptCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			f.recordFailure(p.Name())
			lastErr = err
			continue
		}

		f.recordSuccess(p.Name())
		return &Result{
			Response:     response,
			Provider:     p.Name(),
			UsedFallback: p != f.primary,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: last error: %v", ErrAllProvidersUnavailable, lastErr)
	}
	return nil, ErrAllProvidersUnavailable
}

// Status probes every provider and reports its availability and
// consecutive failure count.
func (f *Failover) Status(ctx context.Context) []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(f.providers))
	for _, p := range f.providers {
		f.mu.Lock()
		fails := f.failures[p.Name()]
		f.mu.Unlock()
		statuses = append(statuses, ProviderStatus{
			Name:      p.Name(),
			Available: p.Available(ctx),
			Failures:  fails,
			Primary:   p == f.primary,
		})
	}
	return statuses
}

func (f *Failover) recordFailure(name string) {
	f.mu.Lock()
	f.failures[name]++
	f.mu.Unlock()
}

func (f *Failover) recordSuccess(name string) {
	f.mu.Lock()
	f.failures[name] = 0
	f.mu.Unlock()
}
