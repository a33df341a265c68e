package inference

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeProvider scripts availability and generation behavior.
type fakeProvider struct {
	name      string
	available bool
	response  string
	err       error

	availCalls int
	genCalls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Available(context.Context) bool {
	f.availCalls++
	return f.available
}

func (f *fakeProvider) Generate(context.Context, Request) (string, error) {
	f.genCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestFailover_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "a", available: true, response: "from a"}
	backup := &fakeProvider{name: "b", available: true, response: "from b"}
	f := NewFailover(primary, backup)

	res, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Response != "from a" || res.Provider != "a" {
		t.Errorf("result = %+v, want primary response", res)
	}
	if res.UsedFallback {
		t.Error("primary success should not be flagged as fallback")
	}
	if backup.genCalls != 0 {
		t.Error("backup should not be tried when primary succeeds")
	}
}

func TestFailover_SweepsToFirstWorkingProvider(t *testing.T) {
	// First unavailable, second throws, third succeeds.
	a := &fakeProvider{name: "a", available: false}
	b := &fakeProvider{name: "b", available: true, err: errors.New("boom")}
	c := &fakeProvider{name: "c", available: true, response: "from c"}
	f := NewFailover(a, b, c)

	res, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Provider != "c" {
		t.Errorf("provider = %q, want c", res.Provider)
	}
	if !res.UsedFallback {
		t.Error("fallback flag should be set when a backup answered")
	}
	if a.genCalls != 0 {
		t.Error("unavailable provider must not be asked to generate")
	}
	if b.genCalls != 1 {
		t.Errorf("b.genCalls = %d, want 1", b.genCalls)
	}
}

func TestFailover_AllFail(t *testing.T) {
	a := &fakeProvider{name: "a", available: false}
	b := &fakeProvider{name: "b", available: true, err: errors.New("boom")}
	f := NewFailover(a, b)

	_, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrAllProvidersUnavailable) {
		t.Errorf("err = %v, want ErrAllProvidersUnavailable", err)
	}
}

func TestFailover_FailureCounters(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: errors.New("boom")}
	b := &fakeProvider{name: "b", available: true, response: "ok"}
	f := NewFailover(a, b)

	for i := 0; i < 3; i++ {
		if _, err := f.Generate(context.Background(), Request{Prompt: "hi"}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	statuses := f.Status(context.Background())
	if statuses[0].Failures != 3 {
		t.Errorf("a failures = %d, want 3", statuses[0].Failures)
	}
	if statuses[1].Failures != 0 {
		t.Errorf("b failures = %d, want 0", statuses[1].Failures)
	}
	if !statuses[0].Primary || statuses[1].Primary {
		t.Error("primary flag misassigned in status report")
	}

	// A success resets the counter.
	a.err = nil
	a.response = "recovered"
	if _, err := f.Generate(context.Background(), Request{Prompt: "hi"}); err != nil {
		t.Fatalf("Generate after recovery: %v", err)
	}
	if got := f.Status(context.Background())[0].Failures; got != 0 {
		t.Errorf("a failures after recovery = %d, want 0", got)
	}
}

func TestFailover_ContextCancelled(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, response: "ok"}
	f := NewFailover(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Generate(ctx, Request{Prompt: "hi"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if a.genCalls != 0 {
		t.Error("no provider should run after cancellation")
	}
}

// slowProvider blocks in Generate until its context expires.
type slowProvider struct {
	name string
}

func (s *slowProvider) Name() string                   { return s.name }
func (s *slowProvider) Available(context.Context) bool { return true }

func (s *slowProvider) Generate(ctx context.Context, _ Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestFailover_AttemptTimeoutBoundsEachProvider(t *testing.T) {
	slow := &slowProvider{name: "slow"}
	backup := &fakeProvider{name: "b", available: true, response: "from b"}
	f := NewFailover(slow, backup)
	f.SetAttemptTimeout(10 * time.Millisecond)

	res, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Provider != "b" || !res.UsedFallback {
		t.Errorf("result = %+v, want backup after the slow primary timed out", res)
	}
	if got := f.Status(context.Background())[0].Failures; got != 1 {
		t.Errorf("slow provider failures = %d, want 1", got)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr bool
	}{
		{"ollama defaults", ProviderConfig{Type: "ollama"}, false},
		{"vllm", ProviderConfig{Type: "vllm", BaseURL: "http://vllm:8000"}, false},
		{"vllm missing url", ProviderConfig{Type: "vllm"}, true},
		{"litellm", ProviderConfig{Type: "litellm", BaseURL: "http://litellm:4000"}, false},
		{"litellm missing url", ProviderConfig{Type: "litellm"}, true},
		{"anthropic with key", ProviderConfig{Type: "anthropic", APIKey: "sk-test"}, false},
		{"unknown type", ProviderConfig{Type: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProvider(%+v) err = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
		})
	}
}

func TestNewFailoverFromConfig_SkipsBrokenBackups(t *testing.T) {
	f, err := NewFailoverFromConfig(
		ProviderConfig{Type: "ollama"},
		[]ProviderConfig{
			{Type: "carrier-pigeon"},
			{Type: "vllm", BaseURL: "http://vllm:8000"},
		},
	)
	if err != nil {
		t.Fatalf("NewFailoverFromConfig: %v", err)
	}
	statuses := f.Status(context.Background())
	if len(statuses) != 2 {
		t.Errorf("got %d providers, want 2 (broken backup skipped)", len(statuses))
	}
}
