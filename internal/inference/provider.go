// Package inference abstracts completion providers behind a single
// interface and layers automatic failover on top. Local backends
// (Ollama, vLLM) and hosted ones (LiteLLM proxies, Anthropic) are
// interchangeable from the caller's point of view.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is a single completion request.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Defaults applied when the caller leaves fields zero.
const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 2048
)

func (r Request) temperature() float64 {
	if r.Temperature == 0 {
		return defaultTemperature
	}
	return r.Temperature
}

func (r Request) maxTokens() int {
	if r.MaxTokens == 0 {
		return defaultMaxTokens
	}
	return r.MaxTokens
}

// Provider is one completion backend.
type Provider interface {
	// Name identifies the provider in logs and status reports.
	Name() string
	// Available reports whether the backend is reachable right now.
	Available(ctx context.Context) bool
	// Generate produces a completion for the request.
	Generate(ctx context.Context, req Request) (string, error)
}

// availabilityTimeout bounds the cheap reachability probe.
const availabilityTimeout = 5 * time.Second

// httpProvider carries the pieces shared by the HTTP-speaking backends.
type httpProvider struct {
	client *http.Client
}

func newHTTPProvider() httpProvider {
	return httpProvider{client: &http.Client{Timeout: 60 * time.Second}}
}

// postJSON sends body as JSON and decodes the response into out.
func (p httpProvider) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", url, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// probe reports whether a GET to url returns 200 within the
// availability timeout.
func (p httpProvider) probe(ctx context.Context, url string, headers map[string]string) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func bearerHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
