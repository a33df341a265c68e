package inference

import (
	"context"
	"fmt"
	"strings"
)

// Ollama talks to a local Ollama daemon.
type Ollama struct {
	httpProvider
	model   string
	baseURL string
}

// NewOllama returns a provider for the Ollama daemon at baseURL.
// Empty arguments fall back to the stock local install.
func NewOllama(model, baseURL string) *Ollama {
	if model == "" {
		model = "qwen3:8b"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		httpProvider: newHTTPProvider(),
		model:        model,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("ollama (%s)", o.model)
}

func (o *Ollama) Available(ctx context.Context) bool {
	return o.probe(ctx, o.baseURL+"/api/tags", nil)
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": req.Prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": req.temperature(),
		},
	}
	if req.System != "" {
		payload["system"] = req.System
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := o.postJSON(ctx, o.baseURL+"/api/generate", nil, payload, &out); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.Response, nil
}
