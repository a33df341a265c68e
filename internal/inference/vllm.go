package inference

import (
	"context"
	"fmt"
	"strings"
)

// VLLM talks to a vLLM server's completions endpoint.
type VLLM struct {
	httpProvider
	model  string
	apiURL string
	apiKey string
}

// NewVLLM returns a provider for the vLLM server at apiURL.
func NewVLLM(apiURL, model, apiKey string) *VLLM {
	if model == "" {
		model = "qwen3-8b"
	}
	return &VLLM{
		httpProvider: newHTTPProvider(),
		model:        model,
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
	}
}

func (v *VLLM) Name() string {
	return fmt.Sprintf("vllm (%s)", v.apiURL)
}

func (v *VLLM) Available(ctx context.Context) bool {
	return v.probe(ctx, v.apiURL+"/health", nil)
}

func (v *VLLM) Generate(ctx context.Context, req Request) (string, error) {
	// vLLM's completions endpoint takes a flat prompt, so the system
	// text is prepended.
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}
	payload := map[string]any{
		"model":       v.model,
		"prompt":      prompt,
		"max_tokens":  req.maxTokens(),
		"temperature": req.temperature(),
		"stream":      false,
	}

	var out struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := v.postJSON(ctx, v.apiURL+"/v1/completions", bearerHeaders(v.apiKey), payload, &out); err != nil {
		return "", fmt.Errorf("vllm generate: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("vllm generate: empty choices")
	}
	return out.Choices[0].Text, nil
}
