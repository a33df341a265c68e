package inference

import (
	"context"
	"fmt"
	"strings"
)

// LiteLLM talks to a LiteLLM proxy's chat completions endpoint.
type LiteLLM struct {
	httpProvider
	model  string
	apiURL string
	apiKey string
}

// NewLiteLLM returns a provider for the LiteLLM proxy at apiURL.
func NewLiteLLM(apiURL, model, apiKey string) *LiteLLM {
	if model == "" {
		model = "qwen3-8b"
	}
	return &LiteLLM{
		httpProvider: newHTTPProvider(),
		model:        model,
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
	}
}

func (l *LiteLLM) Name() string {
	return fmt.Sprintf("litellm (%s)", l.apiURL)
}

func (l *LiteLLM) Available(ctx context.Context) bool {
	return l.probe(ctx, l.apiURL+"/health", nil)
}

func (l *LiteLLM) Generate(ctx context.Context, req Request) (string, error) {
	var messages []map[string]string
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	payload := map[string]any{
		"model":       l.model,
		"messages":    messages,
		"max_tokens":  req.maxTokens(),
		"temperature": req.temperature(),
		"stream":      false,
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := l.postJSON(ctx, l.apiURL+"/chat/completions", bearerHeaders(l.apiKey), payload, &out); err != nil {
		return "", fmt.Errorf("litellm generate: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("litellm generate: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}
