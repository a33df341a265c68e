package inference

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Anthropic is a hosted provider backed by the Anthropic API, either
// directly or through AWS Bedrock.
type Anthropic struct {
	inner anthropic.Client
	model anthropic.Model
}

// AnthropicConfig configures the hosted provider.
type AnthropicConfig struct {
	// Model defaults to Claude Sonnet when empty.
	Model string
	// APIKey falls back to the ANTHROPIC_API_KEY env var.
	APIKey string
	// UseBedrock routes requests through AWS Bedrock with ambient AWS
	// credentials instead of an API key.
	UseBedrock bool
	AWSRegion  string
	AWSProfile string
}

// NewAnthropic creates the hosted provider.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider needs an API key or ANTHROPIC_API_KEY")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseBedrock {
		model = bedrockModel(model)
	}

	return &Anthropic{inner: anthropic.NewClient(opts...), model: model}, nil
}

// bedrockModel converts a standard model name to the cross-region
// Bedrock inference profile format.
func bedrockModel(model anthropic.Model) anthropic.Model {
	if strings.HasPrefix(string(model), "us.anthropic") {
		return model
	}
	return anthropic.Model("us.anthropic." + string(model) + "-v1:0")
}

func (a *Anthropic) Name() string {
	return fmt.Sprintf("anthropic (%s)", a.model)
}

// Available assumes the hosted endpoint is reachable; credential
// problems surface as Generate errors and drive failover the same way.
func (a *Anthropic) Available(context.Context) bool {
	return true
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(req.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.temperature()),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
