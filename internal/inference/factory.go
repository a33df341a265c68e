package inference

import "fmt"

// ProviderConfig is one declarative provider entry, as read from the
// application config file.
type ProviderConfig struct {
	// Type selects the backend: ollama, vllm, litellm or anthropic.
	Type    string `mapstructure:"type" yaml:"type"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// Anthropic-only knobs.
	UseBedrock bool   `mapstructure:"use_bedrock" yaml:"use_bedrock,omitempty"`
	AWSRegion  string `mapstructure:"aws_region" yaml:"aws_region,omitempty"`
	AWSProfile string `mapstructure:"aws_profile" yaml:"aws_profile,omitempty"`
}

// NewProvider constructs a single provider from its config entry.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL), nil
	case "vllm":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("vllm provider needs base_url")
		}
		return NewVLLM(cfg.BaseURL, cfg.Model, cfg.APIKey), nil
	case "litellm":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("litellm provider needs base_url")
		}
		return NewLiteLLM(cfg.BaseURL, cfg.Model, cfg.APIKey), nil
	case "anthropic":
		return NewAnthropic(AnthropicConfig{
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			UseBedrock: cfg.UseBedrock,
			AWSRegion:  cfg.AWSRegion,
			AWSProfile: cfg.AWSProfile,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// NewFailoverFromConfig builds the failover layer from the configured
// primary and backup entries. A broken backup entry is skipped; a
// broken primary is an error.
func NewFailoverFromConfig(primary ProviderConfig, backups []ProviderConfig) (*Failover, error) {
	p, err := NewProvider(primary)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	var bs []Provider
	for _, bc := range backups {
		b, err := NewProvider(bc)
		if err != nil {
			continue
		}
		bs = append(bs, b)
	}
	return NewFailover(p, bs...), nil
}
