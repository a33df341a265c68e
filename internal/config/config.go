// Package config handles configuration loading for Triad. It supports
// XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/triad-agents/triad/internal/inference"
)

// Config holds all configuration for Triad.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Spawning  SpawningConfig  `mapstructure:"spawning"`
	Inference InferenceConfig `mapstructure:"inference"`
	DualLayer DualLayerConfig `mapstructure:"dual_layer"`
	Log       LogConfig       `mapstructure:"log"`
}

// DataConfig holds workspace storage settings.
type DataConfig struct {
	// Dir is the base directory for workspace stores. Empty means
	// the XDG data directory.
	Dir string `mapstructure:"dir"`
	// Workspace is the default workspace name.
	Workspace string `mapstructure:"workspace"`
}

// SpawningConfig holds team spawning settings.
type SpawningConfig struct {
	// MaxTeams caps spawned teams process-wide.
	MaxTeams int `mapstructure:"max_teams"`
}

// InferenceConfig holds the provider chain.
type InferenceConfig struct {
	// Primary is tried first on every request.
	Primary inference.ProviderConfig `mapstructure:"primary"`
	// Backups follow in order when the primary is down.
	Backups []inference.ProviderConfig `mapstructure:"backups"`
	// AttemptTimeout bounds each single provider attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// DualLayerConfig holds the shadow layer's provider chain.
type DualLayerConfig struct {
	// Enabled turns the shadow observer on (still entitlement-gated).
	Enabled bool `mapstructure:"enabled"`
	// Primary is the shadow layer's provider.
	Primary inference.ProviderConfig `mapstructure:"primary"`
	// Backups follow in order.
	Backups []inference.ProviderConfig `mapstructure:"backups"`
}

// LogConfig holds log windows for monitoring and diagnosis.
type LogConfig struct {
	// MonitorTail is how many entries a monitoring pass reads.
	MonitorTail int `mapstructure:"monitor_tail"`
	// DiagnoseTail is how many entries a diagnosis reads.
	DiagnoseTail int `mapstructure:"diagnose_tail"`
}

// Load loads configuration with the following precedence, highest
// first: environment variables (TRIAD_*, ANTHROPIC_API_KEY), project
// config (.triad.yaml in the current directory or a parent), user
// config (~/.config/triad/config.yaml), built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TRIAD")
	v.AutomaticEnv()
	v.BindEnv("inference.primary.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("data.dir", "TRIAD_DATA_DIR")
	v.BindEnv("data.workspace", "TRIAD_WORKSPACE")
	v.BindEnv("spawning.max_teams", "TRIAD_MAX_TEAMS")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Inference.Primary.APIKey = os.ExpandEnv(cfg.Inference.Primary.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Inference.Primary.APIKey = os.ExpandEnv(cfg.Inference.Primary.APIKey)
	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures built-in defaults. The stock chain is a
// local Ollama primary with no backups.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "")
	v.SetDefault("data.workspace", "default")

	v.SetDefault("spawning.max_teams", 10)

	v.SetDefault("inference.primary.type", "ollama")
	v.SetDefault("inference.primary.model", "qwen3:8b")
	v.SetDefault("inference.primary.base_url", "http://localhost:11434")
	v.SetDefault("inference.attempt_timeout", "60s")

	v.SetDefault("dual_layer.enabled", false)
	v.SetDefault("dual_layer.primary.type", "vllm")
	v.SetDefault("dual_layer.primary.base_url", "http://localhost:8000")
	v.SetDefault("dual_layer.primary.model", "Qwen/Qwen2.5-7B-Instruct")

	v.SetDefault("log.monitor_tail", 20)
	v.SetDefault("log.diagnose_tail", 200)
}

// getUserConfigDir returns the XDG config directory for Triad.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "triad")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "triad")
	}
	return filepath.Join(home, ".config", "triad")
}

// findProjectConfig searches for .triad.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".triad.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{Workspace: "default"},
		Spawning: SpawningConfig{
			MaxTeams: 10,
		},
		Inference: InferenceConfig{
			Primary: inference.ProviderConfig{
				Type:    "ollama",
				Model:   "qwen3:8b",
				BaseURL: "http://localhost:11434",
			},
			AttemptTimeout: 60 * time.Second,
		},
		DualLayer: DualLayerConfig{
			Primary: inference.ProviderConfig{
				Type:    "vllm",
				BaseURL: "http://localhost:8000",
				Model:   "Qwen/Qwen2.5-7B-Instruct",
			},
		},
		Log: LogConfig{
			MonitorTail:  20,
			DiagnoseTail: 200,
		},
	}
}
