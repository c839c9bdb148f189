// Package config loads .sage.yml with SAGE_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/sage/internal/llm"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".sage.yml"

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: SAGE_RENDER__TOP_CATEGORIES sets render.top_categories.
const EnvPrefix = "SAGE_"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8090},
		Cache:  CacheConfig{Backend: CacheSQLite, Path: filepath.Join(".sage", "sage.db")},
		Render: RenderConfig{TopCategories: 20, ResizeDelayMS: 150, LabelWidth: 40},
		Merge:  MergeConfig{TimeoutSeconds: 300},
		LocalModel: LocalModelConfig{
			Provider:    ProviderOllama,
			Model:       "llama3",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Workflow: WorkflowConfig{TimeoutSeconds: 300},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SAGE_*). A missing file yields defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// envKey maps SAGE_LOCAL_MODEL__BASE_URL to local_model.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOllama: true,
	ProviderOpenAI: true,
}

var validBackends = map[CacheBackend]bool{
	CacheSQLite: true,
	CacheMemory: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if !validBackends[c.Cache.Backend] {
		return fmt.Errorf("invalid cache.backend %q: must be one of sqlite, memory", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheSQLite && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required for the sqlite backend")
	}

	if c.Render.TopCategories <= 0 {
		return fmt.Errorf("render.top_categories must be positive")
	}
	if c.Render.ResizeDelayMS < 0 {
		return fmt.Errorf("render.resize_delay_ms must be non-negative")
	}
	if c.Render.LabelWidth <= 0 {
		return fmt.Errorf("render.label_width must be positive")
	}

	if c.Merge.TimeoutSeconds < 0 {
		return fmt.Errorf("merge.timeout_seconds must be non-negative")
	}

	if !validProviders[c.LocalModel.Provider] {
		return fmt.Errorf("invalid local_model.provider %q: must be one of ollama, openai", c.LocalModel.Provider)
	}
	if c.LocalModel.Model == "" {
		return fmt.Errorf("local_model.model is required")
	}
	if c.LocalModel.RPM < 0 {
		return fmt.Errorf("local_model.requests_per_minute must be non-negative")
	}

	if c.Workflow.URL != "" {
		u, err := url.Parse(c.Workflow.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("workflow.url %q must be an http(s) URL", c.Workflow.URL)
		}
	}
	if c.Workflow.TimeoutSeconds < 0 {
		return fmt.Errorf("workflow.timeout_seconds must be non-negative")
	}
	return nil
}

// ResizeDelay returns the deferred chart resize delay. Zero means charts
// resize on mount.
func (c *Config) ResizeDelay() time.Duration {
	return time.Duration(c.Render.ResizeDelayMS) * time.Millisecond
}

// MergeTimeout returns the merge timeout; zero means none.
func (c *Config) MergeTimeout() time.Duration {
	return time.Duration(c.Merge.TimeoutSeconds) * time.Second
}

// WorkflowTimeout returns the webhook HTTP timeout; zero means none.
func (c *Config) WorkflowTimeout() time.Duration {
	return time.Duration(c.Workflow.TimeoutSeconds) * time.Second
}

// LLMSettings returns the local model provider settings.
func (c *Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Provider: string(c.LocalModel.Provider),
		Model:    c.LocalModel.Model,
		BaseURL:  c.LocalModel.BaseURL,
		RPM:      c.LocalModel.RPM,
	}
}

// APIKeyEnvVar returns the environment variable holding the API key for
// provider, or "" when none is needed.
func APIKeyEnvVar(provider ProviderType) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return ""
}
