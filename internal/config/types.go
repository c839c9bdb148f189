package config

// ProviderType identifies the local model backend.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

// CacheBackend selects where rendered HTML is cached.
type CacheBackend string

const (
	CacheSQLite CacheBackend = "sqlite"
	CacheMemory CacheBackend = "memory"
)

// Config is the top-level sage configuration, corresponding to .sage.yml.
type Config struct {
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Cache      CacheConfig      `yaml:"cache" koanf:"cache"`
	Render     RenderConfig     `yaml:"render" koanf:"render"`
	Merge      MergeConfig      `yaml:"merge" koanf:"merge"`
	LocalModel LocalModelConfig `yaml:"local_model" koanf:"local_model"`
	Workflow   WorkflowConfig   `yaml:"workflow" koanf:"workflow"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	AllowAll       bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// CacheConfig holds the rendered-HTML cache settings.
type CacheConfig struct {
	Backend CacheBackend `yaml:"backend" koanf:"backend"`
	Path    string       `yaml:"path" koanf:"path"`
}

// RenderConfig holds display settings shared by every renderer.
type RenderConfig struct {
	TopCategories int `yaml:"top_categories" koanf:"top_categories"`
	ResizeDelayMS int `yaml:"resize_delay_ms" koanf:"resize_delay_ms"`
	LabelWidth    int `yaml:"label_width" koanf:"label_width"`
}

// MergeConfig holds the merge coordinator settings.
type MergeConfig struct {
	// TimeoutSeconds bounds a two-source analysis. Zero waits forever.
	TimeoutSeconds int `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// LocalModelConfig selects the local model source.
type LocalModelConfig struct {
	Provider    ProviderType `yaml:"provider" koanf:"provider"`
	Model       string       `yaml:"model" koanf:"model"`
	BaseURL     string       `yaml:"base_url" koanf:"base_url"`
	Temperature float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens   int          `yaml:"max_tokens" koanf:"max_tokens"`
	RPM         int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// WorkflowConfig points at the workflow engine webhook.
type WorkflowConfig struct {
	URL            string `yaml:"url" koanf:"url"`
	Token          string `yaml:"token,omitempty" koanf:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}
