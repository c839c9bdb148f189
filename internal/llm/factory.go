package llm

import (
	"fmt"
	"os"
	"strings"
)

// DefaultOllamaHost is used when neither the settings nor OLLAMA_HOST name one.
const DefaultOllamaHost = "http://localhost:11434"

// Settings selects and configures a provider.
type Settings struct {
	// Provider is "ollama" or "openai" (any OpenAI-compatible server).
	Provider string
	Model    string
	BaseURL  string
	// APIKey falls back to OPENAI_API_KEY. Local servers usually ignore it.
	APIKey string
	// RPM limits requests per minute. Zero disables limiting.
	RPM int
}

// NewProvider creates the provider described by s.
func NewProvider(s Settings) (Provider, error) {
	if strings.TrimSpace(s.Model) == "" {
		return nil, fmt.Errorf("llm: no model configured for provider %q", s.Provider)
	}

	var p Provider
	switch strings.ToLower(s.Provider) {
	case "ollama", "":
		host := s.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = DefaultOllamaHost
		}
		p = NewOllamaProvider(host, s.Model)

	case "openai":
		key := s.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" && s.BaseURL == "" {
			return nil, fmt.Errorf("llm: OPENAI_API_KEY is not set and no base_url points at a local server")
		}
		p = NewCompatibleProvider(s.BaseURL, key, s.Model)

	default:
		return nil, fmt.Errorf("llm: unsupported provider type: %s", s.Provider)
	}

	if s.RPM > 0 {
		p = NewRateLimitedProvider(p, s.RPM)
	}
	return p, nil
}
