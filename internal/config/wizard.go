package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// defaultModels suggests a model per provider.
var defaultModels = map[ProviderType]string{
	ProviderOllama: "llama3",
	ProviderOpenAI: "gpt-4o-mini",
}

// RunWizard asks for the essential settings, saves them to path and
// returns the resulting Config.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to sage! Let's configure the render service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Local model provider.
	providerPrompt := promptui.Select{
		Label: "Select local model provider",
		Items: []string{
			"ollama: Ollama server",
			"openai: OpenAI or an OpenAI-compatible server",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LocalModel.Provider = []ProviderType{ProviderOllama, ProviderOpenAI}[providerIdx]

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModels[cfg.LocalModel.Provider],
	}
	if cfg.LocalModel.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Base URL.
	baseURLPrompt := promptui.Prompt{
		Label:   "Model server URL (blank for the provider default)",
		Default: "",
	}
	if cfg.LocalModel.BaseURL, err = baseURLPrompt.Run(); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	// 4. Workflow webhook.
	workflowPrompt := promptui.Prompt{
		Label:   "Workflow webhook URL (blank to skip)",
		Default: "",
		Validate: func(s string) error {
			candidate := DefaultConfig()
			candidate.Workflow.URL = strings.TrimSpace(s)
			return candidate.Validate()
		},
	}
	workflowURL, err := workflowPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("workflow url: %w", err)
	}
	cfg.Workflow.URL = strings.TrimSpace(workflowURL)

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	// 6. Allowed origins.
	originsPrompt := promptui.Prompt{
		Label:   "Allowed CORS origins (comma-separated, blank for localhost only)",
		Default: "",
	}
	originsStr, err := originsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed origins: %w", err)
	}
	cfg.Server.AllowedOrigins = splitAndTrim(originsStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.LocalModel.Provider); envVar != "" && cfg.LocalModel.BaseURL == "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running sage serve.\n", envVar)
		}
	}
	if cfg.Workflow.URL != "" {
		fmt.Printf("\nNote: Set %sWORKFLOW__TOKEN if the webhook requires a bearer token.\n", EnvPrefix)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and drops blank entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
