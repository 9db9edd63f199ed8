package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	defaultSettingsPath = "core/config.yaml"
	defaultRulesPath    = "core/agents/bmad-master.md"
	defaultOutputDir    = "docs"
	defaultProvider     = "gemini"
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultOllamaModel  = "llama3.2"
	defaultOllamaHost   = "http://localhost:11434"
)

// binaries a provider shells out to
var providerToBinMap = map[string]string{
	"gemini_cli": "gemini",
	"gemini":     "",
	"ollama":     "",
}

type Config struct {
	Provider     string
	APIKey       string
	Model        string
	OllamaHost   string
	GithubToken  string
	GitlabToken  string
	SettingsPath string
	RulesPath    string
	OutputDir    string
	Verbose      bool
}

// CredentialError is returned at startup when a provider needs an api key that the
// environment does not carry.
type CredentialError struct {
	Provider string
	EnvVars  []string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("bmad: provider '%s' needs an api key, set one of %s", e.Provider, strings.Join(e.EnvVars, ", "))
}

func ensureBinaryInstalled(bin string) error {
	_, err := exec.LookPath(bin)
	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return fmt.Errorf("binary '%s' not found in $PATH", bin)
		}
		// unexpected errs
		return err
	}

	return nil
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Provider:     strings.TrimSpace(os.Getenv("BMAD_PROVIDER")),
		APIKey:       os.Getenv("BMAD_API_KEY"),
		Model:        os.Getenv("BMAD_MODEL"),
		OllamaHost:   os.Getenv("OLLAMA_HOST"),
		GithubToken:  os.Getenv("GITHUB_TOKEN"),
		GitlabToken:  os.Getenv("GITLAB_TOKEN"),
		SettingsPath: defaultSettingsPath,
		RulesPath:    defaultRulesPath,
		OutputDir:    defaultOutputDir,
	}

	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = defaultOllamaHost
	}

	if cfg.Model == "" {
		switch cfg.Provider {
		case "gemini", "gemini_cli":
			cfg.Model = defaultGeminiModel
		case "ollama":
			cfg.Model = defaultOllamaModel
		}
	}

	bin, known := providerToBinMap[cfg.Provider]
	if !known {
		return nil, fmt.Errorf("bmad: unknown llm provider '%s' found in config", cfg.Provider)
	}
	if bin != "" {
		if err := ensureBinaryInstalled(bin); err != nil {
			return nil, fmt.Errorf("bmad: provider '%s' requires %w", cfg.Provider, err)
		}
	}

	return cfg, nil
}
