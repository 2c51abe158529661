// Package config loads and manages fr3kai configuration.
// Configuration source priority (highest to lowest):
// 1. Command-line flags (applied by cmd)
// 2. Environment variables (LLM_API_KEY, GROQ_API_KEY, FR3KAI_PROVIDER, etc.)
// 3. Config file path specified via --config flag
// 4. ~/.config/fr3kai/config.yaml
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed providers_default.yaml
var defaultProvidersYAML []byte

// ProviderDefaults holds the default base URL and model for a provider.
type ProviderDefaults struct {
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// LoadProviderDefaults parses the embedded defaults and merges any user
// overrides from ~/.config/fr3kai/providers.yaml.
func LoadProviderDefaults() map[string]ProviderDefaults {
	defs := make(map[string]ProviderDefaults)
	_ = yaml.Unmarshal(defaultProvidersYAML, &defs)

	dir, err := Dir()
	if err != nil {
		return defs
	}
	data, err := os.ReadFile(filepath.Join(dir, "providers.yaml"))
	if err != nil {
		return defs
	}
	userDefs := make(map[string]ProviderDefaults)
	if yaml.Unmarshal(data, &userDefs) != nil {
		return defs
	}
	for name, ud := range userDefs {
		d := defs[name]
		if ud.BaseURL != "" {
			d.BaseURL = ud.BaseURL
		}
		if ud.DefaultModel != "" {
			d.DefaultModel = ud.DefaultModel
		}
		defs[name] = d
	}
	return defs
}

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// WebConfig holds settings for the search and fetch collaborators.
type WebConfig struct {
	// SearchProvider: "tavily" | "exa" | "jina" | "duckduckgo" (keyless fallback)
	SearchProvider string `yaml:"search_provider"`

	// SearchAPIKey: API key for the search provider (required for tavily and exa)
	SearchAPIKey string `yaml:"search_api_key"`

	// FetchTimeoutSec bounds every raw URL fetch. Default 10.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`

	// MaxResults is how many results a search asks for. Default 5.
	MaxResults int `yaml:"max_results"`
}

// MemoryConfig selects the durable memory backend.
type MemoryConfig struct {
	// Backend: "file" (JSON, default) | "sqlite"
	Backend string `yaml:"backend"`

	// Path of the durable file. Empty = ~/.local/share/fr3kai/memory.{json,db}
	Path string `yaml:"path"`
}

// HistoryConfig controls how much conversation is rendered into prompts.
type HistoryConfig struct {
	// MaxTurns caps the trailing turns included in composed prompts.
	// 0 = unbounded (default). The conversation log itself is never trimmed.
	MaxTurns int `yaml:"max_turns"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level: "debug" | "info" (default) | "warn" | "error" | "off"
	Level string `yaml:"level"`

	// File receives JSON log lines. Empty = ~/.local/share/fr3kai/fr3kai.log
	File string `yaml:"file"`
}

// Config is the complete configuration structure for fr3kai.
type Config struct {
	// Provider is the active provider name (e.g. "groq", "openai", "anthropic", "gemini")
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// SystemPrompt is sent with every generation call (empty = none).
	SystemPrompt string `yaml:"system_prompt"`

	// MaxTokens caps each completion. 0 = provider default.
	MaxTokens int `yaml:"max_tokens"`

	Web     WebConfig     `yaml:"web"`
	Memory  MemoryConfig  `yaml:"memory"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "groq",
		Providers: make(map[string]*ProviderConfig),
		Web: WebConfig{
			FetchTimeoutSec: 10,
			MaxResults:      5,
		},
		Memory: MemoryConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns ~/.config/fr3kai.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fr3kai"), nil
}

// DataDir returns ~/.local/share/fr3kai, where memory and logs live.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "fr3kai"), nil
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		if dir, err := Dir(); err == nil {
			configPath = filepath.Join(dir, "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	// An entry with no fields ("groq:") decodes as nil.
	for name, pc := range cfg.Providers {
		if pc == nil {
			cfg.Providers[name] = &ProviderConfig{}
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills zero values a config file may have cleared.
func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "groq"
	}
	if c.Web.FetchTimeoutSec <= 0 {
		c.Web.FetchTimeoutSec = 10
	}
	if c.Web.MaxResults <= 0 {
		c.Web.MaxResults = 5
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = "file"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// GetProviderConfig returns the config for the named provider, or an empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc := c.Providers[name]; pc != nil {
		return pc
	}
	return &ProviderConfig{}
}

// APIKey returns the key configured for the active provider.
func (c *Config) APIKey() string {
	return c.GetProviderConfig(c.Provider).APIKey
}

// MemoryPath resolves the durable memory file for the configured backend.
func (c *Config) MemoryPath() (string, error) {
	if c.Memory.Path != "" {
		return c.Memory.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine data directory: %w", err)
	}
	if c.Memory.Backend == "sqlite" {
		return filepath.Join(dir, "memory.db"), nil
	}
	return filepath.Join(dir, "memory.json"), nil
}

// LogPath resolves the log file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine data directory: %w", err)
	}
	return filepath.Join(dir, "fr3kai.log"), nil
}

var (
	// KnownProviderBaseURLs maps well-known provider names to their base URLs.
	// Populated from providers_default.yaml (embedded) + user overrides.
	KnownProviderBaseURLs map[string]string

	// KnownProviderModels maps well-known provider names to their default models.
	KnownProviderModels map[string]string
)

func init() {
	defs := LoadProviderDefaults()
	KnownProviderBaseURLs = make(map[string]string, len(defs))
	KnownProviderModels = make(map[string]string, len(defs))
	for name, d := range defs {
		if d.BaseURL != "" {
			KnownProviderBaseURLs[name] = d.BaseURL
		}
		if d.DefaultModel != "" {
			KnownProviderModels[name] = d.DefaultModel
		}
	}
}

// SaveProviderToFile persists a single provider's config and the active provider
// name into the config file at path (default ~/.config/fr3kai/config.yaml),
// preserving all other user settings.
func SaveProviderToFile(path, providerName string, pc ProviderConfig) error {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}

	// Read existing file into a generic map to preserve unknown fields.
	raw := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &raw) // start fresh if corrupt
	}

	providers, _ := raw["providers"].(map[string]any)
	if providers == nil {
		providers = make(map[string]any)
	}

	entry := map[string]any{
		"api_key": pc.APIKey,
	}
	if pc.BaseURL != "" {
		entry["base_url"] = pc.BaseURL
	}
	if pc.Model != "" {
		entry["model"] = pc.Model
	}
	providers[providerName] = entry
	raw["providers"] = providers

	// Set active provider and clear stale global model override.
	raw["provider"] = providerName
	delete(raw, "model")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// providerEntry makes sure a provider entry exists and returns it.
func (c *Config) providerEntry(name string) *ProviderConfig {
	if c.Providers[name] == nil {
		c.Providers[name] = &ProviderConfig{}
	}
	return c.Providers[name]
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Provider selection first so generic keys land on the right provider.
	if v := os.Getenv("FR3KAI_PROVIDER"); v != "" {
		cfg.Provider = v
	}

	// Provider-specific keys
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.providerEntry("groq").APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.providerEntry("anthropic").APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.providerEntry("gemini").APIKey = v
	}

	// Generic overrides
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.providerEntry(cfg.Provider).APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.providerEntry(cfg.Provider).BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("FR3KAI_MODEL"); v != "" {
		cfg.Model = v
	}

	if v := os.Getenv("FR3KAI_MEMORY_PATH"); v != "" {
		cfg.Memory.Path = v
	}

	// Web search
	if v := os.Getenv("TAVILY_API_KEY"); v != "" && cfg.Web.SearchAPIKey == "" {
		cfg.Web.SearchAPIKey = v
		if cfg.Web.SearchProvider == "" {
			cfg.Web.SearchProvider = "tavily"
		}
	}
	if v := os.Getenv("EXA_API_KEY"); v != "" && cfg.Web.SearchAPIKey == "" {
		cfg.Web.SearchAPIKey = v
		if cfg.Web.SearchProvider == "" {
			cfg.Web.SearchProvider = "exa"
		}
	}
}
