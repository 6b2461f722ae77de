package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Orunmila.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Server    ServerConfig              `json:"server"`
	Telex     TelexConfig               `json:"telex"`
	Providers map[string]ProviderConfig `json:"providers"`
	Persona   PersonaConfig             `json:"persona"`
	Store     StoreConfig               `json:"store"`
	Metrics   MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel           string `json:"logLevel"`
	DefaultProvider    string `json:"defaultProvider"`
	MaxConcurrentTasks int    `json:"maxConcurrentTasks"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// TelexConfig configures the outbound Telex.im API client and webhook
// signature validation. An empty WebhookSecret disables validation.
type TelexConfig struct {
	APIBase       string `json:"apiBase"`
	APIKey        string `json:"apiKey,omitempty"`
	BotID         string `json:"botId,omitempty"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
}

// ProviderConfig configures one conversational-AI backend.
type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

// PersonaConfig points at an optional YAML file overriding the built-in
// persona texts (system prompt, greeting, help, apology).
type PersonaConfig struct {
	File string `json:"file,omitempty"`
}

// StoreConfig configures the SQLite event store. Dedup controls whether
// duplicate webhook deliveries (same event_id) are suppressed.
type StoreConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath"`
	Dedup         bool   `json:"dedup"`
	RetentionDays int    `json:"retentionDays"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// DefaultConfigDir returns the default config directory (~/.orunmila).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".orunmila"
	}
	return filepath.Join(home, ".orunmila")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Persona.File = ExpandPath(cfg.Persona.File)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.MaxConcurrentTasks < 1 || cfg.General.MaxConcurrentTasks > 1000 {
		errs = append(errs, "general.maxConcurrentTasks must be between 1 and 1000")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if cfg.Telex.APIBase == "" {
		errs = append(errs, "telex.apiBase is required")
	}

	if cfg.General.DefaultProvider != "" {
		if _, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
			errs = append(errs, fmt.Sprintf("general.defaultProvider references unknown provider: %s", cfg.General.DefaultProvider))
		}
	}
	for name, pc := range cfg.Providers {
		if pc.Enabled && pc.APIBase == "" {
			errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required", name))
		}
	}

	if cfg.Store.Enabled {
		if cfg.Store.DBPath == "" {
			errs = append(errs, "store.dbPath is required when the store is enabled")
		}
		if cfg.Store.RetentionDays < 1 {
			errs = append(errs, "store.retentionDays must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
