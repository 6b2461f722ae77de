package persona

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a persona override file in YAML. Fields left empty in the
// file keep their built-in defaults, so operators can override just the
// greeting or just the prompt.
func Load(path string, logger *slog.Logger) (*Persona, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}

	var override Persona
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse persona file %s: %w", path, err)
	}

	if override.Name != "" {
		p.Name = override.Name
	}
	if override.SystemPrompt != "" {
		p.SystemPrompt = override.SystemPrompt
	}
	if override.Greeting != "" {
		p.Greeting = override.Greeting
	}
	if override.Help != "" {
		p.Help = override.Help
	}
	if override.Apology != "" {
		p.Apology = override.Apology
	}
	if override.Fallback != "" {
		p.Fallback = override.Fallback
	}

	logger.Info("persona loaded", "name", p.Name, "path", path)
	return p, nil
}
