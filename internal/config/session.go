package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// SessionConfig describes one usability testing session: the target URL,
// the persona to embody, and the tasks to attempt.
type SessionConfig struct {
	AppURL              string                      `yaml:"app_url"`
	PersonaType         string                      `yaml:"persona_type"`
	TestingInstructions []models.TestingInstruction `yaml:"testing_instructions"`
}

// ValidationError describes a session config that failed validation.
// Callers use it to distinguish bad input from runtime failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid session config: field %q: %s", e.Field, e.Reason)
}

// LoadSession reads and validates a session config from a YAML file.
// Validation is fail-fast: the first problem aborts the whole session
// before any browser or API work starts.
func LoadSession(path string) (*SessionConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("only YAML session configs (.yaml, .yml) are supported, got %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session config: %w", err)
	}

	cfg := &SessionConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing session config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *SessionConfig) Validate() error {
	if strings.TrimSpace(c.AppURL) == "" {
		return &ValidationError{Field: "app_url", Reason: "must be a non-empty string"}
	}
	if !strings.HasPrefix(c.AppURL, "http://") && !strings.HasPrefix(c.AppURL, "https://") {
		return &ValidationError{Field: "app_url", Reason: "must start with http:// or https://"}
	}
	if strings.TrimSpace(c.PersonaType) == "" {
		return &ValidationError{Field: "persona_type", Reason: "must be a non-empty string"}
	}

	for i := range c.TestingInstructions {
		if err := c.TestingInstructions[i].Validate(); err != nil {
			return &ValidationError{
				Field:  fmt.Sprintf("testing_instructions[%d]", i),
				Reason: err.Error(),
			}
		}
	}

	return nil
}

// HighPriorityCount returns how many instructions are marked high priority.
func (c *SessionConfig) HighPriorityCount() int {
	n := 0
	for _, in := range c.TestingInstructions {
		if in.Priority == models.PriorityHigh {
			n++
		}
	}
	return n
}
