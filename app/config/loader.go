package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the target worklist
type Loader struct {
	path string
}

// NewLoader creates a new worklist loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load loads the YAML worklist file. A missing file yields an empty
// worklist, which is valid when online discovery is enabled.
func (l *Loader) Load() (*Targets, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return &Targets{}, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var targets Targets
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.normalize(&targets)

	if err := l.validate(&targets); err != nil {
		return nil, fmt.Errorf("invalid worklist %s: %w", l.path, err)
	}

	return &targets, nil
}

// normalize trims identifiers and drops duplicates, keeping first occurrence
func (l *Loader) normalize(targets *Targets) {
	seen := make(map[string]bool)
	kept := make([]Target, 0, len(targets.Targets))

	for _, target := range targets.Targets {
		target.Identifier = strings.TrimSpace(target.Identifier)
		if seen[target.Identifier] {
			continue
		}
		seen[target.Identifier] = true
		kept = append(kept, target)
	}

	targets.Targets = kept
}

// validate validates the worklist
func (l *Loader) validate(targets *Targets) error {
	for i, target := range targets.Targets {
		if target.Identifier == "" {
			return fmt.Errorf("target at index %d has an empty identifier", i)
		}
		if strings.ContainsAny(target.Identifier, " /") {
			return fmt.Errorf("target at index %d has an invalid identifier: %s", i, target.Identifier)
		}
	}
	return nil
}
