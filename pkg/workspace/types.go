// Package workspace loads several todo.txt lists at once.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ListConfig describes one todo file in the workspace.
type ListConfig struct {
	// Path is the file path, relative to the workspace root unless absolute.
	Path string `yaml:"path"`

	// Name is a display name. Defaults to the file name without ".txt".
	Name string `yaml:"name,omitempty"`

	// Enabled defaults to true when nil.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// GetName returns the display name of the list.
func (l ListConfig) GetName() string {
	if l.Name != "" {
		return l.Name
	}
	return strings.TrimSuffix(filepath.Base(l.Path), ".txt")
}

// IsEnabled reports whether the list should be loaded.
func (l ListConfig) IsEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// Config is the set of lists to load.
type Config struct {
	Lists []ListConfig `yaml:"lists"`
}

// ErrNoLists is returned by Validate for a config without lists.
var ErrNoLists = errors.New("workspace has no lists")

// Validate checks that the config names at least one list and no list
// appears twice.
func (c *Config) Validate() error {
	if len(c.Lists) == 0 {
		return ErrNoLists
	}
	seen := make(map[string]bool, len(c.Lists))
	for i, l := range c.Lists {
		if strings.TrimSpace(l.Path) == "" {
			return fmt.Errorf("list %d: empty path", i)
		}
		key := filepath.Clean(l.Path)
		if seen[key] {
			return fmt.Errorf("list %d: duplicate path %s", i, l.Path)
		}
		seen[key] = true
	}
	return nil
}

// NewConfig builds a config for the main todo file plus extra lists.
// Extra paths equal to todoPath are skipped.
func NewConfig(todoPath string, extra ...string) *Config {
	cfg := &Config{Lists: []ListConfig{{Path: todoPath}}}
	for _, p := range extra {
		if p == "" || filepath.Clean(p) == filepath.Clean(todoPath) {
			continue
		}
		cfg.Lists = append(cfg.Lists, ListConfig{Path: p})
	}
	return cfg
}
