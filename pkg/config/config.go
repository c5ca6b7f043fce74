// Package config handles loading and saving tq configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tq/config.yaml
//   - Data:    ~/.local/share/tq/ (saved views)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "tq"

// SortConfig holds the default task ordering.
type SortConfig struct {
	OrderBy    string `yaml:"order_by,omitempty"` // priority, context, project, creation_date, due_date, description, raw_line
	Descending bool   `yaml:"descending,omitempty"`
}

// ViewsConfig selects the saved view store.
type ViewsConfig struct {
	Backend string `yaml:"backend,omitempty"` // json or sqlite
	Path    string `yaml:"path,omitempty"`    // Defaults to the data dir
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	ShowFacets string  `yaml:"show_facets,omitempty"` // project, context, priority, due
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // Facet sidebar width ratio (0.1-0.5)
}

// WatchConfig controls live reload.
type WatchConfig struct {
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for tq.
type Config struct {
	TodoFile     string      `yaml:"todo_file,omitempty"`
	DoneFile     string      `yaml:"done_file,omitempty"`
	Lists        []string    `yaml:"lists,omitempty"`
	DefaultQuery string      `yaml:"default_query,omitempty"`
	Sort         SortConfig  `yaml:"sort,omitempty"`
	Views        ViewsConfig `yaml:"views,omitempty"`
	UI           UIConfig    `yaml:"ui,omitempty"`
	Watch        WatchConfig `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DoneFile: "done.txt",
		Sort: SortConfig{
			OrderBy: "priority",
		},
		Views: ViewsConfig{
			Backend: "json",
		},
		UI: UIConfig{
			ShowFacets: "project",
			SplitRatio: 0.25,
		},
		Watch: WatchConfig{
			PollInterval: 2 * time.Second,
		},
	}
}

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks enumerated fields and ranges.
func (c Config) Validate() error {
	switch c.Views.Backend {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("%w: views.backend %q (want json or sqlite)", ErrInvalid, c.Views.Backend)
	}
	if c.UI.SplitRatio != 0 && (c.UI.SplitRatio < 0.1 || c.UI.SplitRatio > 0.5) {
		return fmt.Errorf("%w: ui.split_ratio %.2f out of range 0.1-0.5", ErrInvalid, c.UI.SplitRatio)
	}
	if c.Watch.PollInterval < 0 {
		return fmt.Errorf("%w: watch.poll_interval must not be negative", ErrInvalid)
	}
	if strings.ContainsAny(c.DoneFile, `/\`) {
		return fmt.Errorf("%w: done_file must be a file name, got %q", ErrInvalid, c.DoneFile)
	}
	return nil
}

// ConfigDir returns the XDG config directory for tq.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for tq.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.TodoFile = expandHome(cfg.TodoFile)
	cfg.Views.Path = expandHome(cfg.Views.Path)
	for i := range cfg.Lists {
		cfg.Lists[i] = expandHome(cfg.Lists[i])
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ViewsPath returns the saved view store location, defaulting to the data dir.
func (c Config) ViewsPath() string {
	if c.Views.Path != "" {
		return c.Views.Path
	}
	name := "views.json"
	if c.Views.Backend == "sqlite" {
		name = "views.sqlite3"
	}
	return filepath.Join(DataDir(), name)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
