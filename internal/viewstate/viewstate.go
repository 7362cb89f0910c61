// Package viewstate persists per-view configuration: flat user settings as
// YAML and the tree layout (which nodes the user expanded) as JSON. Both are
// best-effort stores; a missing or corrupt file degrades to defaults.
package viewstate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	settingsFileName = "settings.yaml"
	layoutFileName   = "tree-state.json"

	// LayoutVersion is the schema version of the persisted layout file.
	LayoutVersion = 1
)

// Settings are the flat view toggles persisted across runs. No schema
// validation happens here; unknown keys are dropped on rewrite.
type Settings struct {
	Theme        string   `yaml:"theme"`
	Watch        bool     `yaml:"watch"`
	PageSize     int      `yaml:"page_size"`
	Repositories []string `yaml:"repositories"`
}

func DefaultSettings() Settings {
	return Settings{Theme: "auto", Watch: true}
}

// Layout records explicit expand/collapse choices by node id. Nodes absent
// from the map use the view's default behavior.
type Layout struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

func DefaultLayout() Layout {
	return Layout{Version: LayoutVersion, Expanded: make(map[string]bool)}
}

// Store reads and writes view state rooted at a directory. An empty dir
// disables persistence entirely.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) LoadSettings() Settings {
	settings := DefaultSettings()
	if s.dir == "" {
		return settings
	}
	data, err := os.ReadFile(filepath.Join(s.dir, settingsFileName))
	if err != nil {
		return settings
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		slog.Error("invalid settings file, using defaults", slog.Any("error", err))
		return DefaultSettings()
	}
	return settings
}

func (s *Store) SaveSettings(settings Settings) error {
	if s.dir == "" {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.write(settingsFileName, data)
}

func (s *Store) LoadLayout() Layout {
	layout := DefaultLayout()
	if s.dir == "" {
		return layout
	}
	data, err := os.ReadFile(filepath.Join(s.dir, layoutFileName))
	if err != nil {
		return layout
	}
	var loaded Layout
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Error("invalid layout file, using defaults", slog.Any("error", err))
		return layout
	}
	if loaded.Version != LayoutVersion {
		slog.Debug("layout schema version mismatch, using defaults",
			slog.Int("version", loaded.Version))
		return layout
	}
	if loaded.Expanded == nil {
		loaded.Expanded = make(map[string]bool)
	}
	return loaded
}

func (s *Store) SaveLayout(layout Layout) error {
	if s.dir == "" {
		return nil
	}
	layout.Version = LayoutVersion
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	return s.write(layoutFileName, data)
}

func (s *Store) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
