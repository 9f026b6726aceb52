// Package settings holds the user-tunable snapping and workspace options.
package settings

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"
	"gopkg.in/yaml.v3"
)

// GridSizeOptions are the selectable grid spacings in millimeters.
var GridSizeOptions = []float64{1, 10, 100}

// ErrInvalidGridSize is returned for a grid size not in GridSizeOptions.
var ErrInvalidGridSize = errors.New("grid size must be one of 1, 10, 100")

// Config is the on-disk settings file.
type Config struct {
	GridSize         float64       `yaml:"grid_size" json:"gridSize"`
	SnapToGrid       bool          `yaml:"snap_to_grid" json:"snapToGrid"`
	ContactThreshold float64       `yaml:"contact_threshold" json:"contactThreshold"`
	WorkAreaSize     float64       `yaml:"work_area_size" json:"workAreaSize"`
	AutosavePath     string        `yaml:"autosave_path,omitempty" json:"autosavePath,omitempty"`
	AutosaveDelay    time.Duration `yaml:"autosave_delay,omitempty" json:"autosaveDelay,omitempty"`
	LogLevel         string        `yaml:"log_level,omitempty" json:"logLevel,omitempty"`
}

// Default returns the factory settings.
func Default() Config {
	return Config{
		GridSize:         100,
		SnapToGrid:       true,
		ContactThreshold: 1,
		WorkAreaSize:     10000,
		AutosaveDelay:    2 * time.Second,
		LogLevel:         "info",
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if !slices.Contains(GridSizeOptions, c.GridSize) {
		return fmt.Errorf("%w: got %v", ErrInvalidGridSize, c.GridSize)
	}
	if c.ContactThreshold < 0 {
		return fmt.Errorf("contact_threshold must be >= 0, got %v", c.ContactThreshold)
	}
	if c.WorkAreaSize <= 0 {
		return fmt.Errorf("work_area_size must be > 0, got %v", c.WorkAreaSize)
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("autosave_delay must be >= 0, got %v", c.AutosaveDelay)
	}
	return nil
}

// Load reads a YAML settings file over the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c as YAML.
func Save(path string, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// Settings is the live, concurrency-safe view of a Config.
type Settings struct {
	mu  deadlock.RWMutex
	cfg Config
}

// New wraps cfg.
func New(cfg Config) *Settings {
	return &Settings{cfg: cfg}
}

// Config returns a copy of the current values.
func (s *Settings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Settings) GridSize() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.GridSize
}

func (s *Settings) SnapEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.SnapToGrid
}

func (s *Settings) ContactThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ContactThreshold
}

// SetGridSize selects one of GridSizeOptions.
func (s *Settings) SetGridSize(g float64) error {
	if !slices.Contains(GridSizeOptions, g) {
		return fmt.Errorf("%w: got %v", ErrInvalidGridSize, g)
	}
	s.mu.Lock()
	s.cfg.GridSize = g
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetSnapEnabled(on bool) {
	s.mu.Lock()
	s.cfg.SnapToGrid = on
	s.mu.Unlock()
}

// CycleGridSize steps 100 → 10 → 1 → 100 and returns the new size. An
// unrecognized current size restarts at the coarsest option.
func (s *Settings) CycleGridSize() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(GridSizeOptions, s.cfg.GridSize)
	n := len(GridSizeOptions)
	if i < 0 {
		s.cfg.GridSize = GridSizeOptions[n-1]
	} else {
		s.cfg.GridSize = GridSizeOptions[(i-1+n)%n]
	}
	return s.cfg.GridSize
}
