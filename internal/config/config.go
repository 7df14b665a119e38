package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/physics"
)

// Settings are the runtime knobs shared by the command line tools.
type Settings struct {
	// Resolution is the moving-vs-moving policy: symmetric or speed_weighted.
	Resolution string  `yaml:"resolution"`
	MinSpeed   float64 `yaml:"minSpeed"`

	Workers    int     `yaml:"workers"` // 0 means one per CPU
	Broadphase bool    `yaml:"broadphase"`
	CellSize   float64 `yaml:"cellSize"`

	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"maxIterations"`

	// Fixed timestep in seconds and the catch-up cap per tick.
	Step     float64 `yaml:"step"`
	MaxSteps int     `yaml:"maxSteps"`

	LogLevel string `yaml:"logLevel"`
	AppName  string `yaml:"appName"` // saved map slots live under this name
}

func Default() *Settings {
	return &Settings{
		Resolution:    "symmetric",
		MinSpeed:      physics.DefaultMinSpeed,
		Workers:       0,
		Broadphase:    true,
		CellSize:      physics.DefaultCellSize,
		Tolerance:     geom.DefaultQuery.Tolerance,
		MaxIterations: geom.DefaultQuery.MaxIterations,
		Step:          1.0 / 60.0,
		MaxSteps:      5,
		LogLevel:      "info",
		AppName:       "mapbuilder3d",
	}
}

// Load reads settings from path. A missing file yields Default with no
// error; fields absent from the file keep their default values.
func Load(path string) (*Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the fields that have no safe fallback.
func (s *Settings) Validate() error {
	if _, err := s.Resolver(); err != nil {
		return err
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	if s.Tolerance < 0 || s.CellSize < 0 || s.Step < 0 || s.MinSpeed < 0 {
		return fmt.Errorf("negative tolerance, cell size, step or speed")
	}
	return nil
}

func (s *Settings) Resolver() (physics.Resolver, error) {
	return physics.ParseResolver(s.Resolution, s.MinSpeed)
}

func (s *Settings) Level() (log.Level, error) {
	return log.ParseLevel(strings.ToLower(s.LogLevel))
}

// WorldOptions maps the settings onto physics.Options. The logger is left
// for the caller to set.
func (s *Settings) WorldOptions() (physics.Options, error) {
	r, err := s.Resolver()
	if err != nil {
		return physics.Options{}, err
	}
	return physics.Options{
		Query: geom.Query{
			Tolerance:     s.Tolerance,
			MaxIterations: s.MaxIterations,
		},
		Resolver:   r,
		Workers:    s.Workers,
		Broadphase: s.Broadphase,
		CellSize:   s.CellSize,
	}, nil
}
