package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"mapbuilder3d/internal/physics"
)

func TestDefault(t *testing.T) {
	s := Default()

	if s.Resolution != "symmetric" {
		t.Errorf("Resolution: got %q, want symmetric", s.Resolution)
	}
	if !s.Broadphase {
		t.Error("Broadphase: got false, want true")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Default settings should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *s != *Default() {
		t.Errorf("Missing file should give defaults, got %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	want := Default()
	want.Resolution = "speed_weighted"
	want.Workers = 3
	want.LogLevel = "debug"

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *got != *want {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Workers != 2 {
		t.Errorf("Workers: got %d, want 2", s.Workers)
	}
	if s.Step != Default().Step || s.AppName != Default().AppName {
		t.Error("Fields absent from the file should keep defaults")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown resolution", "resolution: sideways\n"},
		{"unknown level", "logLevel: loud\n"},
		{"negative step", "step: -1\n"},
		{"not yaml", "workers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestWorldOptions(t *testing.T) {
	s := Default()
	s.Resolution = "speed_weighted"
	s.MinSpeed = 0.5

	opts, err := s.WorldOptions()
	if err != nil {
		t.Fatalf("WorldOptions() error: %v", err)
	}
	if r, ok := opts.Resolver.(physics.SpeedWeighted); !ok || r.MinSpeed != 0.5 {
		t.Errorf("Expected SpeedWeighted{0.5}, got %v", opts.Resolver)
	}
	if !opts.Broadphase || opts.CellSize != physics.DefaultCellSize {
		t.Errorf("Broadphase options not carried over: %+v", opts)
	}

	lvl, err := s.Level()
	if err != nil || lvl != log.InfoLevel {
		t.Errorf("Level: got %v (%v), want info", lvl, err)
	}
}
