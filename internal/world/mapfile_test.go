package world

import (
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/physics"
	"mapbuilder3d/internal/shape"
)

const corridorYAML = `
name: corridor
shapes:
  ball:
    Ball:
      radius: 1
walkers:
  - name: left
    tags: [runner]
    position: [0, 0, 0]
    velocity: [1, 0, 0]
    shape: ball
  - name: right
    position: [10, 0, 0]
    velocity: [-1, 0, 0]
    shape: ball
obstacles:
  - name: wall
    position: [0, -5, 0]
    inline:
      Cuboid:
        half_extents: [20, 1, 20]
`

func quietOptions() physics.Options {
	return physics.Options{Logger: log.New(io.Discard)}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadMapYAML(t *testing.T) {
	m, err := LoadMap(writeFile(t, "corridor.yaml", corridorYAML))
	if err != nil {
		t.Fatalf("LoadMap() error: %v", err)
	}

	if m.Name != "corridor" {
		t.Errorf("Name: got %q, want corridor", m.Name)
	}
	if len(m.Walkers) != 2 || len(m.Obstacles) != 1 {
		t.Fatalf("Expected 2 walkers and 1 obstacle, got %d and %d", len(m.Walkers), len(m.Obstacles))
	}
	if _, ok := m.Shapes["ball"].Shape.(shape.Ball); !ok {
		t.Errorf("Expected ball shape, got %v", m.Shapes["ball"].Shape)
	}
	if m.Obstacles[0].Inline == nil || m.Obstacles[0].Inline.Shape.Kind() != shape.KindCuboid {
		t.Error("Expected inline cuboid obstacle")
	}
}

func TestBuildSharesHandlesAndRuns(t *testing.T) {
	m, err := LoadMap(writeFile(t, "corridor.yaml", corridorYAML))
	if err != nil {
		t.Fatalf("LoadMap() error: %v", err)
	}

	w, err := m.Build(quietOptions())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	left := w.Walkers[0].(*physics.WalkingObject)
	right := w.Walkers[1].(*physics.WalkingObject)
	if left.ShapeHandle() != right.ShapeHandle() {
		t.Error("Walkers referencing the same shape should share one handle")
	}
	if left.Name != "left" || len(left.Tags) != 1 || left.Tags[0] != "runner" {
		t.Errorf("Name and tags not carried over: %q %v", left.Name, left.Tags)
	}

	w.Update(100)

	if got := left.Position()[0]; math.Abs(got-4) > 1e-6 {
		t.Errorf("Expected left walker at x=4, got %f", got)
	}
	if got := right.Position()[0]; math.Abs(got-6) > 1e-6 {
		t.Errorf("Expected right walker at x=6, got %f", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"level.json", "level.yaml"} {
		t.Run(name, func(t *testing.T) {
			m, err := Decode([]byte(corridorYAML), FormatYAML)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			w, err := m.Build(quietOptions())
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			walker := w.Walkers[0].(*physics.WalkingObject)
			walker.ShapeOffset = physics.CustomOffset(shape.Offset(0, 0.5, 0))

			captured := Capture(w, m.Library())
			path := filepath.Join(t.TempDir(), name)
			if err := SaveMap(path, captured); err != nil {
				t.Fatalf("SaveMap() error: %v", err)
			}

			loaded, err := LoadMap(path)
			if err != nil {
				t.Fatalf("LoadMap() error: %v", err)
			}
			if len(loaded.Walkers) != 2 || len(loaded.Obstacles) != 1 {
				t.Fatalf("Expected 2 walkers and 1 obstacle, got %d and %d", len(loaded.Walkers), len(loaded.Obstacles))
			}

			got := loaded.Walkers[0]
			if got.Shape != "ball" || got.Inline != nil {
				t.Errorf("Library shape should be saved by name, got shape=%q inline=%v", got.Shape, got.Inline)
			}
			if got.Velocity != (mgl64.Vec3{1, 0, 0}) {
				t.Errorf("Velocity: got %v", got.Velocity)
			}
			if got.Offset == nil || got.Offset.Translation != (mgl64.Vec3{0, 0.5, 0}) {
				t.Errorf("Custom offset lost: %v", got.Offset)
			}
			if wall := loaded.Obstacles[0]; wall.Inline == nil || wall.Position != (mgl64.Vec3{0, -5, 0}) {
				t.Errorf("Inline obstacle not preserved: %+v", wall)
			}
		})
	}
}

func TestCaptureRotation(t *testing.T) {
	rot := mgl64.Vec3{0, math.Pi / 2, 0}
	m := &Map{
		Shapes:    map[string]shape.Record{"box": {Shape: shape.Cuboid{HalfExtents: mgl64.Vec3{1, 2, 3}}}},
		Obstacles: []EntityDef{{Name: "box", Position: mgl64.Vec3{1, 2, 3}, Rotation: rot, Shape: "box"}},
	}
	w, err := m.Build(quietOptions())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	got := Capture(w, m.Library()).Obstacles[0]
	if !got.Rotation.ApproxEqualThreshold(rot, 1e-9) {
		t.Errorf("Rotation: got %v, want %v", got.Rotation, rot)
	}
	if got.Position != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Position: got %v", got.Position)
	}
}

func TestValidateErrors(t *testing.T) {
	ball := &shape.Record{Shape: shape.Ball{Radius: 1}}
	shapes := map[string]shape.Record{"ball": {Shape: shape.Ball{Radius: 1}}}

	tests := []struct {
		name string
		m    Map
		want error
	}{
		{"no shape", Map{Walkers: []EntityDef{{Name: "a"}}}, ErrInvalidEntry},
		{"both sources", Map{Shapes: shapes, Walkers: []EntityDef{{Name: "a", Shape: "ball", Inline: ball}}}, ErrInvalidEntry},
		{"unknown ref", Map{Walkers: []EntityDef{{Name: "a", Shape: "ghost"}}}, shape.ErrUnknownShape},
		{"moving obstacle", Map{Obstacles: []EntityDef{{Name: "o", Inline: ball, Velocity: mgl64.Vec3{1, 0, 0}}}}, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
			if _, err := tt.m.Build(quietOptions()); err == nil {
				t.Error("Build() should fail on an invalid map")
			}
		})
	}
}

func TestLoadMapErrors(t *testing.T) {
	if _, err := LoadMap(filepath.Join(t.TempDir(), "level.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := LoadMap(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
	bad := writeFile(t, "bad.json", `{"walkers":[{"name":"a","inline":{"Blob":{}}}]}`)
	if _, err := LoadMap(bad); !errors.Is(err, shape.ErrUnknownTag) {
		t.Errorf("Expected shape.ErrUnknownTag, got %v", err)
	}
}

func TestSampleMaps(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "assets", "maps", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no sample maps")
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			m, err := LoadMap(path)
			if err != nil {
				t.Fatalf("LoadMap() error: %v", err)
			}
			w, err := m.Build(quietOptions())
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			for i := 0; i < 120; i++ {
				w.Update(1.0 / 60.0)
			}
			if failed := w.Stats().Failed; failed != 0 {
				t.Errorf("Expected no failed pairs, got %d", failed)
			}
			for _, c := range w.Walkers {
				if !c.Pose().IsFinite() {
					t.Errorf("Walker %v has a non-finite pose", c)
				}
			}
		})
	}
}
