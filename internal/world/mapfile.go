package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"mapbuilder3d/internal/shape"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported map format")
	ErrInvalidEntry      = errors.New("invalid map entry")
)

// Format selects the encoding of a map file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// --- File types ---

// Map is a level: a table of named shapes plus the walkers and obstacles
// placed in it.
type Map struct {
	Name      string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Shapes    map[string]shape.Record `json:"shapes,omitempty" yaml:"shapes,omitempty"`
	Walkers   []EntityDef             `json:"walkers,omitempty" yaml:"walkers,omitempty"`
	Obstacles []EntityDef             `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`

	lib *shape.Library
}

// EntityDef places one entity. Exactly one of Shape (a name in the map's
// shape table) and Inline must be set. Rotation is a scaled axis.
type EntityDef struct {
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Tags     []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Position mgl64.Vec3       `json:"position" yaml:"position"`
	Rotation mgl64.Vec3       `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Velocity mgl64.Vec3       `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Shape    string           `json:"shape,omitempty" yaml:"shape,omitempty"`
	Inline   *shape.Record    `json:"inline,omitempty" yaml:"inline,omitempty"`
	Offset   *shape.Transform `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// --- Loading ---

func LoadMap(path string) (*Map, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses a map and checks every entry.
func Decode(data []byte, format Format) (*Map, error) {
	var m Map
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every entity names exactly one shape source and
// that referenced shapes exist.
func (m *Map) Validate() error {
	check := func(kind string, i int, def EntityDef) error {
		switch {
		case def.Shape == "" && def.Inline == nil:
			return fmt.Errorf("%w: %s %d (%q) has no shape", ErrInvalidEntry, kind, i, def.Name)
		case def.Shape != "" && def.Inline != nil:
			return fmt.Errorf("%w: %s %d (%q) has both shape and inline", ErrInvalidEntry, kind, i, def.Name)
		case def.Inline != nil && def.Inline.Shape == nil:
			return fmt.Errorf("%w: %s %d (%q) has an empty inline shape", ErrInvalidEntry, kind, i, def.Name)
		case def.Shape != "":
			if _, ok := m.Shapes[def.Shape]; !ok {
				return fmt.Errorf("%s %d (%q): %w: %q", kind, i, def.Name, shape.ErrUnknownShape, def.Shape)
			}
		}
		return nil
	}
	for i, def := range m.Walkers {
		if err := check("walker", i, def); err != nil {
			return err
		}
	}
	for i, def := range m.Obstacles {
		if def.Offset != nil || def.Velocity != (mgl64.Vec3{}) {
			return fmt.Errorf("%w: obstacle %d (%q) cannot have velocity or offset", ErrInvalidEntry, i, def.Name)
		}
		if err := check("obstacle", i, def); err != nil {
			return err
		}
	}
	return nil
}

// --- Saving ---

func SaveMap(path string, m *Map) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(m, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}

func Encode(m *Map, format Format) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(m, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(m)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("marshal map: %w", err)
	}
	return data, nil
}
