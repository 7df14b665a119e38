// Package mapstore keeps named map slots in the per-user data directory.
package mapstore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/quasilyte/gdata/v2"

	"mapbuilder3d/internal/world"
)

// ErrSlotNotFound is returned when loading or deleting a slot that was
// never saved.
var ErrSlotNotFound = errors.New("map slot not found")

const mapsObject = "maps"

// Store saves maps as YAML properties of a single gdata object.
type Store struct {
	manager *gdata.Manager
	logger  *log.Logger
}

// Open creates the data directory for appName if needed.
func Open(appName string) (*Store, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open map store: %w", err)
	}
	return &Store{
		manager: manager,
		logger:  log.Default().WithPrefix("mapstore"),
	}, nil
}

func (s *Store) Exists(name string) bool {
	return s.manager.ObjectPropExists(mapsObject, name)
}

func (s *Store) Save(name string, m *world.Map) error {
	if name == "" {
		return fmt.Errorf("save map: empty slot name")
	}
	data, err := world.Encode(m, world.FormatYAML)
	if err != nil {
		return fmt.Errorf("save map %q: %w", name, err)
	}
	if err := s.manager.SaveObjectProp(mapsObject, name, data); err != nil {
		return fmt.Errorf("save map %q: %w", name, err)
	}
	s.logger.Debug("saved map", "slot", name, "bytes", len(data))
	return nil
}

func (s *Store) Load(name string) (*world.Map, error) {
	if !s.Exists(name) {
		return nil, fmt.Errorf("%w: %q", ErrSlotNotFound, name)
	}
	data, err := s.manager.LoadObjectProp(mapsObject, name)
	if err != nil {
		return nil, fmt.Errorf("load map %q: %w", name, err)
	}
	m, err := world.Decode(data, world.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("load map %q: %w", name, err)
	}
	return m, nil
}

func (s *Store) Delete(name string) error {
	if !s.Exists(name) {
		return fmt.Errorf("%w: %q", ErrSlotNotFound, name)
	}
	if err := s.manager.DeleteObjectProp(mapsObject, name); err != nil {
		return fmt.Errorf("delete map %q: %w", name, err)
	}
	s.logger.Debug("deleted map", "slot", name)
	return nil
}

// List returns the saved slot names in sorted order.
func (s *Store) List() ([]string, error) {
	if !s.manager.ObjectExists(mapsObject) {
		return nil, nil
	}
	names, err := s.manager.ListObjectProps(mapsObject)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
