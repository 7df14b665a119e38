package world

import (
	"fmt"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/physics"
	"mapbuilder3d/internal/shape"
)

// Library lowers the map's shape table once. Entities that reference the
// same name share one handle.
func (m *Map) Library() *shape.Library {
	if m.lib == nil {
		m.lib = shape.NewLibrary()
		m.lib.LoadRecords(m.Shapes)
	}
	return m.lib
}

func (m *Map) handleFor(def EntityDef) (*shape.Handle, error) {
	if def.Inline != nil {
		if def.Inline.Shape == nil {
			return nil, fmt.Errorf("%w: %q has an empty inline shape", ErrInvalidEntry, def.Name)
		}
		return shape.NewHandle(def.Inline.Shape), nil
	}
	return m.Library().Get(def.Shape)
}

func (def EntityDef) pose() geom.Iso {
	return geom.NewIso(def.Position, shape.ScaledAxisQuat(def.Rotation))
}

// Build creates a physics world holding every entity of the map.
func (m *Map) Build(opts physics.Options) (*physics.World, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	w := physics.NewWorld(opts)

	for _, def := range m.Walkers {
		h, err := m.handleFor(def)
		if err != nil {
			return nil, fmt.Errorf("walker %q: %w", def.Name, err)
		}
		offset := physics.PositionOffset{}
		if def.Offset != nil {
			offset = physics.CustomOffset(*def.Offset)
		}
		obj := physics.NewWalkingObject(h, def.pose(), def.Velocity, offset)
		obj.Name = def.Name
		obj.Tags = def.Tags
		w.AddWalker(obj)
	}

	for _, def := range m.Obstacles {
		h, err := m.handleFor(def)
		if err != nil {
			return nil, fmt.Errorf("obstacle %q: %w", def.Name, err)
		}
		obj := physics.NewObstacleObject(h, def.pose())
		obj.Name = def.Name
		obj.Tags = def.Tags
		w.AddObstacle(obj)
	}

	return w, nil
}

// Capture writes the current state of w back into a Map. Shapes found in
// lib are saved by name; any other shape is inlined. Entities that are not
// WalkingObject or ObstacleObject are skipped.
func Capture(w *physics.World, lib *shape.Library) *Map {
	m := &Map{}
	if lib != nil && lib.Len() > 0 {
		m.Shapes = lib.Records()
	}

	source := func(def *EntityDef, h *shape.Handle) {
		if lib != nil {
			if name, ok := lib.NameOf(h); ok {
				def.Shape = name
				return
			}
		}
		if h != nil && h.Shape() != nil {
			def.Inline = &shape.Record{Shape: h.Shape()}
		}
	}

	for _, c := range w.Walkers {
		obj, ok := c.(*physics.WalkingObject)
		if !ok {
			continue
		}
		t := shape.FromIso(obj.Pose())
		def := EntityDef{
			Name:     obj.Name,
			Tags:     obj.Tags,
			Position: t.Translation,
			Rotation: t.Rotation,
			Velocity: obj.Velocity(),
		}
		if obj.ShapeOffset.Custom != nil {
			custom := *obj.ShapeOffset.Custom
			def.Offset = &custom
		}
		source(&def, obj.ShapeHandle())
		m.Walkers = append(m.Walkers, def)
	}

	for _, c := range w.Obstacles {
		obj, ok := c.(*physics.ObstacleObject)
		if !ok {
			continue
		}
		t := shape.FromIso(obj.Pose())
		def := EntityDef{
			Name:     obj.Name,
			Tags:     obj.Tags,
			Position: t.Translation,
			Rotation: t.Rotation,
		}
		source(&def, obj.ShapeHandle())
		m.Obstacles = append(m.Obstacles, def)
	}

	m.lib = lib
	return m
}
