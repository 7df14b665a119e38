package shape

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"mapbuilder3d/internal/geom"
)

// Handle pairs a shape with its lowered solid. The solid is built once and
// shared by every entity holding the handle; only the shape is encoded, and
// decoding rebuilds the solid.
type Handle struct {
	shape  Shape
	solid  geom.Solid
	bounds geom.AABB
}

// NewHandle lowers s and caches the result.
func NewHandle(s Shape) *Handle {
	h := &Handle{}
	h.set(s)
	return h
}

func (h *Handle) set(s Shape) {
	h.shape = s
	h.solid = ToSolid(s)
	h.bounds = h.solid.LocalAABB()
}

func (h *Handle) Shape() Shape { return h.shape }

func (h *Handle) Solid() geom.Solid { return h.solid }

// LocalAABB bounds the solid in its own frame.
func (h *Handle) LocalAABB() geom.AABB { return h.bounds }

func (h *Handle) String() string {
	if h == nil || h.shape == nil {
		return "<nil shape>"
	}
	return h.shape.String()
}

func (h *Handle) MarshalJSON() ([]byte, error) {
	return json.Marshal(Record{Shape: h.shape})
}

func (h *Handle) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode shape handle: %w", err)
	}
	h.set(r.Shape)
	return nil
}

func (h *Handle) MarshalYAML() (interface{}, error) {
	return Record{Shape: h.shape}, nil
}

func (h *Handle) UnmarshalYAML(value *yaml.Node) error {
	var r Record
	if err := value.Decode(&r); err != nil {
		return fmt.Errorf("decode shape handle: %w", err)
	}
	h.set(r.Shape)
	return nil
}
