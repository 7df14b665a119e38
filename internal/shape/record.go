package shape

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTag is returned when a record names no known variant.
	ErrUnknownTag = errors.New("unknown shape tag")
	// ErrBadRecord is returned when a record does not hold exactly one variant.
	ErrBadRecord = errors.New("shape record must hold exactly one variant")
	// ErrNilShape is returned when encoding a missing shape.
	ErrNilShape = errors.New("nil shape")
)

// Record wraps a Shape so it encodes as a single-key mapping from the
// variant tag to the variant's fields, e.g. {"Ball": {"radius": 1}}.
type Record struct {
	Shape Shape
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Shape == nil {
		return nil, ErrNilShape
	}
	body, err := json.Marshal(r.Shape)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Shape.Kind(), err)
	}
	return json.Marshal(map[string]json.RawMessage{r.Shape.Kind().String(): body})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode shape record: %w", err)
	}
	if len(fields) != 1 {
		return fmt.Errorf("%w: got %d keys", ErrBadRecord, len(fields))
	}
	for tag, body := range fields {
		s, err := decodeVariant(tag, func(v any) error { return json.Unmarshal(body, v) })
		if err != nil {
			return err
		}
		r.Shape = s
	}
	return nil
}

func (r Record) MarshalYAML() (interface{}, error) {
	if r.Shape == nil {
		return nil, ErrNilShape
	}
	return map[string]interface{}{r.Shape.Kind().String(): r.Shape}, nil
}

func (r *Record) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d is not a mapping", ErrBadRecord, value.Line)
	}
	if len(value.Content) != 2 {
		return fmt.Errorf("%w: line %d has %d keys", ErrBadRecord, value.Line, len(value.Content)/2)
	}
	tag, body := value.Content[0].Value, value.Content[1]
	s, err := decodeVariant(tag, body.Decode)
	if err != nil {
		return err
	}
	r.Shape = s
	return nil
}

// decodeVariant builds the variant named by tag from its encoded body.
func decodeVariant(tag string, decode func(any) error) (Shape, error) {
	kind, ok := ParseKind(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}

	var s Shape
	var err error
	switch kind {
	case KindBall:
		var v Ball
		err = decode(&v)
		s = v
	case KindCapsule:
		var v Capsule
		err = decode(&v)
		s = v
	case KindConvexHull:
		var v ConvexHull
		err = decode(&v)
		s = v
	case KindCuboid:
		var v Cuboid
		err = decode(&v)
		s = v
	case KindHeightField:
		var v HeightField
		err = decode(&v)
		s = v
	case KindPlane:
		var v Plane
		err = decode(&v)
		s = v
	case KindSegment:
		var v Segment
		err = decode(&v)
		s = v
	case KindTriMesh:
		var v TriMesh
		err = decode(&v)
		s = v
	case KindTriangle:
		var v Triangle
		err = decode(&v)
		s = v
	case KindCompound:
		var v Compound
		err = decode(&v)
		s = v
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return s, nil
}

type partRecord struct {
	Transform Transform `json:"transform" yaml:"transform"`
	Shape     Record    `json:"shape" yaml:"shape"`
}

func (p Part) MarshalJSON() ([]byte, error) {
	return json.Marshal(partRecord{Transform: p.Transform, Shape: Record{Shape: p.Shape}})
}

func (p *Part) UnmarshalJSON(data []byte) error {
	var rec partRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Shape.Shape == nil {
		return fmt.Errorf("%w: compound part without shape", ErrBadRecord)
	}
	p.Transform, p.Shape = rec.Transform, rec.Shape.Shape
	return nil
}

func (p Part) MarshalYAML() (interface{}, error) {
	return partRecord{Transform: p.Transform, Shape: Record{Shape: p.Shape}}, nil
}

func (p *Part) UnmarshalYAML(value *yaml.Node) error {
	var rec partRecord
	if err := value.Decode(&rec); err != nil {
		return err
	}
	if rec.Shape.Shape == nil {
		return fmt.Errorf("%w: compound part without shape", ErrBadRecord)
	}
	p.Transform, p.Shape = rec.Transform, rec.Shape.Shape
	return nil
}

// MarshalJSON encodes s as a tagged record.
func MarshalJSON(s Shape) ([]byte, error) {
	return json.Marshal(Record{Shape: s})
}

// UnmarshalJSON decodes a tagged record.
func UnmarshalJSON(data []byte) (Shape, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r.Shape, nil
}
