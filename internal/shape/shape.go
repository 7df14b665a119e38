// Package shape describes collision geometry as a closed set of variants
// that can be saved with a map and lowered to native solids for queries.
package shape

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies a shape variant. Its string form is the record tag.
type Kind int

const (
	KindBall Kind = iota
	KindCapsule
	KindConvexHull
	KindCuboid
	KindHeightField
	KindPlane
	KindSegment
	KindTriMesh
	KindTriangle
	KindCompound
)

var kindTags = [...]string{
	KindBall:        "Ball",
	KindCapsule:     "Capsule",
	KindConvexHull:  "ConvexHull",
	KindCuboid:      "Cuboid",
	KindHeightField: "HeightField",
	KindPlane:       "Plane",
	KindSegment:     "Segment",
	KindTriMesh:     "TriMesh",
	KindTriangle:    "Triangle",
	KindCompound:    "Compound",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTags) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTags[k]
}

// ParseKind maps a record tag back to its Kind.
func ParseKind(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// Shape is pure geometry with no pose. Shapes are treated as immutable once
// built so one value can back many entities.
type Shape interface {
	Kind() Kind
	String() string
	isShape()
}

// Ball is a sphere of the given radius around the origin.
type Ball struct {
	Radius float64 `json:"radius" yaml:"radius"`
}

// Capsule is aligned with the Y axis, its segment spanning ±HalfHeight.
type Capsule struct {
	HalfHeight float64 `json:"half_height" yaml:"half_height"`
	Radius     float64 `json:"radius" yaml:"radius"`
}

type ConvexHull struct {
	Points []mgl64.Vec3 `json:"points" yaml:"points"`
}

type Cuboid struct {
	HalfExtents mgl64.Vec3 `json:"half_extents" yaml:"half_extents"`
}

// HeightField is a grid of heights in row-major order. Dimensions holds
// {rows, cols}. The grid spans [-0.5, 0.5] on X (columns) and Z (rows)
// before Scale is applied; a zero Scale means unit scale.
type HeightField struct {
	Heights    []float64  `json:"heights" yaml:"heights"`
	Dimensions [2]int     `json:"dimensions" yaml:"dimensions"`
	Scale      mgl64.Vec3 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Plane is the half-space below the plane through the origin with the
// given outward normal.
type Plane struct {
	Normal mgl64.Vec3 `json:"normal" yaml:"normal"`
}

type Segment struct {
	A mgl64.Vec3 `json:"a" yaml:"a"`
	B mgl64.Vec3 `json:"b" yaml:"b"`
}

type TriMesh struct {
	Points  []mgl64.Vec3 `json:"points" yaml:"points"`
	Indices [][3]int     `json:"indices" yaml:"indices"`
}

type Triangle struct {
	A mgl64.Vec3 `json:"a" yaml:"a"`
	B mgl64.Vec3 `json:"b" yaml:"b"`
	C mgl64.Vec3 `json:"c" yaml:"c"`
}

// Compound rigidly joins parts, each at its own offset. Parts may be
// compounds themselves.
type Compound struct {
	Parts []Part `json:"parts" yaml:"parts"`
}

// Part is one member of a Compound.
type Part struct {
	Transform Transform
	Shape     Shape
}

func (Ball) Kind() Kind        { return KindBall }
func (Capsule) Kind() Kind     { return KindCapsule }
func (ConvexHull) Kind() Kind  { return KindConvexHull }
func (Cuboid) Kind() Kind      { return KindCuboid }
func (HeightField) Kind() Kind { return KindHeightField }
func (Plane) Kind() Kind       { return KindPlane }
func (Segment) Kind() Kind     { return KindSegment }
func (TriMesh) Kind() Kind     { return KindTriMesh }
func (Triangle) Kind() Kind    { return KindTriangle }
func (Compound) Kind() Kind    { return KindCompound }

func (Ball) isShape()        {}
func (Capsule) isShape()     {}
func (ConvexHull) isShape()  {}
func (Cuboid) isShape()      {}
func (HeightField) isShape() {}
func (Plane) isShape()       {}
func (Segment) isShape()     {}
func (TriMesh) isShape()     {}
func (Triangle) isShape()    {}
func (Compound) isShape()    {}

// String forms summarize bulk data so meshes with thousands of vertices
// stay readable in logs.

func (s Ball) String() string { return fmt.Sprintf("Ball(radius=%g)", s.Radius) }

func (s Capsule) String() string {
	return fmt.Sprintf("Capsule(half_height=%g, radius=%g)", s.HalfHeight, s.Radius)
}

func (s ConvexHull) String() string { return fmt.Sprintf("ConvexHull(points=%d)", len(s.Points)) }

func (s Cuboid) String() string { return fmt.Sprintf("Cuboid(half_extents=%v)", s.HalfExtents) }

func (s HeightField) String() string {
	return fmt.Sprintf("HeightField(rows=%d, cols=%d, heights=%d)", s.Dimensions[0], s.Dimensions[1], len(s.Heights))
}

func (s Plane) String() string { return fmt.Sprintf("Plane(normal=%v)", s.Normal) }

func (s Segment) String() string { return fmt.Sprintf("Segment(a=%v, b=%v)", s.A, s.B) }

func (s TriMesh) String() string {
	return fmt.Sprintf("TriMesh(points=%d, triangles=%d)", len(s.Points), len(s.Indices))
}

func (s Triangle) String() string { return fmt.Sprintf("Triangle(a=%v, b=%v, c=%v)", s.A, s.B, s.C) }

func (s Compound) String() string {
	return fmt.Sprintf("Compound(parts=%d, depth=%d)", len(s.Parts), Depth(s))
}

// Depth is the nesting depth of s: 0 for primitives, 1 for a compound of
// primitives, and so on.
func Depth(s Shape) int {
	c, ok := s.(Compound)
	if !ok {
		return 0
	}
	deepest := 0
	for _, p := range c.Parts {
		if d := Depth(p.Shape); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Clone returns a deep copy of s that shares no slices with it.
func Clone(s Shape) Shape {
	switch v := s.(type) {
	case ConvexHull:
		v.Points = append([]mgl64.Vec3(nil), v.Points...)
		return v
	case HeightField:
		v.Heights = append([]float64(nil), v.Heights...)
		return v
	case TriMesh:
		v.Points = append([]mgl64.Vec3(nil), v.Points...)
		v.Indices = append([][3]int(nil), v.Indices...)
		return v
	case Compound:
		parts := make([]Part, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = Part{Transform: p.Transform, Shape: Clone(p.Shape)}
		}
		return Compound{Parts: parts}
	default:
		return s
	}
}
