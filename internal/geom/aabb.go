package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. Unbounded solids use infinite extents.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns a box that contains nothing and unions as an identity.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// InfiniteAABB returns a box covering all of space.
func InfiniteAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{-inf, -inf, -inf},
		Max: mgl64.Vec3{inf, inf, inf},
	}
}

// NewAABBFromCenter creates an AABB from a center point and half extents.
func NewAABBFromCenter(center, half mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (a AABB) IsEmpty() bool {
	return a.Min[0] > a.Max[0] || a.Min[1] > a.Max[1] || a.Min[2] > a.Max[2]
}

// IsBounded reports whether all extents are finite.
func (a AABB) IsBounded() bool {
	return finiteVec(a.Min) && finiteVec(a.Max)
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], b.Min[0]), math.Min(a.Min[1], b.Min[1]), math.Min(a.Min[2], b.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], b.Max[0]), math.Max(a.Max[1], b.Max[1]), math.Max(a.Max[2], b.Max[2])},
	}
}

// Extend grows the box to contain p.
func (a AABB) Extend(p mgl64.Vec3) AABB {
	return a.Union(AABB{Min: p, Max: p})
}

// Loosened grows the box by m on every side.
func (a AABB) Loosened(m float64) AABB {
	d := mgl64.Vec3{m, m, m}
	return AABB{Min: a.Min.Sub(d), Max: a.Max.Add(d)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Swept returns the box covering a as it translates by d.
func (a AABB) Swept(d mgl64.Vec3) AABB {
	moved := AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
	return a.Union(moved)
}

// Transformed returns the box bounding a after applying iso to it.
func (a AABB) Transformed(iso Iso) AABB {
	if a.IsEmpty() {
		return a
	}
	if !a.IsBounded() {
		return InfiniteAABB()
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{a.Min[0], a.Min[1], a.Min[2]}
		if i&1 != 0 {
			corner[0] = a.Max[0]
		}
		if i&2 != 0 {
			corner[1] = a.Max[1]
		}
		if i&4 != 0 {
			corner[2] = a.Max[2]
		}
		out = out.Extend(iso.Apply(corner))
	}
	return out
}

// LongestAxis returns 0, 1 or 2 for the widest dimension.
func (a AABB) LongestAxis() int {
	size := a.Max.Sub(a.Min)
	axis := 0
	if size[1] > size[axis] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}
	return axis
}
