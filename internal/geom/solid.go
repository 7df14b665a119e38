package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Solid is the native geometry that time-of-impact and distance queries run on.
// Solids are immutable once built and safe for concurrent use.
type Solid interface {
	// LocalAABB bounds the solid in its own frame.
	LocalAABB() AABB
}

// Convex is a solid described by a support mapping of its core plus a
// uniform rounding margin (a ball is a point with a margin, a capsule a
// segment with a margin).
type Convex interface {
	Solid
	Support(dir mgl64.Vec3) mgl64.Vec3
	Margin() float64
}

// WorldAABB bounds s placed at iso.
func WorldAABB(iso Iso, s Solid) AABB {
	if c, ok := s.(Convex); ok {
		return convexAABB(iso, c)
	}
	return s.LocalAABB().Transformed(iso)
}

// convexAABB is exact: one support query per axis direction.
func convexAABB(iso Iso, c Convex) AABB {
	box := EmptyAABB()
	for axis := 0; axis < 3; axis++ {
		var dir mgl64.Vec3
		dir[axis] = 1
		hi := supportWorld(iso, c, dir)
		lo := supportWorld(iso, c, dir.Mul(-1))
		box.Max[axis] = hi[axis]
		box.Min[axis] = lo[axis]
	}
	return box.Loosened(c.Margin())
}

func supportWorld(iso Iso, c Convex, dir mgl64.Vec3) mgl64.Vec3 {
	return iso.Apply(c.Support(iso.InvApplyVec(dir)))
}

// Empty never touches anything. Degenerate geometry lowers to it.
type Empty struct{}

func (Empty) LocalAABB() AABB { return EmptyAABB() }

// Ball is a sphere centered on the origin.
type Ball struct {
	Radius float64
}

func (b Ball) LocalAABB() AABB {
	return NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{b.Radius, b.Radius, b.Radius})
}

func (Ball) Support(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }
func (b Ball) Margin() float64 { return b.Radius }

// point is a zero-size probe used for ray casts.
type point struct{}

func (point) LocalAABB() AABB { return AABB{} }
func (point) Support(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }
func (point) Margin() float64 { return 0 }

// Capsule is the set of points within Radius of the segment A-B.
type Capsule struct {
	A, B   mgl64.Vec3
	Radius float64
}

func (c Capsule) LocalAABB() AABB {
	return AABB{Min: c.A, Max: c.A}.Extend(c.B).Loosened(c.Radius)
}

func (c Capsule) Support(dir mgl64.Vec3) mgl64.Vec3 {
	if c.B.Dot(dir) > c.A.Dot(dir) {
		return c.B
	}
	return c.A
}

func (c Capsule) Margin() float64 { return c.Radius }

// Segment is a line segment without thickness.
type Segment struct {
	A, B mgl64.Vec3
}

func (s Segment) LocalAABB() AABB { return AABB{Min: s.A, Max: s.A}.Extend(s.B) }

func (s Segment) Support(dir mgl64.Vec3) mgl64.Vec3 {
	if s.B.Dot(dir) > s.A.Dot(dir) {
		return s.B
	}
	return s.A
}

func (Segment) Margin() float64 { return 0 }

// Triangle is a single flat triangle.
type Triangle struct {
	A, B, C mgl64.Vec3
}

func (t Triangle) LocalAABB() AABB {
	return AABB{Min: t.A, Max: t.A}.Extend(t.B).Extend(t.C)
}

func (t Triangle) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best, bestDot := t.A, t.A.Dot(dir)
	if d := t.B.Dot(dir); d > bestDot {
		best, bestDot = t.B, d
	}
	if d := t.C.Dot(dir); d > bestDot {
		best = t.C
	}
	return best
}

func (Triangle) Margin() float64 { return 0 }

// Cuboid is a box centered on the origin.
type Cuboid struct {
	Half mgl64.Vec3
}

func (c Cuboid) LocalAABB() AABB { return NewAABBFromCenter(mgl64.Vec3{}, c.Half) }

func (c Cuboid) Support(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if dir[i] < 0 {
			p[i] = -c.Half[i]
		} else {
			p[i] = c.Half[i]
		}
	}
	return p
}

func (Cuboid) Margin() float64 { return 0 }

// Hull is the convex hull of a point cloud.
type Hull struct {
	Points []mgl64.Vec3
	bounds AABB
}

// NewHull copies points and precomputes bounds.
func NewHull(points []mgl64.Vec3) *Hull {
	h := &Hull{Points: append([]mgl64.Vec3(nil), points...), bounds: EmptyAABB()}
	for _, p := range h.Points {
		h.bounds = h.bounds.Extend(p)
	}
	return h
}

func (h *Hull) LocalAABB() AABB { return h.bounds }

func (h *Hull) Support(dir mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := math.Inf(-1)
	for _, p := range h.Points {
		if d := p.Dot(dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

func (*Hull) Margin() float64 { return 0 }

// HalfSpace is everything on or below the plane through the origin with
// the given outward unit normal.
type HalfSpace struct {
	Normal mgl64.Vec3
}

func (HalfSpace) LocalAABB() AABB { return InfiniteAABB() }

// Part is a solid placed inside a Composite.
type Part struct {
	Iso   Iso
	Solid Solid
}

// Composite is a rigid union of parts, each with its own offset.
type Composite struct {
	Parts  []Part
	bounds AABB
}

// NewComposite precomputes bounds over the parts. Parts that bound nothing
// are dropped.
func NewComposite(parts []Part) *Composite {
	c := &Composite{bounds: EmptyAABB()}
	for _, p := range parts {
		if _, ok := p.Solid.(Empty); ok || p.Solid == nil {
			continue
		}
		c.Parts = append(c.Parts, p)
		c.bounds = c.bounds.Union(WorldAABB(p.Iso, p.Solid))
	}
	return c
}

func (c *Composite) LocalAABB() AABB { return c.bounds }
