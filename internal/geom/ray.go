package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayHit is the first intersection of a ray with a solid.
type RayHit struct {
	// Distance along the normalized ray direction.
	Distance float64
	Point    mgl64.Vec3
	// Normal is the outward surface normal at Point, world frame.
	Normal mgl64.Vec3
}

// CastRay intersects a ray with s placed at iso. A ray starting inside the
// solid hits at distance zero.
func (q Query) CastRay(iso Iso, s Solid, origin, dir mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	if dir.LenSqr() < epsilon*epsilon || !finiteVec(dir) {
		return RayHit{}, false
	}
	dir = dir.Normalize()
	probe := Iso{Pos: origin, Rot: mgl64.QuatIdent()}
	r, ok := q.TimeOfImpact(probe, dir, point{}, iso, mgl64.Vec3{}, s, maxDistance)
	if !ok {
		return RayHit{}, false
	}
	return RayHit{
		Distance: r.Time,
		Point:    origin.Add(dir.Mul(r.Time)),
		Normal:   iso.ApplyVec(r.Normal2),
	}, true
}

// CastRay runs DefaultQuery.CastRay.
func CastRay(iso Iso, s Solid, origin, dir mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	return DefaultQuery.CastRay(iso, s, origin, dir, maxDistance)
}

// Distance returns the separation between a and b, zero when they overlap.
// It reports false when either solid is empty or both are planes.
func Distance(isoA Iso, a Solid, isoB Iso, b Solid) (float64, bool) {
	if isEmpty(a) || isEmpty(b) || !isoA.IsFinite() || !isoB.IsFinite() {
		return 0, false
	}

	switch s := a.(type) {
	case *Composite:
		return minDistance(len(s.Parts), func(i int) (float64, bool) {
			return Distance(isoA.Mul(s.Parts[i].Iso), s.Parts[i].Solid, isoB, b)
		})
	case *Mesh:
		return minDistance(s.TriangleCount(), func(i int) (float64, bool) {
			return Distance(isoA, s.Triangle(i), isoB, b)
		})
	}
	switch b.(type) {
	case *Composite, *Mesh:
		return Distance(isoB, b, isoA, a)
	}

	if h, ok := a.(HalfSpace); ok {
		if c, ok := b.(Convex); ok {
			return planeDistance(isoA, h, isoB, c), true
		}
		return 0, false
	}
	if h, ok := b.(HalfSpace); ok {
		if c, ok := a.(Convex); ok {
			return planeDistance(isoB, h, isoA, c), true
		}
		return 0, false
	}

	ca, okA := a.(Convex)
	cb, okB := b.(Convex)
	if !okA || !okB {
		return 0, false
	}
	res := coreDistance(isoA, ca, isoB, cb)
	return math.Max(0, res.Distance-ca.Margin()-cb.Margin()), true
}

func planeDistance(isoP Iso, h HalfSpace, isoC Iso, c Convex) float64 {
	n := isoP.ApplyVec(h.Normal)
	deepest := supportWorld(isoC, c, n.Mul(-1))
	return math.Max(0, deepest.Sub(isoP.Pos).Dot(n)-c.Margin())
}

func minDistance(n int, at func(int) (float64, bool)) (float64, bool) {
	best := math.Inf(1)
	found := false
	for i := 0; i < n; i++ {
		if d, ok := at(i); ok && d < best {
			best, found = d, true
		}
	}
	return best, found
}
