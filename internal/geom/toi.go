package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TOIStatus describes how a time of impact was reached.
type TOIStatus int

const (
	// Converged means the solids were separated at t=0 and first touch at Time.
	Converged TOIStatus = iota
	// Penetrating means the solids already overlap at t=0.
	Penetrating
	// OutOfIterations means the iteration budget ran out while the solids
	// were still closing. Time is the last conservative estimate, which is
	// never later than the true first contact.
	OutOfIterations
)

func (s TOIStatus) String() string {
	switch s {
	case Converged:
		return "converged"
	case Penetrating:
		return "penetrating"
	case OutOfIterations:
		return "out_of_iterations"
	default:
		return "unknown"
	}
}

// TOI describes the first contact between two translating solids.
// Witnesses and normals are expressed in each solid's own frame at Time.
type TOI struct {
	Time     float64
	Witness1 mgl64.Vec3
	Witness2 mgl64.Vec3
	Normal1  mgl64.Vec3
	Normal2  mgl64.Vec3
	Status   TOIStatus
}

// flip swaps the roles of the two solids.
func (t TOI) flip() TOI {
	t.Witness1, t.Witness2 = t.Witness2, t.Witness1
	t.Normal1, t.Normal2 = t.Normal2, t.Normal1
	return t
}

// Query holds the numeric settings of the time-of-impact search.
type Query struct {
	// Tolerance is the gap at which two solids count as touching.
	Tolerance float64
	// MaxIterations bounds the conservative advancement loop per convex pair.
	MaxIterations int
}

// DefaultQuery is used by the package-level TimeOfImpact.
var DefaultQuery = Query{Tolerance: 1e-7, MaxIterations: 100}

func (q Query) tolerance() float64 {
	if q.Tolerance > 0 && finite(q.Tolerance) {
		return q.Tolerance
	}
	return DefaultQuery.Tolerance
}

func (q Query) maxIterations() int {
	if q.MaxIterations > 0 {
		return q.MaxIterations
	}
	return DefaultQuery.MaxIterations
}

// TimeOfImpact runs DefaultQuery.TimeOfImpact.
func TimeOfImpact(isoA Iso, velA mgl64.Vec3, a Solid, isoB Iso, velB mgl64.Vec3, b Solid, maxTime float64) (TOI, bool) {
	return DefaultQuery.TimeOfImpact(isoA, velA, a, isoB, velB, b, maxTime)
}

// TimeOfImpact finds the earliest time in [0, maxTime] at which a and b,
// translating at constant velocities from their poses, first touch. It
// reports false when they do not touch within the horizon, and also for
// non-finite input. The query is read-only and safe for concurrent use.
func (q Query) TimeOfImpact(isoA Iso, velA mgl64.Vec3, a Solid, isoB Iso, velB mgl64.Vec3, b Solid, maxTime float64) (TOI, bool) {
	if math.IsNaN(maxTime) || maxTime < 0 {
		return TOI{}, false
	}
	if !isoA.IsFinite() || !isoB.IsFinite() || !finiteVec(velA) || !finiteVec(velB) {
		return TOI{}, false
	}
	return q.dispatch(isoA, velA, a, isoB, velB, b, maxTime)
}

func isEmpty(s Solid) bool {
	switch v := s.(type) {
	case nil, Empty:
		return true
	case *Composite:
		return v == nil || len(v.Parts) == 0
	case *Mesh:
		return v == nil || v.Root == nil
	case *Hull:
		return v == nil || len(v.Points) == 0
	}
	return false
}

func (q Query) dispatch(isoA Iso, velA mgl64.Vec3, a Solid, isoB Iso, velB mgl64.Vec3, b Solid, maxTime float64) (TOI, bool) {
	if isEmpty(a) || isEmpty(b) {
		return TOI{}, false
	}

	if ca, ok := a.(*Composite); ok {
		return q.compositeVs(isoA, velA, ca, isoB, velB, b, maxTime, true)
	}
	if cb, ok := b.(*Composite); ok {
		return q.compositeVs(isoB, velB, cb, isoA, velA, a, maxTime, false)
	}
	if ma, ok := a.(*Mesh); ok {
		return q.meshVs(isoA, velA, ma, isoB, velB, b, maxTime, true)
	}
	if mb, ok := b.(*Mesh); ok {
		return q.meshVs(isoB, velB, mb, isoA, velA, a, maxTime, false)
	}

	ha, aIsPlane := a.(HalfSpace)
	hb, bIsPlane := b.(HalfSpace)
	ca, aIsConvex := a.(Convex)
	cb, bIsConvex := b.(Convex)
	switch {
	case aIsPlane && bIsConvex:
		return q.planeConvex(isoA, velA, ha, isoB, velB, cb, maxTime)
	case bIsPlane && aIsConvex:
		r, ok := q.planeConvex(isoB, velB, hb, isoA, velA, ca, maxTime)
		return r.flip(), ok
	case aIsConvex && bIsConvex:
		return q.convexConvex(isoA, velA, ca, isoB, velB, cb, maxTime)
	}
	// Plane against plane is never queried for movement.
	return TOI{}, false
}

// sweptBox bounds other, expressed in frame's local coordinates, over the
// whole horizon of the relative motion.
func (q Query) sweptBox(frame Iso, velFrame mgl64.Vec3, otherIso Iso, velOther mgl64.Vec3, other Solid, maxTime float64) AABB {
	box := WorldAABB(frame.Inverse().Mul(otherIso), other)
	sweep := frame.InvApplyVec(velOther.Sub(velFrame))
	if sweep.LenSqr() > 0 {
		if math.IsInf(maxTime, 1) {
			return InfiniteAABB()
		}
		box = box.Swept(sweep.Mul(maxTime))
	}
	return box.Loosened(q.tolerance())
}

func (q Query) compositeVs(isoC Iso, velC mgl64.Vec3, c *Composite, isoO Iso, velO mgl64.Vec3, o Solid, maxTime float64, compositeFirst bool) (TOI, bool) {
	box := q.sweptBox(isoC, velC, isoO, velO, o, maxTime)
	var best TOI
	found := false
	horizon := maxTime
	for _, part := range c.Parts {
		if !WorldAABB(part.Iso, part.Solid).Intersects(box) {
			continue
		}
		partIso := isoC.Mul(part.Iso)
		var r TOI
		var ok bool
		if compositeFirst {
			r, ok = q.dispatch(partIso, velC, part.Solid, isoO, velO, o, horizon)
		} else {
			r, ok = q.dispatch(isoO, velO, o, partIso, velC, part.Solid, horizon)
			r = r.flip()
		}
		if !ok || (found && r.Time >= best.Time) {
			continue
		}
		r.Witness1 = part.Iso.Apply(r.Witness1)
		r.Normal1 = part.Iso.ApplyVec(r.Normal1)
		best, found, horizon = r, true, r.Time
	}
	if !compositeFirst {
		best = best.flip()
	}
	return best, found
}

func (q Query) meshVs(isoM Iso, velM mgl64.Vec3, m *Mesh, isoO Iso, velO mgl64.Vec3, o Solid, maxTime float64, meshFirst bool) (TOI, bool) {
	box := q.sweptBox(isoM, velM, isoO, velO, o, maxTime)
	var best TOI
	found := false
	horizon := maxTime
	for _, idx := range m.Query(box, nil) {
		tri := m.Triangle(idx)
		var r TOI
		var ok bool
		if meshFirst {
			r, ok = q.dispatch(isoM, velM, tri, isoO, velO, o, horizon)
		} else {
			r, ok = q.dispatch(isoO, velO, o, isoM, velM, tri, horizon)
		}
		if ok && (!found || r.Time < best.Time) {
			best, found, horizon = r, true, r.Time
		}
	}
	return best, found
}

// convexConvex is conservative advancement along the closest-feature
// normal. With pure translation each step lands on or before the first
// contact, so the result never overshoots.
func (q Query) convexConvex(isoA Iso, velA mgl64.Vec3, a Convex, isoB Iso, velB mgl64.Vec3, b Convex, maxTime float64) (TOI, bool) {
	tol := q.tolerance()
	vrel := velB.Sub(velA)
	margins := a.Margin() + b.Margin()
	t := 0.0

	for i := 0; i < q.maxIterations(); i++ {
		pa := isoA.Translated(velA.Mul(t))
		pb := isoB.Translated(velB.Mul(t))
		res := coreDistance(pa, a, pb, b)
		gap := res.Distance - margins

		if gap <= tol {
			status := Converged
			if i == 0 && gap < -tol {
				status = Penetrating
			}
			return convexContact(t, pa, a, pb, b, res, status), true
		}

		closing := -vrel.Dot(res.Normal)
		if closing <= epsilon {
			return TOI{}, false
		}
		t += gap / closing
		if t > maxTime {
			return TOI{}, false
		}
	}

	// Still closing in after the last step: report the reached time rather
	// than let the pair pass through each other.
	pa := isoA.Translated(velA.Mul(t))
	pb := isoB.Translated(velB.Mul(t))
	return convexContact(t, pa, a, pb, b, coreDistance(pa, a, pb, b), OutOfIterations), true
}

func convexContact(t float64, pa Iso, a Convex, pb Iso, b Convex, res DistanceResult, status TOIStatus) TOI {
	n := res.Normal
	if n.LenSqr() == 0 {
		n = pb.Pos.Sub(pa.Pos)
		if n.LenSqr() > epsilon*epsilon {
			n = n.Normalize()
		} else {
			n = mgl64.Vec3{}
		}
	}
	onA := res.PointA.Add(n.Mul(a.Margin()))
	onB := res.PointB.Sub(n.Mul(b.Margin()))
	return TOI{
		Time:     t,
		Witness1: pa.InvApply(onA),
		Witness2: pb.InvApply(onB),
		Normal1:  pa.InvApplyVec(n),
		Normal2:  pb.InvApplyVec(n.Mul(-1)),
		Status:   status,
	}
}

func (q Query) planeConvex(isoP Iso, velP mgl64.Vec3, h HalfSpace, isoC Iso, velC mgl64.Vec3, c Convex, maxTime float64) (TOI, bool) {
	tol := q.tolerance()
	n := isoP.ApplyVec(h.Normal)
	deepest := supportWorld(isoC, c, n.Mul(-1))
	gap := deepest.Sub(isoP.Pos).Dot(n) - c.Margin()
	rate := velC.Sub(velP).Dot(n)

	t := 0.0
	status := Converged
	switch {
	case gap < -tol:
		status = Penetrating
	case gap <= tol:
	case rate >= -epsilon:
		return TOI{}, false
	default:
		t = gap / -rate
		if t > maxTime {
			return TOI{}, false
		}
	}

	pp := isoP.Translated(velP.Mul(t))
	pc := isoC.Translated(velC.Mul(t))
	onC := supportWorld(pc, c, n.Mul(-1)).Sub(n.Mul(c.Margin()))
	onP := onC.Sub(n.Mul(onC.Sub(pp.Pos).Dot(n)))
	return TOI{
		Time:     t,
		Witness1: pp.InvApply(onP),
		Witness2: pc.InvApply(onC),
		Normal1:  h.Normal,
		Normal2:  pc.InvApplyVec(n.Mul(-1)),
		Status:   status,
	}, true
}
