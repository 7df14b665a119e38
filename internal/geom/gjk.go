package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	epsilon          = 1e-9
	gjkMaxIterations = 64
	gjkRelTolerance  = 1e-12
)

// simplexVertex is a point of the Minkowski difference B - A together with
// the support points on A and B that produced it.
type simplexVertex struct {
	w, a, b mgl64.Vec3
}

type simplex struct {
	verts [4]simplexVertex
	bary  [4]float64
	count int
}

// DistanceResult is the separation between the cores of two convex solids
// (margins not included).
type DistanceResult struct {
	Distance float64
	// PointA and PointB are the closest points on each core, world frame.
	PointA, PointB mgl64.Vec3
	// Normal points from A to B. It is zero when the cores overlap.
	Normal mgl64.Vec3
}

func minkowskiSupport(isoA Iso, a Convex, isoB Iso, b Convex, dir mgl64.Vec3) simplexVertex {
	pa := supportWorld(isoA, a, dir.Mul(-1))
	pb := supportWorld(isoB, b, dir)
	return simplexVertex{w: pb.Sub(pa), a: pa, b: pb}
}

// coreDistance runs GJK on the support-mapped cores of a and b.
func coreDistance(isoA Iso, a Convex, isoB Iso, b Convex) DistanceResult {
	dir := isoB.Pos.Sub(isoA.Pos)
	if dir.LenSqr() < epsilon*epsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}

	var s simplex
	s.verts[0] = minkowskiSupport(isoA, a, isoB, b, dir.Mul(-1))
	s.bary[0] = 1
	s.count = 1
	v := s.verts[0].w

	for i := 0; i < gjkMaxIterations; i++ {
		vv := v.LenSqr()
		if vv < epsilon*epsilon {
			return s.overlap()
		}

		w := minkowskiSupport(isoA, a, isoB, b, v.Mul(-1))
		if vv-v.Dot(w.w) <= gjkRelTolerance*vv+epsilon*epsilon {
			break
		}
		if s.contains(w.w) {
			break
		}

		s.verts[s.count] = w
		s.count++
		next, inside := s.solve()
		if inside {
			return s.overlap()
		}
		// No progress means we are at the numerical limit.
		if next.LenSqr() >= vv {
			break
		}
		v = next
	}

	pa, pb := s.witnesses()
	dist := pb.Sub(pa).Len()
	res := DistanceResult{Distance: dist, PointA: pa, PointB: pb}
	if dist > epsilon {
		res.Normal = pb.Sub(pa).Mul(1 / dist)
	}
	return res
}

func (s *simplex) overlap() DistanceResult {
	pa, pb := s.witnesses()
	return DistanceResult{PointA: pa, PointB: pb}
}

func (s *simplex) contains(w mgl64.Vec3) bool {
	for i := 0; i < s.count; i++ {
		if s.verts[i].w.Sub(w).LenSqr() < epsilon*epsilon {
			return true
		}
	}
	return false
}

func (s *simplex) witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.verts[i].a.Mul(s.bary[i]))
		pb = pb.Add(s.verts[i].b.Mul(s.bary[i]))
	}
	return pa, pb
}

// keep reduces the simplex to the listed vertices with the given weights.
func (s *simplex) keep(idx []int, weights []float64) {
	var verts [4]simplexVertex
	var bary [4]float64
	n := 0
	for k, i := range idx {
		verts[n] = s.verts[i]
		bary[n] = weights[k]
		n++
	}
	s.verts, s.bary, s.count = verts, bary, n
}

// solve finds the point of the simplex closest to the origin, drops the
// vertices that do not support it, and reports whether the origin is
// enclosed by a full tetrahedron.
func (s *simplex) solve() (mgl64.Vec3, bool) {
	switch s.count {
	case 1:
		s.bary[0] = 1
		return s.verts[0].w, false
	case 2:
		return s.solveSegment(0, 1), false
	case 3:
		return s.solveTriangle(0, 1, 2), false
	default:
		return s.solveTetrahedron()
	}
}

func (s *simplex) solveSegment(i, j int) mgl64.Vec3 {
	a, b := s.verts[i].w, s.verts[j].w
	ab := b.Sub(a)
	denom := ab.LenSqr()
	if denom < epsilon*epsilon {
		s.keep([]int{j}, []float64{1})
		return b
	}
	t := -a.Dot(ab) / denom
	switch {
	case t <= 0:
		s.keep([]int{i}, []float64{1})
		return a
	case t >= 1:
		s.keep([]int{j}, []float64{1})
		return b
	}
	s.keep([]int{i, j}, []float64{1 - t, t})
	return a.Add(ab.Mul(t))
}

func (s *simplex) solveTriangle(i, j, k int) mgl64.Vec3 {
	a, b, c := s.verts[i].w, s.verts[j].w, s.verts[k].w
	bary, ok := closestPointOnTriangle(mgl64.Vec3{}, a, b, c)
	if !ok {
		return s.solveDegenerateTriangle(i, j, k)
	}
	idx := make([]int, 0, 3)
	weights := make([]float64, 0, 3)
	for n, vi := range [3]int{i, j, k} {
		if bary[n] > 0 {
			idx = append(idx, vi)
			weights = append(weights, bary[n])
		}
	}
	s.keep(idx, weights)
	return a.Mul(bary[0]).Add(b.Mul(bary[1])).Add(c.Mul(bary[2]))
}

// solveDegenerateTriangle handles collinear vertices by taking the best edge.
func (s *simplex) solveDegenerateTriangle(i, j, k int) mgl64.Vec3 {
	saved := *s
	best := *s
	bestPoint := mgl64.Vec3{}
	bestDist := math.Inf(1)
	for _, e := range [3][2]int{{i, j}, {j, k}, {i, k}} {
		*s = saved
		p := s.solveSegment(e[0], e[1])
		if d := p.LenSqr(); d < bestDist {
			bestDist, bestPoint, best = d, p, *s
		}
	}
	*s = best
	return bestPoint
}

func (s *simplex) solveTetrahedron() (mgl64.Vec3, bool) {
	faces := [4][4]int{{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 3, 1}, {1, 2, 3, 0}}
	saved := *s
	best := *s
	bestPoint := mgl64.Vec3{}
	bestDist := math.Inf(1)
	outside := false

	for _, f := range faces {
		a, b, c, d := saved.verts[f[0]].w, saved.verts[f[1]].w, saved.verts[f[2]].w, saved.verts[f[3]].w
		if !originOutsideFace(a, b, c, d) {
			continue
		}
		outside = true
		*s = saved
		p := s.solveTriangle(f[0], f[1], f[2])
		if dist := p.LenSqr(); dist < bestDist {
			bestDist, bestPoint, best = dist, p, *s
		}
	}
	if !outside {
		*s = saved
		return mgl64.Vec3{}, true
	}
	*s = best
	return bestPoint, false
}

// originOutsideFace reports whether the origin lies on the opposite side of
// plane abc from d. A flat tetrahedron treats every face as a candidate.
func originOutsideFace(a, b, c, d mgl64.Vec3) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	signO := a.Mul(-1).Dot(n)
	signD := d.Sub(a).Dot(n)
	if math.Abs(signD) < epsilon*epsilon {
		return true
	}
	return signO*signD < 0
}

// closestPointOnTriangle returns the barycentric weights of the point of
// triangle abc closest to p. ok is false for degenerate triangles whose
// face region cannot be resolved.
func closestPointOnTriangle(p, a, b, c mgl64.Vec3) (bary [3]float64, ok bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return [3]float64{1, 0, 0}, true
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return [3]float64{0, 1, 0}, true
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		if d1-d3 == 0 {
			return bary, false
		}
		v := d1 / (d1 - d3)
		return [3]float64{1 - v, v, 0}, true
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return [3]float64{0, 0, 1}, true
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		if d2-d6 == 0 {
			return bary, false
		}
		w := d2 / (d2 - d6)
		return [3]float64{1 - w, 0, w}, true
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		if (d4-d3)+(d5-d6) == 0 {
			return bary, false
		}
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return [3]float64{0, 1 - w, w}, true
	}

	sum := va + vb + vc
	if math.Abs(sum) < epsilon*epsilon {
		return bary, false
	}
	denom := 1 / sum
	v := vb * denom
	w := vc * denom
	return [3]float64{1 - v - w, v, w}, true
}
