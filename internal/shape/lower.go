package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
)

const degenerateEpsilon = 1e-9

// ToSolid lowers a shape to native geometry, recursing through compounds.
// Degenerate input (non-positive radii, zero-length segments, zero-area
// triangles, empty point sets, non-finite numbers) lowers to geom.Empty,
// which never collides.
func ToSolid(s Shape) geom.Solid {
	switch v := s.(type) {
	case Ball:
		if !positive(v.Radius) {
			return geom.Empty{}
		}
		return geom.Ball{Radius: v.Radius}

	case Capsule:
		if !positive(v.Radius) || !finite(v.HalfHeight) || v.HalfHeight < 0 {
			return geom.Empty{}
		}
		if v.HalfHeight == 0 {
			return geom.Ball{Radius: v.Radius}
		}
		return geom.Capsule{
			A:      mgl64.Vec3{0, -v.HalfHeight, 0},
			B:      mgl64.Vec3{0, v.HalfHeight, 0},
			Radius: v.Radius,
		}

	case ConvexHull:
		points := make([]mgl64.Vec3, 0, len(v.Points))
		for _, p := range v.Points {
			if finiteVec(p) {
				points = append(points, p)
			}
		}
		if len(points) == 0 {
			return geom.Empty{}
		}
		return geom.NewHull(points)

	case Cuboid:
		h := v.HalfExtents
		if !finiteVec(h) || h[0] < 0 || h[1] < 0 || h[2] < 0 || h.LenSqr() == 0 {
			return geom.Empty{}
		}
		return geom.Cuboid{Half: h}

	case HeightField:
		return lowerHeightField(v)

	case Plane:
		if !finiteVec(v.Normal) || v.Normal.Len() < degenerateEpsilon {
			return geom.Empty{}
		}
		return geom.HalfSpace{Normal: v.Normal.Normalize()}

	case Segment:
		if !finiteVec(v.A) || !finiteVec(v.B) || v.B.Sub(v.A).Len() < degenerateEpsilon {
			return geom.Empty{}
		}
		return geom.Segment{A: v.A, B: v.B}

	case TriMesh:
		return meshOrEmpty(geom.NewMesh(v.Points, v.Indices))

	case Triangle:
		if !finiteVec(v.A) || !finiteVec(v.B) || !finiteVec(v.C) ||
			v.B.Sub(v.A).Cross(v.C.Sub(v.A)).Len() < degenerateEpsilon {
			return geom.Empty{}
		}
		return geom.Triangle{A: v.A, B: v.B, C: v.C}

	case Compound:
		parts := make([]geom.Part, 0, len(v.Parts))
		for _, p := range v.Parts {
			iso := p.Transform.Iso()
			if !iso.IsFinite() {
				continue
			}
			parts = append(parts, geom.Part{Iso: iso, Solid: ToSolid(p.Shape)})
		}
		c := geom.NewComposite(parts)
		if len(c.Parts) == 0 {
			return geom.Empty{}
		}
		return c

	default:
		return geom.Empty{}
	}
}

// lowerHeightField triangulates every grid cell into two upward-facing
// triangles.
func lowerHeightField(h HeightField) geom.Solid {
	rows, cols := h.Dimensions[0], h.Dimensions[1]
	if rows < 2 || cols < 2 || len(h.Heights) != rows*cols {
		return geom.Empty{}
	}
	scale := h.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}

	points := make([]mgl64.Vec3, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := -0.5 + float64(j)/float64(cols-1)
			z := -0.5 + float64(i)/float64(rows-1)
			y := h.Heights[i*cols+j]
			points = append(points, mgl64.Vec3{x * scale[0], y * scale[1], z * scale[2]})
		}
	}

	indices := make([][3]int, 0, 2*(rows-1)*(cols-1))
	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols-1; j++ {
			a := i*cols + j
			b := (i+1)*cols + j
			c := (i+1)*cols + j + 1
			d := i*cols + j + 1
			indices = append(indices, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return meshOrEmpty(geom.NewMesh(points, indices))
}

func meshOrEmpty(m *geom.Mesh) geom.Solid {
	if m.TriangleCount() == 0 {
		return geom.Empty{}
	}
	return m
}

func positive(f float64) bool {
	return finite(f) && f > 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}
