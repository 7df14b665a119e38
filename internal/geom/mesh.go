package geom

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	bvhLeafSize = 4
	bvhMaxDepth = 20
)

// BVHNode is one node of a triangle bounding volume hierarchy.
// Leaves carry triangle indices; inner nodes carry children.
type BVHNode struct {
	Bounds      AABB
	Left, Right *BVHNode
	Triangles   []int
}

// Mesh is a triangle soup in its own frame. Convex queries against it run
// per triangle, filtered through the BVH.
type Mesh struct {
	Points  []mgl64.Vec3
	Indices [][3]int
	Root    *BVHNode
}

// NewMesh copies the geometry, drops triangles with out-of-range indices or
// zero area, and builds the BVH.
func NewMesh(points []mgl64.Vec3, indices [][3]int) *Mesh {
	m := &Mesh{Points: append([]mgl64.Vec3(nil), points...)}
	for _, tri := range indices {
		if !m.validTriangle(tri) {
			continue
		}
		m.Indices = append(m.Indices, tri)
	}
	m.buildBVH()
	return m
}

func (m *Mesh) validTriangle(tri [3]int) bool {
	for _, i := range tri {
		if i < 0 || i >= len(m.Points) {
			return false
		}
	}
	a, b, c := m.Points[tri[0]], m.Points[tri[1]], m.Points[tri[2]]
	return b.Sub(a).Cross(c.Sub(a)).LenSqr() > epsilon*epsilon
}

// TriangleCount returns the number of usable triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices)
}

// Triangle returns triangle i as a convex solid.
func (m *Mesh) Triangle(i int) Triangle {
	tri := m.Indices[i]
	return Triangle{A: m.Points[tri[0]], B: m.Points[tri[1]], C: m.Points[tri[2]]}
}

func (m *Mesh) LocalAABB() AABB {
	if m.Root == nil {
		return EmptyAABB()
	}
	return m.Root.Bounds
}

// Query appends to dst the indices of triangles whose bounds overlap box.
func (m *Mesh) Query(box AABB, dst []int) []int {
	return m.queryBVH(m.Root, box, dst)
}

func (m *Mesh) buildBVH() {
	if len(m.Indices) == 0 {
		return
	}

	indices := make([]int, len(m.Indices))
	for i := range indices {
		indices[i] = i
	}

	m.Root = m.buildBVHNode(indices, 0)
}

func (m *Mesh) buildBVHNode(indices []int, depth int) *BVHNode {
	node := &BVHNode{Bounds: m.computeBounds(indices)}

	if len(indices) <= bvhLeafSize || depth > bvhMaxDepth {
		node.Triangles = indices
		return node
	}

	mid := m.partitionTriangles(indices, node.Bounds.LongestAxis())
	if mid == 0 || mid == len(indices) {
		// Couldn't split, make leaf
		node.Triangles = indices
		return node
	}

	node.Left = m.buildBVHNode(indices[:mid], depth+1)
	node.Right = m.buildBVHNode(indices[mid:], depth+1)
	return node
}

func (m *Mesh) computeBounds(indices []int) AABB {
	bounds := EmptyAABB()
	for _, idx := range indices {
		bounds = bounds.Union(m.Triangle(idx).LocalAABB())
	}
	return bounds
}

func (m *Mesh) centroid(idx int) mgl64.Vec3 {
	t := m.Triangle(idx)
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// partitionTriangles splits around the mean centroid on axis.
func (m *Mesh) partitionTriangles(indices []int, axis int) int {
	center := 0.0
	for _, idx := range indices {
		center += m.centroid(idx)[axis]
	}
	center /= float64(len(indices))

	left := 0
	right := len(indices) - 1
	for left <= right {
		if m.centroid(indices[left])[axis] < center {
			left++
		} else {
			indices[left], indices[right] = indices[right], indices[left]
			right--
		}
	}
	return left
}

func (m *Mesh) queryBVH(node *BVHNode, query AABB, dst []int) []int {
	if node == nil || !node.Bounds.Intersects(query) {
		return dst
	}
	if node.Triangles != nil {
		return append(dst, node.Triangles...)
	}
	dst = m.queryBVH(node.Left, query, dst)
	return m.queryBVH(node.Right, query, dst)
}
