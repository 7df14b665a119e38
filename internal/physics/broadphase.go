package physics

import (
	"math"
	"sort"

	"mapbuilder3d/internal/geom"
)

// DefaultCellSize is the edge length of a broadphase grid cell.
const DefaultCellSize = 5.0

// maxCellsPerBox caps how many cells one swept box may cover before it is
// handled as unbounded instead.
const maxCellsPerBox = 4096

// maxCellCoord bounds cell coordinates so they convert to int exactly.
const maxCellCoord = 1 << 40

// CellKey addresses one cell of the spatial hash grid.
type CellKey struct {
	X, Y, Z int
}

func posToCell(v float64, cellSize float64) int {
	return int(math.Floor(v / cellSize))
}

// pairJob is one narrow-phase query. i always indexes a walker; j indexes a
// walker when j < walkers, otherwise obstacle j-walkers.
type pairJob struct {
	i, j int
}

// sweptGrid buckets swept bounding boxes so that only entities whose
// boxes overlap are paired. It never drops a pair whose boxes intersect.
type sweptGrid struct {
	cellSize  float64
	cells     map[CellKey][]int
	boxes     []geom.AABB
	unbounded []int
}

func newSweptGrid(cellSize float64) *sweptGrid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &sweptGrid{cellSize: cellSize, cells: make(map[CellKey][]int)}
}

// rebuild clears the grid and inserts every box by index.
func (g *sweptGrid) rebuild(boxes []geom.AABB) {
	for k := range g.cells {
		delete(g.cells, k)
	}
	g.boxes = boxes
	g.unbounded = g.unbounded[:0]

	for id, box := range boxes {
		if box.IsEmpty() {
			continue
		}
		lo, hi, ok := g.cellRange(box)
		if !ok {
			g.unbounded = append(g.unbounded, id)
			continue
		}
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				for z := lo.Z; z <= hi.Z; z++ {
					key := CellKey{x, y, z}
					g.cells[key] = append(g.cells[key], id)
				}
			}
		}
	}
}

func (g *sweptGrid) cellRange(box geom.AABB) (CellKey, CellKey, bool) {
	if !box.IsBounded() {
		return CellKey{}, CellKey{}, false
	}
	// Spans are checked in float space so that huge boxes never reach an
	// overflowing int conversion; they fall back to the unbounded bucket.
	count := 1.0
	for axis := 0; axis < 3; axis++ {
		fmin := math.Floor(box.Min[axis] / g.cellSize)
		fmax := math.Floor(box.Max[axis] / g.cellSize)
		if math.Abs(fmin) > maxCellCoord || math.Abs(fmax) > maxCellCoord {
			return CellKey{}, CellKey{}, false
		}
		count *= fmax - fmin + 1
	}
	if count > maxCellsPerBox {
		return CellKey{}, CellKey{}, false
	}
	var lo, hi [3]int
	for axis := 0; axis < 3; axis++ {
		lo[axis] = posToCell(box.Min[axis], g.cellSize)
		hi[axis] = posToCell(box.Max[axis], g.cellSize)
	}
	return CellKey{lo[0], lo[1], lo[2]}, CellKey{hi[0], hi[1], hi[2]}, true
}

// pairs returns every pair of distinct ids with intersecting boxes for
// which allowed holds, ordered by (i, j) with i < j.
func (g *sweptGrid) pairs(allowed func(i, j int) bool) [][2]int {
	checked := make(map[[2]int]bool)
	var out [][2]int
	consider := func(a, b int) {
		if a == b {
			return
		}
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if checked[key] {
			return
		}
		checked[key] = true
		if allowed(a, b) && g.boxes[a].Intersects(g.boxes[b]) {
			out = append(out, key)
		}
	}

	for _, ids := range g.cells {
		for x := 0; x < len(ids); x++ {
			for y := x + 1; y < len(ids); y++ {
				consider(ids[x], ids[y])
			}
		}
	}
	for _, u := range g.unbounded {
		for other, box := range g.boxes {
			if !box.IsEmpty() {
				consider(u, other)
			}
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a][0] != out[b][0] {
			return out[a][0] < out[b][0]
		}
		return out[a][1] < out[b][1]
	})
	return out
}
