package main

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/physics"
)

var walkerColors = []rl.Color{
	rl.Red, rl.Blue, rl.Green, rl.Purple, rl.Orange,
	rl.Pink, rl.SkyBlue, rl.Lime, rl.Magenta, rl.Gold,
}

func vec(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// drawSolid draws s at iso as wireframe.
func drawSolid(iso geom.Iso, s geom.Solid, color rl.Color) {
	switch s := s.(type) {
	case geom.Ball:
		rl.DrawSphereWires(vec(iso.Pos), float32(s.Radius), 8, 12, color)
	case geom.Capsule:
		rl.DrawCapsuleWires(vec(iso.Apply(s.A)), vec(iso.Apply(s.B)), float32(s.Radius), 12, 4, color)
	case geom.Segment:
		rl.DrawLine3D(vec(iso.Apply(s.A)), vec(iso.Apply(s.B)), color)
	case geom.Triangle:
		drawTriangle(iso, s, color)
	case geom.Cuboid:
		drawCuboid(iso, s.Half, color)
	case *geom.Hull:
		for _, p := range s.Points {
			rl.DrawCubeWires(vec(iso.Apply(p)), 0.05, 0.05, 0.05, color)
		}
		drawBox(geom.WorldAABB(iso, s), rl.Fade(color, 0.4))
	case geom.HalfSpace:
		rl.DrawGrid(40, 2)
	case *geom.Mesh:
		for i := 0; i < s.TriangleCount(); i++ {
			drawTriangle(iso, s.Triangle(i), color)
		}
	case *geom.Composite:
		for _, part := range s.Parts {
			drawSolid(iso.Mul(part.Iso), part.Solid, color)
		}
	}
}

func drawTriangle(iso geom.Iso, t geom.Triangle, color rl.Color) {
	a, b, c := vec(iso.Apply(t.A)), vec(iso.Apply(t.B)), vec(iso.Apply(t.C))
	rl.DrawLine3D(a, b, color)
	rl.DrawLine3D(b, c, color)
	rl.DrawLine3D(c, a, color)
}

var cuboidEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func drawCuboid(iso geom.Iso, half mgl64.Vec3, color rl.Color) {
	var corners [8]rl.Vector3
	for i := range corners {
		local := mgl64.Vec3{half[0], half[1], half[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				local[axis] = -local[axis]
			}
		}
		corners[i] = vec(iso.Apply(local))
	}
	for _, e := range cuboidEdges {
		rl.DrawLine3D(corners[e[0]], corners[e[1]], color)
	}
}

func drawBox(box geom.AABB, color rl.Color) {
	if box.IsEmpty() || !box.IsBounded() {
		return
	}
	rl.DrawBoundingBox(rl.BoundingBox{Min: vec(box.Min), Max: vec(box.Max)}, color)
}

// drawWorld draws obstacles in gray and walkers in color, with each
// walker's velocity and model origin.
func drawWorld(w *physics.World, showBounds bool) {
	for _, o := range w.Obstacles {
		h := o.ShapeHandle()
		if h == nil {
			continue
		}
		drawSolid(o.Pose(), h.Solid(), rl.DarkGray)
		if showBounds {
			drawBox(geom.WorldAABB(o.Pose(), h.Solid()), rl.LightGray)
		}
	}

	for i, m := range w.Walkers {
		h := m.ShapeHandle()
		if h == nil {
			continue
		}
		color := walkerColors[i%len(walkerColors)]
		pose := m.Pose()
		drawSolid(pose, h.Solid(), color)
		rl.DrawLine3D(vec(pose.Pos), vec(pose.Pos.Add(m.Velocity())), rl.Yellow)

		if obj, ok := m.(*physics.WalkingObject); ok {
			origin := pose.Mul(obj.ShapeOffsetIso()).Pos
			rl.DrawSphere(vec(origin), 0.08, color)
		}
		if showBounds {
			drawBox(geom.WorldAABB(pose, h.Solid()), rl.Fade(color, 0.5))
		}
	}
}
