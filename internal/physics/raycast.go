package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

type RaycastHit struct {
	Object   Collidable
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Raycast checks every walker and obstacle at its current pose and returns
// the closest hit within maxDistance.
func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	var closestHit RaycastHit
	hit := false

	allObjects := make([]Collidable, 0, len(w.Walkers)+len(w.Obstacles))
	for _, m := range w.Walkers {
		allObjects = append(allObjects, m)
	}
	allObjects = append(allObjects, w.Obstacles...)

	for _, obj := range allObjects {
		h := obj.ShapeHandle()
		if h == nil {
			continue
		}
		hitInfo, ok := w.query.CastRay(obj.Pose(), h.Solid(), origin, direction, maxDistance)
		if !ok {
			continue
		}
		if !hit || hitInfo.Distance < closestHit.Distance {
			closestHit = RaycastHit{
				Object:   obj,
				Point:    hitInfo.Point,
				Normal:   hitInfo.Normal,
				Distance: hitInfo.Distance,
			}
			maxDistance = hitInfo.Distance
			hit = true
		}
	}

	return closestHit, hit
}
