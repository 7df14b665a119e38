package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/shape"
)

// Collidable is anything that can take part in a time-of-impact query.
// Pose and velocity describe the entity at the start of the current frame;
// queries only read them.
type Collidable interface {
	ShapeHandle() *shape.Handle
	Pose() geom.Iso
	Velocity() mgl64.Vec3
}

// Moveable is a Collidable that advances every frame, clamped by the
// earliest impact time combined into it during the frame.
type Moveable interface {
	Collidable
	CombineTOI(t float64)
	PendingTOI() (float64, bool)
	ResetTOI()
	Advance(dt float64)
}

// Stationary supplies the defaults of a body that never moves: identity
// pose and zero velocity. Embedders override Pose when they sit elsewhere.
type Stationary struct{}

func (Stationary) Pose() geom.Iso { return geom.Identity() }

func (Stationary) Velocity() mgl64.Vec3 { return mgl64.Vec3{} }

// TimeOfImpact is the earliest time within maxTime at which a and b touch.
func TimeOfImpact(q geom.Query, a, b Collidable, maxTime float64) (geom.TOI, bool) {
	ha, hb := a.ShapeHandle(), b.ShapeHandle()
	if ha == nil || hb == nil {
		return geom.TOI{}, false
	}
	return q.TimeOfImpact(a.Pose(), a.Velocity(), ha.Solid(), b.Pose(), b.Velocity(), hb.Solid(), maxTime)
}
