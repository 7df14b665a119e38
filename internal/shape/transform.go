package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
)

// Transform places a compound part relative to its parent. Rotation is a
// scaled axis: the direction is the rotation axis and the length is the
// angle in radians.
type Transform struct {
	Translation mgl64.Vec3 `json:"translation" yaml:"translation"`
	Rotation    mgl64.Vec3 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Offset is a pure translation.
func Offset(x, y, z float64) Transform {
	return Transform{Translation: mgl64.Vec3{x, y, z}}
}

// Iso converts the transform to a rigid transform.
func (t Transform) Iso() geom.Iso {
	return geom.NewIso(t.Translation, ScaledAxisQuat(t.Rotation))
}

// ScaledAxisQuat converts a scaled-axis rotation to a quaternion.
func ScaledAxisQuat(r mgl64.Vec3) mgl64.Quat {
	angle := r.Len()
	if angle < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, r.Mul(1/angle))
}

// QuatScaledAxis converts a quaternion back to a scaled axis with an angle
// in [0, pi].
func QuatScaledAxis(q mgl64.Quat) mgl64.Vec3 {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	s := q.V.Len()
	if s < 1e-12 {
		return mgl64.Vec3{}
	}
	angle := 2 * math.Atan2(s, q.W)
	return q.V.Mul(angle / s)
}

// FromIso is the inverse of Transform.Iso.
func FromIso(iso geom.Iso) Transform {
	return Transform{Translation: iso.Pos, Rotation: QuatScaledAxis(iso.Rot)}
}
