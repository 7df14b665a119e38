package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Iso is a rigid transform: a rotation followed by a translation.
type Iso struct {
	Pos mgl64.Vec3
	Rot mgl64.Quat
}

// Identity returns the transform that leaves every point where it is.
func Identity() Iso {
	return Iso{Rot: mgl64.QuatIdent()}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Iso {
	return Iso{Pos: mgl64.Vec3{x, y, z}, Rot: mgl64.QuatIdent()}
}

// NewIso builds a transform from a position and an unnormalized rotation.
// A zero quaternion is read as no rotation.
func NewIso(pos mgl64.Vec3, rot mgl64.Quat) Iso {
	return Iso{Pos: pos, Rot: normalizeQuat(rot)}
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

// Apply maps a local point into the parent frame.
func (i Iso) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return i.rot().Rotate(p).Add(i.Pos)
}

// ApplyVec rotates a local direction into the parent frame.
func (i Iso) ApplyVec(v mgl64.Vec3) mgl64.Vec3 {
	return i.rot().Rotate(v)
}

// InvApply maps a parent-frame point into the local frame.
func (i Iso) InvApply(p mgl64.Vec3) mgl64.Vec3 {
	return i.rot().Inverse().Rotate(p.Sub(i.Pos))
}

// InvApplyVec rotates a parent-frame direction into the local frame.
func (i Iso) InvApplyVec(v mgl64.Vec3) mgl64.Vec3 {
	return i.rot().Inverse().Rotate(v)
}

// Mul composes two transforms so that i.Mul(o).Apply(p) == i.Apply(o.Apply(p)).
func (i Iso) Mul(o Iso) Iso {
	return Iso{Pos: i.Apply(o.Pos), Rot: i.rot().Mul(o.rot()).Normalize()}
}

func (i Iso) Inverse() Iso {
	inv := i.rot().Inverse()
	return Iso{Pos: inv.Rotate(i.Pos).Mul(-1), Rot: inv}
}

// Translated returns the transform moved by d in the parent frame.
func (i Iso) Translated(d mgl64.Vec3) Iso {
	return Iso{Pos: i.Pos.Add(d), Rot: i.Rot}
}

// IsFinite reports whether every component is a finite number.
func (i Iso) IsFinite() bool {
	return finiteVec(i.Pos) && finite(i.Rot.W) && finiteVec(i.Rot.V)
}

// rot tolerates the zero value of Iso.
func (i Iso) rot() mgl64.Quat {
	if i.Rot.W == 0 && i.Rot.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return i.Rot
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}
