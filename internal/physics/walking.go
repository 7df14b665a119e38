package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/shape"
)

// PositionOffset places an entity's visual model relative to its collision
// shape. A nil Custom derives the offset from the shape bounds.
type PositionOffset struct {
	Custom *shape.Transform `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// CustomOffset returns an offset that always uses t.
func CustomOffset(t shape.Transform) PositionOffset {
	return PositionOffset{Custom: &t}
}

// Iso resolves the offset for h. The default moves the model so the
// center of the shape's local bounds on X and Y, and its top on Z, land on
// the origin.
func (o PositionOffset) Iso(h *shape.Handle) geom.Iso {
	if o.Custom != nil {
		return o.Custom.Iso()
	}
	if h == nil {
		return geom.Identity()
	}
	box := h.LocalAABB()
	if box.IsEmpty() || !box.IsBounded() {
		return geom.Identity()
	}
	c := box.Center()
	return geom.Translation(-c[0], -c[1], -box.Max[2])
}

// WalkingObject moves along the map at a constant velocity per frame and
// stops short of whatever it would hit first.
type WalkingObject struct {
	Name        string
	Tags        []string
	ShapeOffset PositionOffset

	handle   *shape.Handle
	pose     geom.Iso
	velocity mgl64.Vec3
	toi      Accumulator
}

// NewWalkingObject creates a walker sharing handle with any other entity
// built from the same shape.
func NewWalkingObject(handle *shape.Handle, pose geom.Iso, velocity mgl64.Vec3, offset PositionOffset) *WalkingObject {
	return &WalkingObject{
		ShapeOffset: offset,
		handle:      handle,
		pose:        pose,
		velocity:    velocity,
	}
}

func (w *WalkingObject) ShapeHandle() *shape.Handle { return w.handle }

func (w *WalkingObject) Pose() geom.Iso { return w.pose }

func (w *WalkingObject) Velocity() mgl64.Vec3 { return w.velocity }

// Position is the translation part of the pose.
func (w *WalkingObject) Position() mgl64.Vec3 { return w.pose.Pos }

// SetPose and SetVelocity are for game logic between frames, never during
// World.Update.
func (w *WalkingObject) SetPose(p geom.Iso) { w.pose = p }

func (w *WalkingObject) SetVelocity(v mgl64.Vec3) { w.velocity = v }

func (w *WalkingObject) CombineTOI(t float64) { w.toi.Combine(t) }

func (w *WalkingObject) PendingTOI() (float64, bool) { return w.toi.Pending() }

func (w *WalkingObject) ResetTOI() { w.toi.Reset() }

// Advance moves the walker by velocity * min(dt, pending TOI) and clears
// the pending TOI.
func (w *WalkingObject) Advance(dt float64) {
	toi, ok := w.toi.Take()
	step := EffectiveStep(dt, toi, ok)
	if step == 0 {
		return
	}
	w.pose = w.pose.Translated(w.velocity.Mul(step))
}

// ShapeOffsetIso is the model transform relative to the collision shape.
func (w *WalkingObject) ShapeOffsetIso() geom.Iso {
	return w.ShapeOffset.Iso(w.handle)
}

// CollisionWith queries the default time of impact against other.
func (w *WalkingObject) CollisionWith(other Collidable, maxTime float64) (geom.TOI, bool) {
	return TimeOfImpact(geom.DefaultQuery, w, other, maxTime)
}

func (w *WalkingObject) String() string {
	toi := "none"
	if t, ok := w.toi.Pending(); ok {
		toi = fmt.Sprintf("%g", t)
	}
	return fmt.Sprintf("WalkingObject{name=%q shape=%v pos=%v vel=%v toi=%s}", w.Name, w.handle, w.pose.Pos, w.velocity, toi)
}
