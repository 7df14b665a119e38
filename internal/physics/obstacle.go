package physics

import (
	"fmt"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/shape"
)

// ObstacleObject blocks walkers. It never moves during a frame and has no
// accumulator; game logic may relocate it between frames.
type ObstacleObject struct {
	Stationary
	Name string
	Tags []string

	handle *shape.Handle
	pose   geom.Iso
}

func NewObstacleObject(handle *shape.Handle, pose geom.Iso) *ObstacleObject {
	return &ObstacleObject{handle: handle, pose: pose}
}

func (o *ObstacleObject) ShapeHandle() *shape.Handle { return o.handle }

func (o *ObstacleObject) Pose() geom.Iso { return o.pose }

func (o *ObstacleObject) SetPose(p geom.Iso) { o.pose = p }

func (o *ObstacleObject) String() string {
	return fmt.Sprintf("ObstacleObject{name=%q shape=%v pos=%v}", o.Name, o.handle, o.pose.Pos)
}
