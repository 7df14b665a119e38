package main

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// flyCamera is a free-look camera. Hold the right mouse button to look.
type flyCamera struct {
	Position  rl.Vector3
	Yaw       float32
	Pitch     float32
	MoveSpeed float32
	LookSpeed float32
}

func newFlyCamera(pos rl.Vector3) *flyCamera {
	return &flyCamera{
		Position:  pos,
		Yaw:       -135.0,
		Pitch:     -30.0,
		MoveSpeed: 12.0, // Units per second
		LookSpeed: 0.1,
	}
}

func (c *flyCamera) Update(deltaTime float32) {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		mouseDelta := rl.GetMouseDelta()
		c.Yaw += mouseDelta.X * c.LookSpeed
		c.Pitch -= mouseDelta.Y * c.LookSpeed
	}

	// Clamp pitch
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}

	forward, right := c.directions()

	var moveDir rl.Vector3
	if rl.IsKeyDown(rl.KeyW) {
		moveDir = rl.Vector3Add(moveDir, forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		moveDir = rl.Vector3Subtract(moveDir, forward)
	}
	if rl.IsKeyDown(rl.KeyA) {
		moveDir = rl.Vector3Add(moveDir, right)
	}
	if rl.IsKeyDown(rl.KeyD) {
		moveDir = rl.Vector3Subtract(moveDir, right)
	}
	if rl.IsKeyDown(rl.KeyE) {
		moveDir.Y++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		moveDir.Y--
	}

	// Normalize diagonal movement so you don't go faster diagonally
	if rl.Vector3Length(moveDir) > 0 {
		moveDir = rl.Vector3Normalize(moveDir)
	}
	c.Position = rl.Vector3Add(c.Position, rl.Vector3Scale(moveDir, c.MoveSpeed*deltaTime))
}

// directions returns the look direction and its horizontal right vector.
func (c *flyCamera) directions() (forward, right rl.Vector3) {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180
	forward = rl.Vector3{
		X: float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		Y: float32(math.Sin(pitchRad)),
		Z: float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	}
	right = rl.Vector3{
		X: float32(math.Sin(yawRad)),
		Y: 0,
		Z: float32(-math.Cos(yawRad)),
	}
	return
}

func (c *flyCamera) Camera() rl.Camera3D {
	forward, _ := c.directions()
	return rl.Camera3D{
		Position:   c.Position,
		Target:     rl.Vector3Add(c.Position, forward),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
