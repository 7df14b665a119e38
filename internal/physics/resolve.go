package physics

import (
	"fmt"
	"strings"
)

// Resolver decides how an impact time found between two moving entities is
// combined into each side.
type Resolver interface {
	ResolveMoving(a, b Moveable, t float64)
	String() string
}

// Symmetric combines the same time into both sides.
type Symmetric struct{}

func (Symmetric) ResolveMoving(a, b Moveable, t float64) {
	a.CombineTOI(t)
	b.CombineTOI(t)
}

func (Symmetric) String() string { return "symmetric" }

// SpeedWeighted scales the time for each side by its own speed over the
// other's. When either speed is below MinSpeed it falls back to Symmetric.
type SpeedWeighted struct {
	MinSpeed float64
}

// DefaultMinSpeed is the SpeedWeighted fallback threshold when none is set.
const DefaultMinSpeed = 1e-6

func (w SpeedWeighted) ResolveMoving(a, b Moveable, t float64) {
	minSpeed := w.MinSpeed
	if minSpeed <= 0 {
		minSpeed = DefaultMinSpeed
	}
	sa, sb := a.Velocity().Len(), b.Velocity().Len()
	if sa < minSpeed || sb < minSpeed {
		Symmetric{}.ResolveMoving(a, b, t)
		return
	}
	a.CombineTOI(t * sa / sb)
	b.CombineTOI(t * sb / sa)
}

func (SpeedWeighted) String() string { return "speed_weighted" }

// ResolveObstacle combines an impact time into the moving side only.
func ResolveObstacle(m Moveable, _ Collidable, t float64) {
	m.CombineTOI(t)
}

// ParseResolver maps a configuration name to a Resolver.
func ParseResolver(name string, minSpeed float64) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "symmetric":
		return Symmetric{}, nil
	case "speed_weighted", "speed-weighted", "weighted":
		return SpeedWeighted{MinSpeed: minSpeed}, nil
	default:
		return nil, fmt.Errorf("unknown resolution policy %q", name)
	}
}
