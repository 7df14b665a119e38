package physics

import (
	"math"
	"sync"
)

// Accumulator holds the earliest impact time found against one entity in
// the current frame. Combine takes the minimum, so the result does not
// depend on the order pairs are evaluated in. The zero value is empty and
// safe for concurrent use.
type Accumulator struct {
	mu  sync.Mutex
	toi float64
	set bool
}

// Combine folds t into the running minimum. Negative times count as zero
// and NaN is ignored.
func (a *Accumulator) Combine(t float64) {
	if math.IsNaN(t) {
		return
	}
	if t < 0 {
		t = 0
	}
	a.mu.Lock()
	if !a.set || t < a.toi {
		a.toi, a.set = t, true
	}
	a.mu.Unlock()
}

// Pending returns the current minimum, if any.
func (a *Accumulator) Pending() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toi, a.set
}

func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.toi, a.set = 0, false
	a.mu.Unlock()
}

// Take returns the current minimum and resets the accumulator.
func (a *Accumulator) Take() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.toi, a.set
	a.toi, a.set = 0, false
	return t, ok
}

// EffectiveStep is how far along a frame of length dt an entity may move
// given its pending impact time. A non-finite or non-positive dt allows no
// movement.
func EffectiveStep(dt, toi float64, hasTOI bool) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return 0
	}
	if hasTOI && toi < dt {
		return toi
	}
	return dt
}
