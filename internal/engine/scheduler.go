package engine

import "math"

// System is stepped by a Scheduler with a fixed delta time in seconds.
// *physics.World satisfies it.
type System interface {
	Update(dt float64)
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(dt float64)

func (f SystemFunc) Update(dt float64) { f(dt) }

const (
	DefaultStep     = 1.0 / 60.0
	DefaultMaxSteps = 5
)

type namedSystem struct {
	name   string
	system System
}

// Scheduler turns variable wall-clock time into fixed steps. Each Tick adds
// the elapsed time to an accumulator and runs every system once per whole
// step it holds, up to MaxSteps per Tick. Time beyond that is dropped so a
// stall cannot snowball into ever longer frames.
type Scheduler struct {
	Name     string
	Step     float64
	MaxSteps int

	// OnStep fires after each fixed step with the step count so far.
	OnStep Event[uint64]
	// OnDrop fires with the seconds discarded when catch-up is capped.
	OnDrop Event[float64]

	systems     []namedSystem
	accumulator float64
	steps       uint64
}

func NewScheduler(name string, step float64, maxSteps int) *Scheduler {
	if !(step > 0) || math.IsInf(step, 0) {
		step = DefaultStep
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Scheduler{
		Name:     name,
		Step:     step,
		MaxSteps: maxSteps,
		systems:  make([]namedSystem, 0),
	}
}

// Add appends a system. Systems run in the order they were added.
func (s *Scheduler) Add(name string, sys System) {
	s.systems = append(s.systems, namedSystem{name: name, system: sys})
}

func (s *Scheduler) Remove(name string) bool {
	for i, ns := range s.systems {
		if ns.name == name {
			s.systems = append(s.systems[:i], s.systems[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scheduler) Find(name string) System {
	for _, ns := range s.systems {
		if ns.name == name {
			return ns.system
		}
	}
	return nil
}

// Names lists the systems in run order.
func (s *Scheduler) Names() []string {
	names := make([]string, len(s.systems))
	for i, ns := range s.systems {
		names[i] = ns.name
	}
	return names
}

// Tick advances by elapsed seconds and returns how many fixed steps ran.
// Negative, NaN or infinite elapsed time counts as zero.
func (s *Scheduler) Tick(elapsed float64) int {
	if !(elapsed > 0) || math.IsInf(elapsed, 1) {
		return 0
	}
	s.accumulator += elapsed

	n := 0
	for s.accumulator >= s.Step && n < s.MaxSteps {
		s.StepOnce()
		s.accumulator -= s.Step
		n++
	}

	if s.accumulator >= s.Step {
		kept := math.Mod(s.accumulator, s.Step)
		s.OnDrop.Invoke(s.accumulator - kept)
		s.accumulator = kept
	}
	return n
}

// StepOnce runs every system for exactly one step regardless of the
// accumulator. Used for single-stepping while paused.
func (s *Scheduler) StepOnce() {
	for _, ns := range s.systems {
		ns.system.Update(s.Step)
	}
	s.steps++
	s.OnStep.Invoke(s.steps)
}

// Alpha is the fraction of a step left in the accumulator, for
// interpolating rendered poses between steps.
func (s *Scheduler) Alpha() float64 {
	return s.accumulator / s.Step
}

func (s *Scheduler) Steps() uint64 { return s.steps }

// Reset clears the accumulator and step count but keeps the systems.
func (s *Scheduler) Reset() {
	s.accumulator = 0
	s.steps = 0
}
