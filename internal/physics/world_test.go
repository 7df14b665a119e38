package physics

import (
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/shape"
)

func quietWorld(opts Options) *World {
	opts.Logger = log.New(io.Discard)
	return NewWorld(opts)
}

func TestWorldHeadOnWalkersStopTouching(t *testing.T) {
	ball := ballHandle(1)
	a := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})
	b := walkerAt(ball, 10, mgl64.Vec3{-1, 0, 0})

	w := quietWorld(Options{})
	w.AddWalker(a)
	w.AddWalker(b)
	w.Update(100)

	if math.Abs(a.Position()[0]-4) > testTolerance {
		t.Errorf("Expected A at x=4, got %f", a.Position()[0])
	}
	if math.Abs(b.Position()[0]-6) > testTolerance {
		t.Errorf("Expected B at x=6, got %f", b.Position()[0])
	}
	if d, _ := geom.Distance(a.Pose(), ball.Solid(), b.Pose(), ball.Solid()); d > testTolerance {
		t.Errorf("Walkers should end touching, distance %f", d)
	}
	if stats := w.Stats(); stats.Contacts != 1 || stats.PairsTested != 1 {
		t.Errorf("Unexpected frame stats %+v", stats)
	}
}

func TestWorldObstacleBeyondHorizonDoesNotClamp(t *testing.T) {
	ball := ballHandle(1)
	walker := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})

	w := quietWorld(Options{})
	w.AddWalker(walker)
	w.AddObstacle(NewObstacleObject(ball, geom.Translation(10, 0, 0)))
	w.Update(1)

	if got := walker.Position()[0]; got != 1 {
		t.Errorf("Expected unclamped advance to x=1, got %f", got)
	}
	if w.Stats().Contacts != 0 {
		t.Error("Expected no contacts")
	}
}

func TestWorldNearestObstacleWinsRegardlessOfOrder(t *testing.T) {
	ball := ballHandle(1)
	for _, order := range [][]float64{{5, 20, 9}, {20, 9, 5}, {9, 5, 20}} {
		walker := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})
		w := quietWorld(Options{})
		w.AddWalker(walker)
		for _, x := range order {
			w.AddObstacle(NewObstacleObject(ball, geom.Translation(x, 0, 0)))
		}
		w.Update(30)

		if got := walker.Position()[0]; math.Abs(got-3) > testTolerance {
			t.Errorf("Order %v: expected walker at x=3, got %f", order, got)
		}
	}
}

func TestWorldObstacleIsUnaffected(t *testing.T) {
	ball := ballHandle(1)
	walker := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})
	obstacle := NewObstacleObject(ball, geom.Translation(5, 0, 0))

	w := quietWorld(Options{})
	w.AddWalker(walker)
	w.AddObstacle(obstacle)
	w.Update(10)

	if got := obstacle.Pose().Pos; got != (mgl64.Vec3{5, 0, 0}) {
		t.Errorf("Obstacle should not move, got %v", got)
	}
	if got := walker.Position()[0]; math.Abs(got-3) > testTolerance {
		t.Errorf("Expected walker at x=3, got %f", got)
	}
}

func TestWorldSpeedWeightedResolution(t *testing.T) {
	ball := ballHandle(1)
	a := walkerAt(ball, 0, mgl64.Vec3{3, 0, 0})
	b := walkerAt(ball, 10, mgl64.Vec3{-1, 0, 0})

	w := quietWorld(Options{Resolver: SpeedWeighted{}})
	w.AddWalker(a)
	w.AddWalker(b)
	w.Update(100)

	// Raw TOI is 2; A gets 2*3/1, B gets 2*1/3.
	if got := a.Position()[0]; math.Abs(got-18) > testTolerance {
		t.Errorf("Expected A at x=18, got %f", got)
	}
	if got := b.Position()[0]; math.Abs(got-(10-2.0/3.0)) > testTolerance {
		t.Errorf("Expected B at x=%f, got %f", 10-2.0/3.0, got)
	}
}

func TestSpeedWeightedFallsBackAtZeroSpeed(t *testing.T) {
	ball := ballHandle(1)
	a := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})
	b := walkerAt(ball, 10, mgl64.Vec3{})

	SpeedWeighted{}.ResolveMoving(a, b, 8)
	ta, okA := a.PendingTOI()
	tb, okB := b.PendingTOI()
	if !okA || !okB || ta != 8 || tb != 8 {
		t.Errorf("Expected symmetric fallback (8, 8), got (%f %v, %f %v)", ta, okA, tb, okB)
	}
	if math.IsNaN(ta) || math.IsInf(ta, 0) || math.IsNaN(tb) || math.IsInf(tb, 0) {
		t.Error("Zero speed must not produce NaN or Inf")
	}
}

func TestParseResolver(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "symmetric", false},
		{"symmetric", "symmetric", false},
		{"Speed_Weighted", "speed_weighted", false},
		{"weighted", "speed_weighted", false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		r, err := ParseResolver(tt.name, 0)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResolver(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && r.String() != tt.want {
			t.Errorf("ParseResolver(%q) = %s, want %s", tt.name, r, tt.want)
		}
	}
}

// randomScene builds the same scene for a given seed.
func randomScene(seed int64, walkers, obstacles int) ([]*WalkingObject, []*ObstacleObject) {
	rng := rand.New(rand.NewSource(seed))
	small, large := ballHandle(0.5), shape.NewHandle(shape.Cuboid{HalfExtents: mgl64.Vec3{1, 1, 1}})
	pos := func() mgl64.Vec3 {
		return mgl64.Vec3{rng.Float64()*40 - 20, rng.Float64()*40 - 20, rng.Float64()*40 - 20}
	}

	ws := make([]*WalkingObject, walkers)
	for i := range ws {
		vel := mgl64.Vec3{rng.Float64()*8 - 4, rng.Float64()*8 - 4, rng.Float64()*8 - 4}
		ws[i] = NewWalkingObject(small, geom.Iso{Pos: pos(), Rot: mgl64.QuatIdent()}, vel, PositionOffset{})
	}
	os := make([]*ObstacleObject, obstacles)
	for i := range os {
		os[i] = NewObstacleObject(large, geom.Iso{Pos: pos(), Rot: mgl64.QuatIdent()})
	}
	return ws, os
}

func runScene(opts Options, frames int) []mgl64.Vec3 {
	ws, os := randomScene(42, 120, 40)
	w := quietWorld(opts)
	for _, m := range ws {
		w.AddWalker(m)
	}
	for _, o := range os {
		w.AddObstacle(o)
	}
	w.AddObstacle(NewObstacleObject(shape.NewHandle(shape.Plane{Normal: mgl64.Vec3{0, 1, 0}}), geom.Translation(0, -25, 0)))
	for i := 0; i < frames; i++ {
		w.Update(0.5)
	}
	out := make([]mgl64.Vec3, len(ws))
	for i, m := range ws {
		out[i] = m.Position()
	}
	return out
}

func TestWorldBroadphaseMatchesExhaustive(t *testing.T) {
	exhaustive := runScene(Options{Workers: 1}, 5)
	culled := runScene(Options{Workers: 1, Broadphase: true, CellSize: 4}, 5)
	for i := range exhaustive {
		if exhaustive[i] != culled[i] {
			t.Fatalf("Walker %d: exhaustive %v, broadphase %v", i, exhaustive[i], culled[i])
		}
	}
}

func TestWorldParallelMatchesSequential(t *testing.T) {
	sequential := runScene(Options{Workers: 1}, 5)
	parallel := runScene(Options{Workers: 8}, 5)
	for i := range sequential {
		if sequential[i] != parallel[i] {
			t.Fatalf("Walker %d: sequential %v, parallel %v", i, sequential[i], parallel[i])
		}
	}
}

func TestWorldBroadphaseCullsDistantPairs(t *testing.T) {
	ball := ballHandle(1)
	w := quietWorld(Options{Broadphase: true})
	w.AddWalker(walkerAt(ball, 0, mgl64.Vec3{1, 0, 0}))
	w.AddWalker(walkerAt(ball, 100, mgl64.Vec3{}))
	w.AddObstacle(NewObstacleObject(ball, geom.Translation(2.5, 0, 0)))
	w.AddObstacle(NewObstacleObject(ball, geom.Translation(-200, 0, 0)))
	w.Update(1)

	stats := w.Stats()
	if stats.PairsTested != 1 || stats.PairsCulled != 4 {
		t.Errorf("Expected 1 tested and 4 culled pairs, got %+v", stats)
	}
	if got := w.Walkers[0].(*WalkingObject).Position()[0]; math.Abs(got-0.5) > testTolerance {
		t.Errorf("Expected walker at x=0.5, got %f", got)
	}
}

type panickyObstacle struct {
	Stationary
	handle *shape.Handle
}

func (p *panickyObstacle) ShapeHandle() *shape.Handle { return p.handle }

func (p *panickyObstacle) Pose() geom.Iso { panic("corrupt pose") }

func TestWorldSurvivesFailingPair(t *testing.T) {
	ball := ballHandle(1)
	walker := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})

	w := quietWorld(Options{Workers: 1})
	w.AddWalker(walker)
	w.AddObstacle(&panickyObstacle{handle: ball})
	w.AddObstacle(NewObstacleObject(ball, geom.Translation(4, 0, 0)))
	w.Update(10)

	if w.Stats().Failed != 1 {
		t.Errorf("Expected one failed pair, got %d", w.Stats().Failed)
	}
	if got := walker.Position()[0]; math.Abs(got-2) > testTolerance {
		t.Errorf("Expected walker clamped by the healthy obstacle at x=2, got %f", got)
	}
}

func TestWorldInvalidDeltaDoesNotMove(t *testing.T) {
	walker := walkerAt(ballHandle(1), 0, mgl64.Vec3{1, 0, 0})
	resting := walkerAt(ballHandle(1), 10, mgl64.Vec3{})
	w := quietWorld(Options{})
	w.AddWalker(walker)
	w.AddWalker(resting)

	for _, dt := range []float64{math.NaN(), -1, 0, math.Inf(1), math.Inf(-1)} {
		w.Update(dt)
		if got := walker.Position(); got != (mgl64.Vec3{}) {
			t.Errorf("dt=%f: walker should not move, got %v", dt, got)
		}
		if got := resting.Position(); got != (mgl64.Vec3{10, 0, 0}) {
			t.Errorf("dt=%f: resting walker should stay at x=10, got %v", dt, got)
		}
	}
}

type trackingWalker struct {
	*WalkingObject
	entered int
	exited  int
}

func (t *trackingWalker) OnContactEnter(Collidable, geom.TOI) { t.entered++ }

func (t *trackingWalker) OnContactExit(Collidable) { t.exited++ }

func TestWorldContactCallbacks(t *testing.T) {
	ball := ballHandle(1)
	walker := &trackingWalker{WalkingObject: walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})}
	obstacle := NewObstacleObject(ball, geom.Translation(5, 0, 0))

	w := quietWorld(Options{})
	w.AddWalker(walker)
	w.AddObstacle(obstacle)
	var events []ContactEvent
	w.OnContact(func(e ContactEvent) { events = append(events, e) })

	w.Update(10)
	if walker.entered != 1 || walker.exited != 0 {
		t.Fatalf("Expected one enter after first frame, got enter=%d exit=%d", walker.entered, walker.exited)
	}
	if got := walker.Position()[0]; math.Abs(got-3) > testTolerance {
		t.Fatalf("Expected walker at x=3, got %f", got)
	}

	w.Update(10)
	if walker.entered != 1 || len(w.Contacts()) != 1 {
		t.Errorf("Resting contact should persist without a new enter, got enter=%d contacts=%d", walker.entered, len(w.Contacts()))
	}

	obstacle.SetPose(geom.Translation(50, 0, 0))
	w.Update(10)
	if walker.exited != 1 {
		t.Errorf("Expected exit after obstacle moved away, got %d", walker.exited)
	}
	if got := walker.Position()[0]; math.Abs(got-13) > testTolerance {
		t.Errorf("Expected walker at x=13, got %f", got)
	}
	if len(events) != 2 || !events[0].Enter || events[1].Enter {
		t.Errorf("Expected enter then exit world events, got %+v", events)
	}
	if len(events) == 2 && events[0].Pair.B != obstacle {
		t.Errorf("Expected obstacle as the other side, got %v", events[0].Pair.B)
	}
}

func TestWorldRemove(t *testing.T) {
	ball := ballHandle(1)
	a := walkerAt(ball, 0, mgl64.Vec3{1, 0, 0})
	o := NewObstacleObject(ball, geom.Translation(2.5, 0, 0))

	w := quietWorld(Options{})
	w.AddWalker(a)
	w.AddObstacle(o)
	w.Update(1)
	if len(w.Contacts()) != 1 {
		t.Fatalf("Expected one contact, got %d", len(w.Contacts()))
	}

	if !w.RemoveObstacle(o) || len(w.Obstacles) != 0 || len(w.Contacts()) != 0 {
		t.Error("RemoveObstacle should drop the obstacle and its contacts")
	}
	if w.RemoveObstacle(o) {
		t.Error("Removing twice should report false")
	}
	if !w.RemoveWalker(a) || len(w.Walkers) != 0 {
		t.Error("RemoveWalker should drop the walker")
	}
}

func TestWorldRaycast(t *testing.T) {
	ball := ballHandle(1)
	near := NewObstacleObject(ball, geom.Translation(5, 0, 0))
	far := NewObstacleObject(ball, geom.Translation(15, 0, 0))

	w := quietWorld(Options{})
	w.AddObstacle(far)
	w.AddObstacle(near)
	w.AddWalker(walkerAt(ball, 0, mgl64.Vec3{}))

	hit, ok := w.Raycast(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{1, 0, 0}, 100)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if hit.Object != near {
		t.Errorf("Expected the nearest obstacle, got %v", hit.Object)
	}
	if math.Abs(hit.Distance-2) > testTolerance {
		t.Errorf("Expected distance 2, got %f", hit.Distance)
	}
	if _, ok := w.Raycast(mgl64.Vec3{2, 5, 0}, mgl64.Vec3{1, 0, 0}, 100); ok {
		t.Error("Ray above everything should miss")
	}
}

func TestSweptGridKeepsHugeBoxes(t *testing.T) {
	unit := geom.AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
	tests := []struct {
		name string
		huge geom.AABB
	}{
		{"ground slab", geom.AABB{Min: mgl64.Vec3{-1e20, -2, -1e20}, Max: mgl64.Vec3{1e20, 0, 1e20}}},
		{"one long axis", geom.AABB{Min: mgl64.Vec3{-1e20, -1, -1}, Max: mgl64.Vec3{1e20, 1, 1}}},
		{"beyond int range", geom.AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1e300, 1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newSweptGrid(DefaultCellSize)
			g.rebuild([]geom.AABB{unit, tt.huge})
			got := g.pairs(func(i, j int) bool { return true })
			if len(got) != 1 || got[0] != [2]int{0, 1} {
				t.Errorf("Expected pair [0 1], got %v", got)
			}
			if _, _, ok := g.cellRange(tt.huge); ok {
				t.Errorf("Expected huge box to be handled as unbounded")
			}
		})
	}
}

func TestWorldBroadphaseTestsHugeGround(t *testing.T) {
	ground := shape.NewHandle(shape.Cuboid{HalfExtents: mgl64.Vec3{1e20, 1, 1e20}})
	w := quietWorld(Options{Workers: 1, Broadphase: true})
	w.AddWalker(NewWalkingObject(ballHandle(1), geom.Translation(0, 5, 0), mgl64.Vec3{0, -1, 0}, PositionOffset{}))
	w.AddObstacle(NewObstacleObject(ground, geom.Identity()))
	w.Update(10)

	stats := w.Stats()
	if stats.PairsTested != 1 || stats.PairsCulled != 0 {
		t.Errorf("Expected 1 tested and 0 culled pairs, got %+v", stats)
	}
}
