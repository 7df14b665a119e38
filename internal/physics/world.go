package physics

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"mapbuilder3d/internal/geom"
)

// parallelThreshold is the pair count below which queries run inline.
const parallelThreshold = 64

// Options configure a World. The zero value gives the default query,
// symmetric resolution, one worker per CPU and no broadphase.
type Options struct {
	Query      geom.Query
	Resolver   Resolver
	Workers    int
	Broadphase bool
	CellSize   float64
	Logger     *log.Logger
}

// FrameStats summarizes the last call to Update.
type FrameStats struct {
	Walkers     int
	Obstacles   int
	PairsTested int
	PairsCulled int
	Contacts    int
	Failed      int
	Elapsed     time.Duration
}

// ContactPair names two entities whose swept shapes touch this frame.
// A is always a walker.
type ContactPair struct {
	A, B Collidable
}

// ContactHandler is implemented by entities that want to hear when they
// start or stop touching another entity within a frame.
type ContactHandler interface {
	OnContactEnter(other Collidable, toi geom.TOI)
	OnContactExit(other Collidable)
}

// ContactEvent is delivered to world-level contact listeners.
type ContactEvent struct {
	Pair  ContactPair
	TOI   geom.TOI
	Enter bool
}

type contact struct {
	pair ContactPair
	toi  geom.TOI
}

// World owns the walkers and obstacles of a map and drives them one frame
// at a time.
type World struct {
	Walkers   []Moveable
	Obstacles []Collidable

	query      geom.Query
	resolver   Resolver
	workers    int
	broadphase bool
	grid       *sweptGrid
	logger     *log.Logger

	// Contact tracking for callbacks
	activeContacts map[ContactPair]bool
	activeOrder    []ContactPair
	listeners      []func(ContactEvent)

	lastFrame FrameStats
}

func NewWorld(opts Options) *World {
	q := opts.Query
	if q.Tolerance <= 0 {
		q.Tolerance = geom.DefaultQuery.Tolerance
	}
	if q.MaxIterations <= 0 {
		q.MaxIterations = geom.DefaultQuery.MaxIterations
	}
	r := opts.Resolver
	if r == nil {
		r = Symmetric{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("physics")
	}

	w := &World{
		query:          q,
		resolver:       r,
		workers:        workers,
		broadphase:     opts.Broadphase,
		grid:           newSweptGrid(opts.CellSize),
		logger:         logger,
		activeContacts: make(map[ContactPair]bool),
	}
	logger.Debug("world created", "resolver", r, "workers", workers, "broadphase", opts.Broadphase, "cell", w.grid.cellSize)
	return w
}

func (w *World) AddWalker(m Moveable) {
	w.Walkers = append(w.Walkers, m)
}

func (w *World) AddObstacle(c Collidable) {
	w.Obstacles = append(w.Obstacles, c)
}

// RemoveWalker drops m and any contact it takes part in.
func (w *World) RemoveWalker(m Moveable) bool {
	for i, obj := range w.Walkers {
		if obj == m {
			w.Walkers = append(w.Walkers[:i], w.Walkers[i+1:]...)
			w.forgetContacts(m)
			return true
		}
	}
	return false
}

// RemoveObstacle drops c and any contact it takes part in.
func (w *World) RemoveObstacle(c Collidable) bool {
	for i, obj := range w.Obstacles {
		if obj == c {
			w.Obstacles = append(w.Obstacles[:i], w.Obstacles[i+1:]...)
			w.forgetContacts(c)
			return true
		}
	}
	return false
}

func (w *World) forgetContacts(c Collidable) {
	kept := w.activeOrder[:0]
	for _, pair := range w.activeOrder {
		if pair.A == c || pair.B == c {
			delete(w.activeContacts, pair)
			continue
		}
		kept = append(kept, pair)
	}
	w.activeOrder = kept
}

// OnContact registers fn to hear every contact enter and exit, after the
// entities' own ContactHandler callbacks.
func (w *World) OnContact(fn func(ContactEvent)) {
	if fn == nil {
		return
	}
	w.listeners = append(w.listeners, fn)
}

// Resolver returns the moving-vs-moving policy in use.
func (w *World) Resolver() Resolver { return w.resolver }

// Stats returns statistics about the most recent Update.
func (w *World) Stats() FrameStats { return w.lastFrame }

// Contacts returns the pairs found touching during the last frame.
func (w *World) Contacts() []ContactPair {
	return append([]ContactPair(nil), w.activeOrder...)
}

// Update runs one frame of length dt:
//  1. reset every walker's accumulator
//  2. query every walker/walker and walker/obstacle pair with horizon dt
//     and combine hits through the resolution policy
//  3. once all queries are done, advance every walker
//
// Walkers are never advanced on a partially combined impact time.
func (w *World) Update(dt float64) {
	start := time.Now()
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		w.logger.Warn("ignoring invalid frame delta", "dt", dt)
		dt = 0
	}

	// 1. Reset accumulators
	for _, m := range w.Walkers {
		m.ResetTOI()
	}

	// 2. Pair queries and resolution. runPairs returns after every query
	// has been combined.
	jobs, culled := w.collectPairs(dt)
	contacts, failed := w.runPairs(jobs, dt)

	// 3. Advance
	for _, m := range w.Walkers {
		m.Advance(dt)
	}

	// 4. Dispatch contact callbacks
	w.dispatchContacts(contacts)

	w.lastFrame = FrameStats{
		Walkers:     len(w.Walkers),
		Obstacles:   len(w.Obstacles),
		PairsTested: len(jobs),
		PairsCulled: culled,
		Contacts:    len(contacts),
		Failed:      failed,
		Elapsed:     time.Since(start),
	}
	w.logger.Debug("frame",
		"dt", dt,
		"pairs", len(jobs),
		"culled", culled,
		"contacts", len(contacts),
		"elapsed", w.lastFrame.Elapsed)
}

// collectPairs lists the pairs to query. Without broadphase that is every
// walker/walker and walker/obstacle pair.
func (w *World) collectPairs(dt float64) ([]pairJob, int) {
	nw, no := len(w.Walkers), len(w.Obstacles)
	total := nw*(nw-1)/2 + nw*no

	if !w.broadphase {
		jobs := make([]pairJob, 0, total)
		for i := 0; i < nw; i++ {
			for j := i + 1; j < nw; j++ {
				jobs = append(jobs, pairJob{i, j})
			}
			for k := 0; k < no; k++ {
				jobs = append(jobs, pairJob{i, nw + k})
			}
		}
		return jobs, 0
	}

	boxes := make([]geom.AABB, 0, nw+no)
	for _, m := range w.Walkers {
		boxes = append(boxes, w.sweptBox(m, dt))
	}
	for _, o := range w.Obstacles {
		boxes = append(boxes, w.sweptBox(o, dt))
	}
	w.grid.rebuild(boxes)

	// Obstacles never pair with each other; ids below nw are walkers.
	pairs := w.grid.pairs(func(i, j int) bool { return i < nw })
	jobs := make([]pairJob, len(pairs))
	for k, p := range pairs {
		jobs[k] = pairJob{p[0], p[1]}
	}
	return jobs, total - len(jobs)
}

func (w *World) sweptBox(c Collidable, dt float64) geom.AABB {
	h := c.ShapeHandle()
	if h == nil {
		return geom.EmptyAABB()
	}
	box := geom.WorldAABB(c.Pose(), h.Solid())
	if box.IsEmpty() {
		return box
	}
	return box.Swept(c.Velocity().Mul(dt)).Loosened(w.query.Tolerance)
}

// runPairs queries every job, combining hits into the walkers' accumulators.
// Queries run on up to w.workers goroutines; accumulators serialize their
// own updates.
func (w *World) runPairs(jobs []pairJob, dt float64) ([]contact, int) {
	workers := w.workers
	if workers <= 1 || len(jobs) < parallelThreshold {
		return w.runChunk(jobs, dt)
	}

	chunk := (len(jobs) + workers - 1) / workers
	results := make([][]contact, workers)
	failures := make([]int, workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for k := 0; k < workers; k++ {
		lo := k * chunk
		if lo >= len(jobs) {
			break
		}
		hi := min(lo+chunk, len(jobs))
		g.Go(func() error {
			results[k], failures[k] = w.runChunk(jobs[lo:hi], dt)
			return nil
		})
	}
	_ = g.Wait()

	var contacts []contact
	failed := 0
	for k := range results {
		contacts = append(contacts, results[k]...)
		failed += failures[k]
	}
	return contacts, failed
}

func (w *World) runChunk(jobs []pairJob, dt float64) ([]contact, int) {
	var contacts []contact
	failed := 0
	for _, job := range jobs {
		c, hit, err := w.runPair(job, dt)
		if err != nil {
			failed++
			w.logger.Warn("pair query failed", "err", err)
			continue
		}
		if hit {
			contacts = append(contacts, c)
		}
	}
	return contacts, failed
}

// runPair queries one pair and applies the resolution policy. A panic in
// the query is reported as an error so one bad pair cannot stop the frame.
func (w *World) runPair(job pairJob, dt float64) (c contact, hit bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, hit, err = contact{}, false, fmt.Errorf("pair (%d, %d): %v", job.i, job.j, r)
		}
	}()

	a := w.Walkers[job.i]
	if job.j < len(w.Walkers) {
		b := w.Walkers[job.j]
		toi, ok := TimeOfImpact(w.query, a, b, dt)
		if !ok {
			return contact{}, false, nil
		}
		w.resolver.ResolveMoving(a, b, toi.Time)
		return contact{pair: ContactPair{A: a, B: b}, toi: toi}, true, nil
	}

	o := w.Obstacles[job.j-len(w.Walkers)]
	toi, ok := TimeOfImpact(w.query, a, o, dt)
	if !ok {
		return contact{}, false, nil
	}
	ResolveObstacle(a, o, toi.Time)
	return contact{pair: ContactPair{A: a, B: o}, toi: toi}, true, nil
}

// dispatchContacts sends enter events for new contacts and exit events for
// contacts that ended.
func (w *World) dispatchContacts(contacts []contact) {
	current := make(map[ContactPair]bool, len(contacts))
	order := make([]ContactPair, 0, len(contacts))
	for _, c := range contacts {
		current[c.pair] = true
		order = append(order, c.pair)
		if !w.activeContacts[c.pair] {
			notifyContactEnter(c.pair.A, c.pair.B, c.toi)
			notifyContactEnter(c.pair.B, c.pair.A, c.toi)
			w.emit(ContactEvent{Pair: c.pair, TOI: c.toi, Enter: true})
		}
	}

	for _, pair := range w.activeOrder {
		if !current[pair] {
			notifyContactExit(pair.A, pair.B)
			notifyContactExit(pair.B, pair.A)
			w.emit(ContactEvent{Pair: pair})
		}
	}

	w.activeContacts = current
	w.activeOrder = order
}

func (w *World) emit(e ContactEvent) {
	for _, fn := range w.listeners {
		fn(e)
	}
}

func notifyContactEnter(obj, other Collidable, toi geom.TOI) {
	if handler, ok := obj.(ContactHandler); ok {
		handler.OnContactEnter(other, toi)
	}
}

func notifyContactExit(obj, other Collidable) {
	if handler, ok := obj.(ContactHandler); ok {
		handler.OnContactExit(other)
	}
}
