package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"mapbuilder3d/internal/geom"
	"mapbuilder3d/internal/physics"
	"mapbuilder3d/internal/shape"
)

func (a *app) stressCommand() *cobra.Command {
	var (
		counts    []int
		obstacles int
		frames    int
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Compare exhaustive and broadphase frame times on random scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, count := range counts {
				a.stress(cmd, count, obstacles, frames, seed)
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&counts, "walkers", []int{100, 500, 1000, 2000}, "walker counts to test")
	cmd.Flags().IntVar(&obstacles, "obstacles", 200, "obstacles per scene")
	cmd.Flags().IntVar(&frames, "frames", 10, "frames timed per run")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

// stressScene spawns balls in a cube whose size scales with count to keep
// density reasonable.
func stressScene(opts physics.Options, count, obstacles int, seed int64) *physics.World {
	rng := rand.New(rand.NewSource(seed))
	spawn := 50.0 + float64(count)/100.0
	pos := func() mgl64.Vec3 {
		return mgl64.Vec3{
			rng.Float64()*spawn - spawn/2,
			rng.Float64()*spawn - spawn/2,
			rng.Float64()*spawn - spawn/2,
		}
	}

	lib := shape.NewLibrary()
	balls := []*shape.Handle{
		lib.Register("small", shape.Ball{Radius: 0.5}),
		lib.Register("large", shape.Ball{Radius: 1}),
		lib.Register("capsule", shape.Capsule{HalfHeight: 0.5, Radius: 0.5}),
	}
	crate := lib.Register("crate", shape.Cuboid{HalfExtents: mgl64.Vec3{1, 1, 1}})

	w := physics.NewWorld(opts)
	for i := 0; i < count; i++ {
		vel := mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
		w.AddWalker(physics.NewWalkingObject(balls[i%len(balls)], geom.Iso{Pos: pos(), Rot: mgl64.QuatIdent()}, vel, physics.PositionOffset{}))
	}
	for i := 0; i < obstacles; i++ {
		w.AddObstacle(physics.NewObstacleObject(crate, geom.Iso{Pos: pos(), Rot: mgl64.QuatIdent()}))
	}
	return w
}

func (a *app) stress(cmd *cobra.Command, count, obstacles, frames int, seed int64) {
	base, err := a.settings.WorldOptions()
	if err != nil {
		base = physics.Options{}
	}
	base.Logger = a.logger.WithPrefix("physics")

	timeRun := func(broadphase bool) (time.Duration, physics.FrameStats) {
		opts := base
		opts.Broadphase = broadphase
		w := stressScene(opts, count, obstacles, seed)
		w.Update(1.0 / 60.0) // warm up
		start := time.Now()
		for i := 0; i < frames; i++ {
			w.Update(1.0 / 60.0)
		}
		return time.Since(start) / time.Duration(max(frames, 1)), w.Stats()
	}

	fullTime, full := timeRun(false)
	gridTime, grid := timeRun(true)
	speedup := float64(fullTime) / float64(max(gridTime, 1))

	fmt.Fprintf(cmd.OutOrStdout(), "%5d walkers: exhaustive %10v (%7d pairs) | grid %10v (%6d pairs, %7d culled) | %.1fx speedup\n",
		count, fullTime.Round(time.Microsecond), full.PairsTested,
		gridTime.Round(time.Microsecond), grid.PairsTested, grid.PairsCulled, speedup)
}
