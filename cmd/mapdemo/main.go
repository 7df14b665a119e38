// mapdemo opens a window on a map and steps it in real time.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"

	"mapbuilder3d/internal/config"
	"mapbuilder3d/internal/engine"
	"mapbuilder3d/internal/physics"
	"mapbuilder3d/internal/world"
)

type demo struct {
	path     string
	m        *world.Map
	w        *physics.World
	sched    *engine.Scheduler
	cam      *flyCamera
	logger   *log.Logger
	settings *config.Settings

	paused     bool
	showBounds bool
	timeScale  float32
	contacts   int
}

func main() {
	var configPath string
	root := &cobra.Command{
		Use:          "mapdemo <map>",
		Short:        "View a map while its walkers move",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDemo(configPath, args[0])
			if err != nil {
				return err
			}
			d.run()
			return nil
		},
	}
	root.Flags().StringVar(&configPath, "config", "mapbuilder3d.yaml", "settings file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDemo(configPath, mapPath string) (*demo, error) {
	s, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level, err := s.Level()
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "mapdemo",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})

	d := &demo{path: mapPath, settings: s, logger: logger, timeScale: 1}
	if err := d.load(); err != nil {
		return nil, err
	}
	d.cam = newFlyCamera(rl.Vector3{X: 20, Y: 15, Z: 20})
	return d, nil
}

// load (re)reads the map file and rebuilds the world and scheduler.
func (d *demo) load() error {
	m, err := world.LoadMap(d.path)
	if err != nil {
		return err
	}
	opts, err := d.settings.WorldOptions()
	if err != nil {
		return err
	}
	opts.Logger = d.logger.WithPrefix("physics")
	w, err := m.Build(opts)
	if err != nil {
		return fmt.Errorf("build %s: %w", d.path, err)
	}
	w.OnContact(func(e physics.ContactEvent) {
		if e.Enter {
			d.contacts++
		}
	})

	sched := engine.NewScheduler(m.Name, d.settings.Step, d.settings.MaxSteps)
	sched.Add("physics", w)
	sched.OnDrop.AddListener(func(lost float64) {
		d.logger.Warn("simulation falling behind", "dropped", lost)
	})

	d.m, d.w, d.sched, d.contacts = m, w, sched, 0
	d.logger.Info("map loaded", "path", d.path, "walkers", len(w.Walkers), "obstacles", len(w.Obstacles))
	return nil
}

func (d *demo) run() {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(1280, 720, "mapdemo: "+d.path)
	defer rl.CloseWindow()
	rl.SetTargetFPS(120)

	for !rl.WindowShouldClose() {
		d.update()
		d.draw()
	}
}

func (d *demo) update() {
	deltaTime := rl.GetFrameTime()
	d.cam.Update(deltaTime)

	if rl.IsKeyPressed(rl.KeyP) {
		d.paused = !d.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := d.load(); err != nil {
			d.logger.Error("reload failed", "err", err)
		}
	}
	if d.paused {
		if rl.IsKeyPressed(rl.KeyN) {
			d.sched.StepOnce()
		}
		return
	}
	d.sched.Tick(float64(deltaTime * d.timeScale))
}

func (d *demo) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	rl.BeginMode3D(d.cam.Camera())
	drawWorld(d.w, d.showBounds)
	rl.EndMode3D()

	d.drawPanel()
	rl.EndDrawing()
}

func (d *demo) drawPanel() {
	stats := d.w.Stats()
	x, y := float32(10), float32(10)
	gui.Panel(rl.Rectangle{X: x, Y: y, Width: 260, Height: 230}, d.m.Name)
	y += 34

	d.paused = gui.CheckBox(rl.Rectangle{X: x + 10, Y: y, Width: 18, Height: 18}, "Paused (P)", d.paused)
	y += 26
	d.showBounds = gui.CheckBox(rl.Rectangle{X: x + 10, Y: y, Width: 18, Height: 18}, "Show bounds", d.showBounds)
	y += 26
	if gui.Button(rl.Rectangle{X: x + 10, Y: y, Width: 110, Height: 22}, "Step (N)") {
		d.sched.StepOnce()
	}
	if gui.Button(rl.Rectangle{X: x + 130, Y: y, Width: 110, Height: 22}, "Reload (R)") {
		if err := d.load(); err != nil {
			d.logger.Error("reload failed", "err", err)
		}
	}
	y += 30
	d.timeScale = gui.Slider(rl.Rectangle{X: x + 60, Y: y, Width: 140, Height: 18}, "Speed", fmt.Sprintf("%.2fx", d.timeScale), d.timeScale, 0.1, 4)
	y += 28

	lines := []string{
		fmt.Sprintf("steps %d  resolver %s", d.sched.Steps(), d.w.Resolver()),
		fmt.Sprintf("pairs %d  culled %d", stats.PairsTested, stats.PairsCulled),
		fmt.Sprintf("contacts %d  total %d  failed %d", stats.Contacts, d.contacts, stats.Failed),
		fmt.Sprintf("frame %v", stats.Elapsed.Round(time.Microsecond)),
	}
	for _, line := range lines {
		gui.Label(rl.Rectangle{X: x + 10, Y: y, Width: 240, Height: 18}, line)
		y += 20
	}
}
