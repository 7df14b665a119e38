package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mapbuilder3d/internal/engine"
	"mapbuilder3d/internal/physics"
	"mapbuilder3d/internal/world"
)

func (a *app) runCommand() *cobra.Command {
	var (
		frames int
		dt     float64
		out    string
	)
	cmd := &cobra.Command{
		Use:   "run <map>",
		Short: "Step a map for a number of frames and print where every walker ends up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := world.LoadMap(args[0])
			if err != nil {
				return err
			}
			opts, err := a.settings.WorldOptions()
			if err != nil {
				return err
			}
			opts.Logger = a.logger.WithPrefix("physics")

			w, err := m.Build(opts)
			if err != nil {
				return fmt.Errorf("build %s: %w", args[0], err)
			}
			w.OnContact(func(e physics.ContactEvent) {
				if e.Enter {
					a.logger.Debug("contact", "a", e.Pair.A, "b", e.Pair.B, "toi", e.TOI.Time)
				}
			})

			step := dt
			if step <= 0 {
				step = a.settings.Step
			}
			sched := engine.NewScheduler(m.Name, step, 1)
			sched.Add("physics", w)

			var contacts, failed int
			sched.OnStep.AddListener(func(uint64) {
				contacts += w.Stats().Contacts
				failed += w.Stats().Failed
			})
			for i := 0; i < frames; i++ {
				sched.StepOnce()
			}

			a.logger.Info("simulation finished",
				"map", args[0],
				"frames", sched.Steps(),
				"dt", step,
				"contacts", contacts,
				"failed", failed)

			for _, c := range w.Walkers {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}

			if out != "" {
				if err := world.SaveMap(out, world.Capture(w, m.Library())); err != nil {
					return err
				}
				a.logger.Info("saved final state", "path", out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 60, "number of frames to step")
	cmd.Flags().Float64Var(&dt, "dt", 0, "frame length in seconds (default from settings)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the final state to this map file")
	return cmd
}
