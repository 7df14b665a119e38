// mapcheck loads maps and steps their walkers without a window.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mapbuilder3d/internal/config"
)

type app struct {
	configPath string
	logLevel   string

	settings *config.Settings
	logger   *log.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "mapcheck",
		Short:         "Simulate and manage mapbuilder3d maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "mapbuilder3d.yaml", "settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(a.runCommand(), a.stressCommand(), a.saveCommand(), a.loadCommand(), a.listCommand(), a.deleteCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mapcheck:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	s, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.LogLevel = a.logLevel
	}
	level, err := s.Level()
	if err != nil {
		return err
	}

	a.settings = s
	a.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "mapcheck",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
	log.SetDefault(a.logger)
	return nil
}
