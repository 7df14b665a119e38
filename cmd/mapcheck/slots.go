package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mapbuilder3d/internal/mapstore"
	"mapbuilder3d/internal/world"
)

func (a *app) openStore() (*mapstore.Store, error) {
	return mapstore.Open(a.settings.AppName)
}

func (a *app) saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <map> <slot>",
		Short: "Copy a map file into a saved slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := world.LoadMap(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Save(args[1], m); err != nil {
				return err
			}
			a.logger.Info("map saved", "slot", args[1], "walkers", len(m.Walkers), "obstacles", len(m.Obstacles))
			return nil
		},
	}
}

func (a *app) loadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <slot> <out>",
		Short: "Write a saved slot to a map file (.json or .yaml)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			m, err := store.Load(args[0])
			if err != nil {
				return err
			}
			if err := world.SaveMap(args[1], m); err != nil {
				return err
			}
			a.logger.Info("map loaded", "slot", args[0], "path", args[1])
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Remove a saved slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}
}
