package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/resume"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

func resetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the catalog, the bookmark and the play history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := fromContext(cmd)
			if !yes {
				return errors.New("reset erases all saved state, pass --yes to confirm")
			}
			cfg := e.cfg
			dev := storage.NewDevice(storage.OSFS{Root: cfg.Storage.Root})
			err := dev.Session(func(fsys storage.FS) error {
				if err := resume.Remove(fsys, cfg.Storage.StateFolder); err != nil {
					return err
				}
				return catalog.Remove(fsys, cfg.Storage.StateFolder)
			})
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			if cfg.HistoryEnabled() {
				h, err := openHistory(e)
				if err != nil {
					return err
				}
				defer h.Close()
				if err := h.Clear(cmd.Context()); err != nil {
					return err
				}
			}
			e.log.Warn("factory reset from command line")
			fmt.Fprintln(cmd.OutOrStdout(), "State erased; the next play rebuilds the catalog")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")

	return cmd
}
