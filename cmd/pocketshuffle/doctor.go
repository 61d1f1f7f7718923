package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/app"
)

func doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the card and the saved state without changing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := fromContext(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, e.theme.Title.Render("PocketShuffle doctor"))
			fmt.Fprintf(out, "Config: %s\n", e.cfgPath)
			fmt.Fprintf(out, "Card:   %s\n\n", e.cfg.Storage.Root)

			rep := app.Doctor(cmd.Context(), e.cfg)
			fmt.Fprint(out, rep.Render(e.theme))
			e.log.Info("doctor complete", slog.Bool("failed", rep.Failed()))
			if rep.Failed() {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}
