package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/history"
	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

func historyCommand() *cobra.Command {
	var (
		limit int
		wipe  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := fromContext(cmd)
			if !e.cfg.HistoryEnabled() {
				return fmt.Errorf("history is disabled in %s", e.cfgPath)
			}
			h, err := openHistory(e)
			if err != nil {
				return err
			}
			defer h.Close()

			out := cmd.OutOrStdout()
			if wipe {
				if err := h.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared")
				return nil
			}

			entries, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No plays recorded yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tOUTCOME\tTRACK\tAT\tTITLE")
			for _, en := range entries {
				title := en.Path
				if en.Title != "" {
					title = en.Title
					if en.Artist != "" {
						title = en.Artist + " - " + en.Title
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					en.At.Local().Format("Jan 02 15:04"), outcomeLabel(en.Outcome), en.TrackIndex,
					ui.Bytes(int64(en.Offset)), ui.Truncate(title, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of plays to show")
	cmd.Flags().BoolVar(&wipe, "clear", false, "delete the journal")

	return cmd
}

func outcomeLabel(o history.Outcome) string {
	switch o {
	case history.Skipped:
		return "skipped"
	case history.Failed:
		return "failed"
	default:
		return "played"
	}
}
