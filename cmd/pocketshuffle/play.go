package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/app"
	"github.com/pocketshuffle/pocketshuffle/internal/history"
	"github.com/pocketshuffle/pocketshuffle/internal/player"
)

func playCommand() *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Resume or start shuffled playback",
		Long: `Boots the player: builds the catalog on first use, resumes the
bookmark when it is still valid and plays in shuffle order.

Headless mode reads one command per line from stdin:
  n, next        next track
  p, prev        previous (twice quickly goes back a track)
  +, -           volume
  reset          factory reset
  status, quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := fromContext(cmd)
			cfg := e.cfg
			headless = headless || cfg.UI.Headless

			var journal player.Journal
			if cfg.HistoryEnabled() {
				if h, err := openHistory(e); err != nil {
					e.log.Warn("history unavailable", slog.Any("err", err))
				} else {
					defer h.Close()
					journal = h
				}
			}

			// The spinner only covers the first boot; later reboots happen
			// under the TUI.
			var bar *progressbar.ProgressBar
			booting := true
			rt, err := app.New(app.Options{
				Config:  cfg,
				Logger:  e.log,
				Journal: journal,
				Progress: func(count int, path string) {
					if !booting {
						return
					}
					if bar == nil {
						bar = newScanBar("Building catalog")
					}
					bar.Describe(fmt.Sprintf("Building catalog: %d tracks", count))
					_ = bar.Add(1)
				},
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := rt.Boot(ctx); err != nil {
				e.log.Error("boot", slog.Any("err", err))
			}
			booting = false
			if bar != nil {
				_ = bar.Finish()
			}

			if headless {
				return app.RunHeadless(ctx, rt, os.Stdin, cmd.OutOrStdout(), cfg.Tick())
			}
			model := app.NewModel(rt, e.theme, cfg.Tick())
			if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
				e.log.Error("run tui", slog.Any("err", err))
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "run without the TUI, commands on stdin")

	return cmd
}

func openHistory(e *env) (*history.Store, error) {
	p, err := app.HistoryPath(e.cfg)
	if err != nil {
		return nil, err
	}
	return history.Open(p)
}

func newScanBar(desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
