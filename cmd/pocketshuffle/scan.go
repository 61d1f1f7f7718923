package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/resume"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

func scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Rebuild the catalog from the card",
		Long: `Discards the catalog and folder summary and scans the card again.
The bookmark indexes the old catalog, so it is removed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := fromContext(cmd)
			cfg := e.cfg
			dev := storage.NewDevice(storage.OSFS{Root: cfg.Storage.Root})

			bar := newScanBar("Scanning")
			start := time.Now()
			cat, err := catalog.Rebuild(cmd.Context(), dev, catalog.Options{
				StateFolder: cfg.Storage.StateFolder,
				Extensions:  cfg.Catalog.Extensions,
				BatchSize:   cfg.Catalog.BatchSize,
				Logger:      e.log,
				Progress: func(count int, path string) {
					bar.Describe(fmt.Sprintf("Scanning: %d tracks", count))
					_ = bar.Add(1)
				},
			})
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			var folders []int
			err = dev.Session(func(fsys storage.FS) error {
				if err := resume.Remove(fsys, cfg.Storage.StateFolder); err != nil {
					return err
				}
				var err error
				folders, err = cat.FolderCounts(fsys)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scan complete in %s\n", time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "  %d tracks in %d folders\n", cat.Total, len(folders))
			e.log.Info("scan complete", slog.Int("tracks", cat.Total), slog.Int("folders", len(folders)), slog.Duration("duration", time.Since(start)))
			return nil
		},
	}
}
