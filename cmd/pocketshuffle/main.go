package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pocketshuffle/pocketshuffle/internal/config"
	"github.com/pocketshuffle/pocketshuffle/internal/logging"
	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

var version = "0.1.0"

type env struct {
	cfg     *config.Config
	cfgPath string
	log     *slog.Logger
	theme   ui.Theme
	closer  io.Closer
}

type envKey struct{}

func fromContext(cmd *cobra.Command) *env {
	val := cmd.Context().Value(envKey{})
	if val == nil {
		return nil
	}
	return val.(*env)
}

func main() {
	root := &cobra.Command{
		Use:           "pocketshuffle",
		Short:         "Shuffle player for a flash card full of music",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		cfgPath   string
		mediaRoot string
		logLevel  string
		logStderr bool
		noColor   bool
	)
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default: ~/.config/pocketshuffle/config.toml)")
	root.PersistentFlags().StringVarP(&mediaRoot, "root", "r", "", "directory the card is mounted at")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().BoolVar(&logStderr, "log-stderr", false, "log to stderr instead of the state directory")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfg, resolved, err := config.Load(cfgPath, func(c *config.Config) {
			if mediaRoot != "" {
				c.Storage.Root = mediaRoot
			}
			if logLevel != "" {
				c.Logging.Level = logLevel
			}
		})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		headless, _ := cmd.Flags().GetBool("headless")
		logger, closer, err := logging.Setup(logging.Options{
			Level:  cfg.Logging.Level,
			Stderr: logStderr || headless || cfg.UI.Headless,
		})
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		slog.SetDefault(logger)
		logger.Info("starting pocketshuffle", slog.String("version", version), slog.String("config", resolved), slog.String("cmd", cmd.Name()))

		cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{
			cfg:     cfg,
			cfgPath: resolved,
			log:     logger,
			theme:   ui.GetTheme(cfg.UI.Theme, noColor || os.Getenv("NO_COLOR") != ""),
			closer:  closer,
		}))
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if e := fromContext(cmd); e != nil {
			return e.closer.Close()
		}
		return nil
	}

	root.AddCommand(playCommand())
	root.AddCommand(scanCommand())
	root.AddCommand(doctorCommand())
	root.AddCommand(historyCommand())
	root.AddCommand(resetCommand())
	root.AddCommand(versionCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "pocketshuffle:", err)
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pocketshuffle", version)
		},
	}
}
