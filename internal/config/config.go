package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds pocketshuffle runtime configuration loaded from TOML.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Catalog CatalogConfig `toml:"catalog"`
	Shuffle ShuffleConfig `toml:"shuffle"`
	Resume  ResumeConfig  `toml:"resume"`
	Player  PlayerConfig  `toml:"player"`
	Output  OutputConfig  `toml:"output"`
	UI      UIConfig      `toml:"ui"`
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
}

// StorageConfig locates the media device.
type StorageConfig struct {
	Root        string `toml:"root"`         // host mount point of the card
	StateFolder string `toml:"state_folder"` // device path, must be hidden
}

type CatalogConfig struct {
	Extensions []string `toml:"extensions"`
	BatchSize  int      `toml:"batch_size"`
}

type ShuffleConfig struct {
	HistoryLimit int `toml:"history_limit"`
	RetryFactor  int `toml:"retry_factor"`
}

type ResumeConfig struct {
	QueueSize          int   `toml:"queue_size"`
	SnapshotIntervalMS int   `toml:"snapshot_interval_ms"`
	RequireMatching    *bool `toml:"require_matching_catalog"`
}

type PlayerConfig struct {
	TickMS           int   `toml:"tick_ms"`
	PreviousWindowMS int   `toml:"previous_window_ms"`
	RetryIntervalMS  int   `toml:"retry_interval_ms"`
	ReadTags         *bool `toml:"read_tags"`
	VolumeSteps      int   `toml:"volume_steps"`
	InitialVolume    *int  `toml:"initial_volume"`
}

// OutputConfig selects the PCM sink. An empty path discards samples.
type OutputConfig struct {
	Path       string `toml:"path"`
	SampleRate int    `toml:"sample_rate"`
}

type UIConfig struct {
	Theme    string `toml:"theme"`
	Headless bool   `toml:"headless"`
}

type HistoryConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Load reads configuration from disk. If path is empty, a default OS-specific
// location is used, and a missing file there yields the defaults. Overrides
// run after parsing and before defaults and validation.
func Load(path string, overrides ...func(*Config)) (*Config, string, error) {
	cfgPath := path
	if cfgPath == "" {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	var cfg Config
	data, err := os.ReadFile(cfgPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, cfgPath, fmt.Errorf("parse config: %w", err)
		}
	case path == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}

	for _, o := range overrides {
		o(&cfg)
	}
	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}
	return &cfg, cfgPath, nil
}

func defaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	name := "pocketshuffle"
	if runtime.GOOS == "windows" {
		name = "PocketShuffle"
	}
	return filepath.Join(dir, name, "config.toml"), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.StateFolder == "" {
		cfg.Storage.StateFolder = "/.pocketshuffle"
	}
	if len(cfg.Catalog.Extensions) == 0 {
		cfg.Catalog.Extensions = []string{".mp3", ".wav", ".flac"}
	}
	for i, ext := range cfg.Catalog.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Catalog.Extensions[i] = ext
	}
	if cfg.Catalog.BatchSize == 0 {
		cfg.Catalog.BatchSize = 128
	}
	if cfg.Shuffle.HistoryLimit == 0 {
		cfg.Shuffle.HistoryLimit = 32
	}
	if cfg.Shuffle.RetryFactor == 0 {
		cfg.Shuffle.RetryFactor = 32
	}
	if cfg.Resume.QueueSize == 0 {
		cfg.Resume.QueueSize = 5
	}
	if cfg.Resume.SnapshotIntervalMS == 0 {
		cfg.Resume.SnapshotIntervalMS = 2000
	}
	if cfg.Resume.RequireMatching == nil {
		cfg.Resume.RequireMatching = ptr(true)
	}
	if cfg.Player.TickMS == 0 {
		cfg.Player.TickMS = 20
	}
	if cfg.Player.PreviousWindowMS == 0 {
		cfg.Player.PreviousWindowMS = 1500
	}
	if cfg.Player.RetryIntervalMS == 0 {
		cfg.Player.RetryIntervalMS = 5000
	}
	if cfg.Player.ReadTags == nil {
		cfg.Player.ReadTags = ptr(true)
	}
	if cfg.Player.VolumeSteps == 0 {
		cfg.Player.VolumeSteps = 10
	}
	if cfg.Player.InitialVolume == nil {
		cfg.Player.InitialVolume = ptr(cfg.Player.VolumeSteps * 7 / 10)
	}
	if cfg.Output.SampleRate == 0 {
		cfg.Output.SampleRate = 44100
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "rainbow"
	}
	if cfg.History.Enabled == nil {
		cfg.History.Enabled = ptr(true)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate performs semantic validation of cfg.
func Validate(cfg Config) error {
	if cfg.Storage.Root == "" {
		return errors.New("storage.root is required (set it in the config or pass --root)")
	}
	info, err := os.Stat(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("storage root %s: %w", cfg.Storage.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", cfg.Storage.Root)
	}
	sf := cfg.Storage.StateFolder
	if !strings.HasPrefix(sf, "/") || sf == "/" {
		return fmt.Errorf("storage.state_folder %q must be an absolute device path", sf)
	}
	if !strings.HasPrefix(path.Base(sf), ".") {
		return fmt.Errorf("storage.state_folder %q must be hidden (start with a dot)", sf)
	}
	for _, ext := range cfg.Catalog.Extensions {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("catalog.extensions contains invalid entry %q", ext)
		}
	}
	if cfg.Catalog.BatchSize < 1 {
		return errors.New("catalog.batch_size must be positive")
	}
	if cfg.Shuffle.HistoryLimit < 2 {
		return errors.New("shuffle.history_limit must be at least 2")
	}
	if cfg.Shuffle.RetryFactor < 1 {
		return errors.New("shuffle.retry_factor must be positive")
	}
	if cfg.Resume.QueueSize < 1 {
		return errors.New("resume.queue_size must be positive")
	}
	if cfg.Resume.SnapshotIntervalMS < 100 {
		return errors.New("resume.snapshot_interval_ms must be at least 100")
	}
	if cfg.Player.TickMS < 1 || cfg.Player.TickMS > 1000 {
		return errors.New("player.tick_ms must be 1-1000")
	}
	if cfg.Player.VolumeSteps < 1 {
		return errors.New("player.volume_steps must be positive")
	}
	if v := cfg.Player.InitialVolume; v != nil && (*v < 0 || *v > cfg.Player.VolumeSteps) {
		return fmt.Errorf("player.initial_volume must be 0-%d", cfg.Player.VolumeSteps)
	}
	if cfg.Output.SampleRate < 8000 || cfg.Output.SampleRate > 192000 {
		return errors.New("output.sample_rate must be 8000-192000")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", cfg.Logging.Level)
	}
	return nil
}

func (c Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Resume.SnapshotIntervalMS) * time.Millisecond
}

func (c Config) Tick() time.Duration {
	return time.Duration(c.Player.TickMS) * time.Millisecond
}

func (c Config) PreviousWindow() time.Duration {
	return time.Duration(c.Player.PreviousWindowMS) * time.Millisecond
}

func (c Config) RetryInterval() time.Duration {
	return time.Duration(c.Player.RetryIntervalMS) * time.Millisecond
}

// RequireMatchingCatalog reports whether a bookmark written against a catalog
// of another size is rejected.
func (c Config) RequireMatchingCatalog() bool {
	return c.Resume.RequireMatching == nil || *c.Resume.RequireMatching
}

func (c Config) ReadTags() bool {
	return c.Player.ReadTags == nil || *c.Player.ReadTags
}

func (c Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

func (c Config) InitialVolume() int {
	if c.Player.InitialVolume == nil {
		return c.Player.VolumeSteps
	}
	return *c.Player.InitialVolume
}

func ptr[T any](v T) *T { return &v }
