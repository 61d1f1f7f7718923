// Package app hosts a playback session: it boots the catalog, resume store
// and orchestrator from config, drives ticks, retries after storage faults
// and reboots after a factory reset. The TUI and the headless loop are two
// schedulers over the same Runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/codec"
	"github.com/pocketshuffle/pocketshuffle/internal/config"
	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/player"
	"github.com/pocketshuffle/pocketshuffle/internal/resume"
	"github.com/pocketshuffle/pocketshuffle/internal/shuffle"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Journal player.Journal
	Rand    *rand.Rand
	Now     func() time.Time

	// Device overrides the OS filesystem rooted at Config.Storage.Root.
	Device *storage.Device

	// Decoders overrides the beep decoders.
	Decoders codec.Factory

	// Output overrides the sink configured in Config.Output.
	Output codec.Output

	// Progress is passed to catalog builds.
	Progress func(count int, path string)
}

// Status is what the schedulers display.
type Status struct {
	Player    player.Status
	Booted    bool
	BootErr   error
	NextRetry time.Time
	Boots     int
	Dropped   uint64
}

// Runtime owns what survives a reboot. Boot rebuilds the rest.
type Runtime struct {
	opts   Options
	cfg    *config.Config
	log    *slog.Logger
	dev    *storage.Device
	volume *codec.Volume
	out    codec.Output
	closer io.Closer
	cmds   chan player.Command
	diag   *Diagnostics

	ctx         context.Context
	orch        *player.Orchestrator
	store       *resume.Store
	stopPersist context.CancelFunc
	persistWG   sync.WaitGroup
	bootErr     error
	nextRetry   time.Time
	boots       int
}

func New(opts Options) (*Runtime, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg := opts.Config
	r := &Runtime{
		opts:   opts,
		cfg:    cfg,
		log:    opts.Logger,
		dev:    opts.Device,
		volume: codec.NewVolume(cfg.Player.VolumeSteps, cfg.InitialVolume()),
		out:    opts.Output,
		cmds:   make(chan player.Command, 16),
		diag:   NewDiagnostics(opts.Now),
		ctx:    context.Background(),
	}
	if r.dev == nil {
		r.dev = storage.NewDevice(storage.OSFS{Root: cfg.Storage.Root})
	}
	rate := beep.SampleRate(cfg.Output.SampleRate)
	if r.out == nil {
		if cfg.Output.Path == "" {
			r.out = codec.Discard(rate)
		} else {
			out, closer, err := codec.OpenFile(cfg.Output.Path, rate)
			if err != nil {
				return nil, fmt.Errorf("open output: %w", err)
			}
			r.out, r.closer = out, closer
		}
	}
	if r.opts.Decoders == nil {
		r.opts.Decoders = codec.NewBeepFactory(codec.BeepOptions{Chunk: cfg.Tick(), Volume: r.volume})
	}
	return r, nil
}

// Boot builds or loads the catalog, recovers the bookmark and starts a
// session. Storage faults leave the runtime halted with a retry scheduled.
func (r *Runtime) Boot(ctx context.Context) error {
	r.ctx = ctx
	r.endSession()
	r.boots++
	r.diag.Boots = r.boots

	cat, err := catalog.BuildOrLoad(ctx, r.dev, catalog.Options{
		StateFolder: r.cfg.Storage.StateFolder,
		Extensions:  r.cfg.Catalog.Extensions,
		BatchSize:   r.cfg.Catalog.BatchSize,
		Logger:      r.log,
		Progress:    r.opts.Progress,
	})
	if err != nil {
		r.fail(err)
		return err
	}
	r.bootErr = nil

	sh := shuffle.New(cat.Total, shuffle.Options{
		HistoryLimit: r.cfg.Shuffle.HistoryLimit,
		RetryFactor:  r.cfg.Shuffle.RetryFactor,
		Rand:         r.opts.Rand,
	})
	r.store = resume.New(r.dev, cat.Total, resume.Options{
		StateFolder:       r.cfg.Storage.StateFolder,
		QueueSize:         r.cfg.Resume.QueueSize,
		AllowSizeMismatch: !r.cfg.RequireMatchingCatalog(),
		Logger:            r.log,
	})
	b, ok := r.store.Load()

	pctx, cancel := context.WithCancel(ctx)
	r.stopPersist = cancel
	r.persistWG.Add(1)
	go func(s *resume.Store) {
		defer r.persistWG.Done()
		s.Run(pctx)
	}(r.store)

	r.orch = player.New(player.Options{
		Device:           r.dev,
		Catalog:          cat,
		Shuffler:         sh,
		Resume:           r.store,
		Decoders:         r.opts.Decoders,
		Output:           r.out,
		Volume:           r.volume,
		Journal:          r.opts.Journal,
		StateFolder:      r.cfg.Storage.StateFolder,
		SnapshotInterval: r.cfg.SnapshotInterval(),
		PreviousWindow:   r.cfg.PreviousWindow(),
		ReadTags:         r.cfg.ReadTags(),
		Now:              r.opts.Now,
		Logger:           r.log,
	})
	r.orch.Start(b, ok)
	r.log.Info("booted", slog.Int("tracks", cat.Total), slog.Bool("resumed", ok))
	return nil
}

func (r *Runtime) fail(err error) {
	r.bootErr = err
	if fault.Retryable(err) {
		r.nextRetry = r.opts.Now().Add(r.cfg.RetryInterval())
		r.log.Error("halted, will retry", slog.Any("err", err), slog.Time("retry_at", r.nextRetry))
		return
	}
	r.nextRetry = time.Time{}
	r.log.Error("halted", slog.Any("err", err))
}

// Submit queues a command. It is safe from any goroutine.
func (r *Runtime) Submit(c player.Command) bool {
	select {
	case r.cmds <- c:
		return true
	default:
		return false
	}
}

// Tick runs one scheduling step. It must be called from a single goroutine.
func (r *Runtime) Tick() {
	r.diag.Ticks++
	if r.orch == nil {
		r.drainWithoutSession()
		if r.bootErr != nil && fault.Retryable(r.bootErr) && !r.opts.Now().Before(r.nextRetry) {
			r.diag.Retries++
			_ = r.Boot(r.ctx)
		}
		return
	}
	r.forward()
	r.orch.Tick()

	switch {
	case r.orch.RestartRequested():
		r.log.Info("restarting after factory reset")
		r.diag.Restarts++
		_ = r.Boot(r.ctx)
	case r.orch.State() == player.Halted && fault.Retryable(r.orch.Err()):
		err := r.orch.Err()
		r.endSession()
		r.fail(err)
	}
}

func (r *Runtime) forward() {
	for {
		select {
		case c := <-r.cmds:
			r.diag.Commands++
			if !r.orch.Submit(c) {
				r.log.Warn("command dropped", slog.String("cmd", c.String()))
			}
		default:
			return
		}
	}
}

// drainWithoutSession applies volume commands while no session exists and
// discards the rest.
func (r *Runtime) drainWithoutSession() {
	for {
		select {
		case c := <-r.cmds:
			r.diag.Commands++
			switch c {
			case player.VolumeUp:
				r.volume.Up()
			case player.VolumeDown:
				r.volume.Down()
			}
		default:
			return
		}
	}
}

func (r *Runtime) Status() Status {
	st := Status{
		Booted:    r.orch != nil,
		BootErr:   r.bootErr,
		NextRetry: r.nextRetry,
		Boots:     r.boots,
	}
	if r.orch != nil {
		st.Player = r.orch.Status()
	} else {
		st.Player = player.Status{
			State:       player.Halted,
			Index:       -1,
			Folder:      -1,
			Volume:      r.volume.Level(),
			VolumeSteps: r.volume.Steps(),
			Err:         r.bootErr,
		}
	}
	if r.store != nil {
		st.Dropped = r.store.Dropped()
	}
	return st
}

// Diagnostics exposes runtime counters for the debug overlay.
func (r *Runtime) Diagnostics() *Diagnostics { return r.diag }

// endSession stops the orchestrator and waits for the persistence task to
// flush what is still queued.
func (r *Runtime) endSession() {
	if r.orch != nil {
		r.orch.Close()
		r.orch = nil
	}
	if r.stopPersist != nil {
		r.stopPersist()
		r.persistWG.Wait()
		r.stopPersist = nil
	}
	r.store = nil
}

// Close ends the session and releases the output.
func (r *Runtime) Close() error {
	r.endSession()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
