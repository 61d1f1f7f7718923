// Package player drives playback: it picks tracks from the shuffler, opens
// them through the storage device, runs the decoder one tick at a time and
// feeds position snapshots to the resume store.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/codec"
	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/history"
	"github.com/pocketshuffle/pocketshuffle/internal/resume"
	"github.com/pocketshuffle/pocketshuffle/internal/shuffle"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

const (
	DefaultSnapshotInterval = 2 * time.Second
	DefaultPreviousWindow   = 1500 * time.Millisecond
	commandQueueSize        = 8
)

// Journal receives play outcomes. *history.Store satisfies it.
type Journal interface {
	Record(ctx context.Context, e history.Entry) error
}

type Options struct {
	Device   *storage.Device
	Catalog  *catalog.Catalog
	Shuffler *shuffle.Shuffler
	Resume   *resume.Store
	Decoders codec.Factory
	Output   codec.Output
	Volume   *codec.Volume
	Journal  Journal

	StateFolder      string
	SnapshotInterval time.Duration
	PreviousWindow   time.Duration
	ReadTags         bool

	Now    func() time.Time
	Logger *slog.Logger
}

// Orchestrator owns one playback session. Start, Tick and Status belong to
// the playback loop; Submit may be called from any goroutine.
type Orchestrator struct {
	opts Options
	log  *slog.Logger
	cmds chan Command

	state   State
	started bool
	restart bool

	// Track being loaded.
	pendingIndex  int
	pendingOffset uint32

	// Track playing, or last attempted.
	current  int
	path     string
	kind     codec.Kind
	info     codec.Info
	offset   int64
	src      *storage.GuardedFile
	dec      codec.Decoder
	failures int
	err      error
	folders  []int
	lastNav  time.Time
	lastSnap time.Time
}

func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = DefaultSnapshotInterval
	}
	if opts.PreviousWindow <= 0 {
		opts.PreviousWindow = DefaultPreviousWindow
	}
	if opts.StateFolder == "" {
		opts.StateFolder = catalog.DefaultStateFolder
	}
	if opts.Volume == nil {
		opts.Volume = codec.NewVolume(codec.DefaultVolumeSteps, codec.DefaultVolumeSteps)
	}
	if opts.Output == nil {
		opts.Output = codec.Discard(codec.DefaultSampleRate)
	}
	if opts.Decoders == nil {
		opts.Decoders = codec.NewBeepFactory(codec.BeepOptions{Volume: opts.Volume})
	}
	return &Orchestrator{
		opts:    opts,
		log:     opts.Logger,
		cmds:    make(chan Command, commandQueueSize),
		current: -1,
	}
}

// Start leaves Idle: it resumes the bookmark when ok, otherwise it begins a
// fresh shuffle round.
func (o *Orchestrator) Start(b resume.Bookmark, ok bool) {
	o.started = true
	o.loadFolders()
	if ok {
		if err := o.opts.Shuffler.Seed(b.TrackIndex); err == nil {
			o.log.Info("resuming", slog.Int("track", b.TrackIndex), slog.Uint64("offset", uint64(b.ByteOffset)))
			o.request(b.TrackIndex, b.ByteOffset)
			return
		}
	}
	o.advance()
}

func (o *Orchestrator) loadFolders() {
	err := o.opts.Device.Session(func(fsys storage.FS) error {
		counts, err := o.opts.Catalog.FolderCounts(fsys)
		o.folders = counts
		return err
	})
	if err != nil {
		o.log.Warn("folder counts unavailable", slog.Any("err", err))
	}
}

// Submit queues a command for the next tick. It returns false when the
// command queue is full.
func (o *Orchestrator) Submit(c Command) bool {
	select {
	case o.cmds <- c:
		return true
	default:
		return false
	}
}

// Tick runs one step of the state machine. It never blocks except on the
// storage guard.
func (o *Orchestrator) Tick() {
	o.drainCommands()
	if !o.started {
		return
	}
	switch o.state {
	case Idle, Advancing:
		o.advance()
		if o.state == Loading {
			o.load()
		}
	case Loading:
		o.load()
	case Playing:
		o.play()
	case Halted:
	}
}

// RestartRequested reports that a factory reset completed and the host
// should boot again.
func (o *Orchestrator) RestartRequested() bool { return o.restart }

func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) Err() error { return o.err }

func (o *Orchestrator) Status() Status {
	st := Status{
		State:       o.state,
		Index:       o.current,
		Total:       o.opts.Catalog.Total,
		Remaining:   o.opts.Shuffler.Remaining(),
		Path:        o.path,
		Kind:        o.kind,
		Offset:      o.offset,
		Title:       o.info.Title,
		Artist:      o.info.Artist,
		Volume:      o.opts.Volume.Level(),
		VolumeSteps: o.opts.Volume.Steps(),
		Folder:      -1,
		Failures:    o.failures,
		Err:         o.err,
	}
	if f, pos, ok := catalog.FolderOf(o.folders, o.current); ok {
		st.Folder, st.FolderPos, st.FolderSize = f, pos, o.folders[f]
	}
	return st
}

// Close stops the active track.
func (o *Orchestrator) Close() {
	o.stopCurrent()
}

// request switches to index at offset. Queued snapshots of the previous
// track are discarded before anything of the new one can be enqueued. That
// includes the final snapshot play enqueues at end of track: it is only
// persisted if the writer took it before this reset, and the new track's
// start snapshot supersedes it either way.
func (o *Orchestrator) request(index int, offset uint32) {
	o.stopCurrent()
	o.opts.Resume.Reset(index)
	o.pendingIndex = index
	o.pendingOffset = offset
	o.state = Loading
}

// advance draws the next index and moves to Loading.
func (o *Orchestrator) advance() {
	next, err := o.opts.Shuffler.Next()
	if err == nil && next == o.current && o.opts.Shuffler.Total() > 1 {
		// A fresh round drew the track that just ended. Draw again and give
		// the rejected index back so it still plays later in this round.
		rejected := next
		next, err = o.opts.Shuffler.Next()
		o.opts.Shuffler.Release(rejected)
	}
	if err != nil {
		o.halt(err)
		return
	}
	o.request(next, 0)
}

func (o *Orchestrator) load() {
	index, offset := o.pendingIndex, o.pendingOffset
	o.current = index
	o.path, o.kind, o.info, o.offset = "", codec.Unknown, codec.Info{}, 0

	var (
		raw storage.File
		pos int64
	)
	err := o.opts.Device.Session(func(fsys storage.FS) error {
		p, err := o.opts.Catalog.PathAt(fsys, index)
		if err != nil {
			return err
		}
		o.path = p
		o.kind = codec.KindOf(p)
		if o.kind == codec.Unknown {
			return errors.New("unsupported extension")
		}
		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		if o.opts.ReadTags {
			info, err := codec.ReadInfo(f)
			if err != nil {
				o.log.Debug("read tags", slog.String("path", p), slog.Any("err", err))
			}
			o.info = info
		}
		switch {
		case offset > 0:
			pos, err = f.Seek(int64(offset), io.SeekStart)
		case o.kind == codec.MP3:
			pos, err = codec.SkipID3v2(f)
		default:
			pos, err = f.Seek(0, io.SeekStart)
		}
		if err != nil {
			f.Close()
			return fmt.Errorf("seek: %w", err)
		}
		raw = f
		return nil
	})
	if err != nil {
		o.openFailed(err)
		return
	}

	src := o.opts.Device.Guard(raw)
	dec, err := o.opts.Decoders(o.kind)
	if err == nil {
		err = dec.Begin(src, o.opts.Output)
	}
	if err != nil {
		src.Close()
		o.openFailed(err)
		return
	}
	o.src, o.dec = src, dec
	o.offset = pos
	o.failures = 0
	o.err = nil
	o.state = Playing
	o.lastSnap = o.opts.Now()
	o.opts.Resume.Enqueue(clampOffset(pos))
	o.log.Info("playing",
		slog.Int("track", index),
		slog.String("path", o.path),
		slog.String("codec", o.kind.String()),
		slog.Int64("offset", pos),
	)
}

func (o *Orchestrator) openFailed(err error) {
	if !errors.Is(err, fault.ErrTrackOpenFailed) {
		err = fmt.Errorf("%w: track %d %q: %w", fault.ErrTrackOpenFailed, o.current, o.path, err)
	}
	o.err = err
	o.log.Warn("track open failed", slog.Int("track", o.current), slog.String("path", o.path), slog.Any("err", err))
	o.record(history.Failed)
	if fault.IsStorageUnavailable(err) {
		o.halt(err)
		return
	}
	o.failures++
	if o.failures >= o.opts.Catalog.Total {
		o.halt(err)
		return
	}
	o.state = Idle
}

func (o *Orchestrator) play() {
	if o.dec.Loop() {
		if o.opts.Now().Sub(o.lastSnap) >= o.opts.SnapshotInterval {
			o.snapshot()
		}
		return
	}
	if e, ok := o.dec.(interface{ Err() error }); ok && e.Err() != nil {
		o.err = e.Err()
		o.log.Warn("decode error", slog.Int("track", o.current), slog.String("path", o.path), slog.Any("err", o.err))
	}
	// May be discarded by the reset in request on the next tick.
	o.snapshot()
	o.record(history.Finished)
	o.state = Advancing
}

func (o *Orchestrator) snapshot() {
	o.lastSnap = o.opts.Now()
	if o.src == nil {
		return
	}
	pos, err := o.src.Position()
	if err != nil {
		return
	}
	o.offset = pos
	if !o.opts.Resume.Enqueue(clampOffset(pos)) {
		o.log.Debug("snapshot dropped", slog.Int64("offset", pos))
	}
}

func (o *Orchestrator) halt(err error) {
	o.stopCurrent()
	o.err = err
	o.state = Halted
	o.log.Error("playback halted", slog.Any("err", err))
}

func (o *Orchestrator) stopCurrent() {
	if o.dec != nil {
		o.dec.Stop()
		o.dec = nil
	}
	if o.src != nil {
		o.src.Close()
		o.src = nil
	}
}

func (o *Orchestrator) record(outcome history.Outcome) {
	if o.opts.Journal == nil || o.path == "" {
		return
	}
	err := o.opts.Journal.Record(context.Background(), history.Entry{
		TrackIndex: o.current,
		Path:       o.path,
		Title:      o.info.Title,
		Artist:     o.info.Artist,
		Outcome:    outcome,
		Offset:     clampOffset(o.offset),
		At:         o.opts.Now(),
	})
	if err != nil {
		o.log.Debug("journal write failed", slog.Any("err", err))
	}
}

func clampOffset(pos int64) uint32 {
	if pos < 0 {
		return 0
	}
	if pos > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(pos)
}
