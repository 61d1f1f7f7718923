// Package resume persists the single resume point of the player: which track
// was playing and how far into it. Snapshots flow through a small bounded
// queue to a background writer that rewrites the bookmark file in place.
package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync/atomic"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

const (
	BookmarkFile      = "bookmark.txt"
	DefaultQueueSize  = 5
	noTrack           = -1
	maxBookmarkLength = 256
)

type Options struct {
	StateFolder string
	QueueSize   int
	// AllowSizeMismatch accepts an in-range bookmark written against a
	// catalog of a different size.
	AllowSizeMismatch bool
	Logger            *slog.Logger
}

type snapshot struct {
	epoch uint64
	pos   uint32
}

// Store owns the bookmark file. Enqueue and Reset are called from the
// playback loop; Run is the persistence task.
type Store struct {
	dev   *storage.Device
	path  string
	total int
	opts  Options
	log   *slog.Logger
	queue chan snapshot

	// epoch and track change only under the storage guard; they are atomic
	// so Enqueue can stamp snapshots without taking it.
	epoch   atomic.Uint64
	track   atomic.Int64
	dropped atomic.Uint64
}

func New(dev *storage.Device, total int, opts Options) *Store {
	if opts.StateFolder == "" {
		opts.StateFolder = "/.pocketshuffle"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Store{
		dev:   dev,
		path:  storage.Join(opts.StateFolder, BookmarkFile),
		total: total,
		opts:  opts,
		log:   opts.Logger,
		queue: make(chan snapshot, opts.QueueSize),
	}
	s.track.Store(noTrack)
	return s
}

func (s *Store) Path() string { return s.path }

// Load reads the bookmark. A missing, malformed or stale record is reported
// as absent.
func (s *Store) Load() (Bookmark, bool) {
	b, err := s.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("ignoring bookmark", slog.String("path", s.path), slog.Any("err", err))
		}
		return Bookmark{}, false
	}
	if err := Check(b, s.total, s.opts.AllowSizeMismatch); err != nil {
		s.log.Warn("ignoring bookmark", slog.String("path", s.path), slog.Any("err", err))
		return Bookmark{}, false
	}
	return b, true
}

// Read returns the raw record without checking it against the catalog.
func (s *Store) Read() (Bookmark, error) {
	var data []byte
	err := s.dev.Session(func(fsys storage.FS) error {
		f, err := fsys.Open(s.path)
		if err != nil {
			return err
		}
		defer f.Close()
		data, err = io.ReadAll(io.LimitReader(f, maxBookmarkLength))
		return err
	})
	if err != nil {
		return Bookmark{}, err
	}
	return Parse(data)
}

// Enqueue offers a position for the current track. It never blocks; when
// the queue is full the snapshot is dropped and false is returned.
func (s *Store) Enqueue(pos uint32) bool {
	select {
	case s.queue <- snapshot{epoch: s.epoch.Load(), pos: pos}:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Reset switches the store to track and discards every queued snapshot of
// the previous one. A snapshot already taken by the writer is rejected by
// its epoch when the writer reaches the guard.
func (s *Store) Reset(track int) {
	_ = s.dev.Session(func(storage.FS) error {
		s.epoch.Add(1)
		s.track.Store(int64(track))
		for {
			select {
			case <-s.queue:
			default:
				return nil
			}
		}
	})
}

// Track is the track index snapshots are currently written against.
func (s *Store) Track() int { return int(s.track.Load()) }

// Dropped counts snapshots rejected because the queue was full.
func (s *Store) Dropped() uint64 { return s.dropped.Load() }

// Run drains the queue until ctx is done, then writes whatever is still
// queued and returns.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case snap := <-s.queue:
					s.persist(snap)
				default:
					return
				}
			}
		case snap := <-s.queue:
			s.persist(snap)
		}
	}
}

func (s *Store) persist(snap snapshot) {
	err := s.dev.Session(func(fsys storage.FS) error {
		if snap.epoch != s.epoch.Load() {
			s.log.Debug("dropping stale snapshot", slog.Uint64("epoch", snap.epoch))
			return nil
		}
		track := int(s.track.Load())
		if track == noTrack {
			return nil
		}
		return writeRecord(fsys, s.path, Bookmark{TrackIndex: track, ByteOffset: snap.pos, CatalogSize: s.total})
	})
	if err != nil {
		s.log.Warn("bookmark write failed", slog.String("path", s.path), slog.Any("err", err))
	}
}

// Write stores b synchronously.
func (s *Store) Write(b Bookmark) error {
	return s.dev.Session(func(fsys storage.FS) error {
		return writeRecord(fsys, s.path, b)
	})
}

// Clear removes the bookmark and stops further writes until the next Reset.
func (s *Store) Clear() error {
	return s.dev.Session(func(fsys storage.FS) error {
		s.epoch.Add(1)
		s.track.Store(noTrack)
		return Remove(fsys, s.opts.StateFolder)
	})
}

// Remove deletes the bookmark in stateFolder. A missing file is not an error.
func Remove(fsys storage.FS, stateFolder string) error {
	err := fsys.Remove(storage.Join(stateFolder, BookmarkFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove bookmark: %w: %w", fault.ErrStorageUnavailable, err)
	}
	return nil
}

func writeRecord(fsys storage.FS, name string, b Bookmark) error {
	f, err := fsys.OpenFile(name)
	if err != nil {
		return fmt.Errorf("open bookmark: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("seek bookmark: %w", err)
	}
	if _, err := f.Write(Format(b)); err != nil {
		f.Close()
		return fmt.Errorf("write bookmark: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync bookmark: %w", err)
	}
	return f.Close()
}
