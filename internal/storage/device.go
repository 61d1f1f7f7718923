package storage

import (
	"io"
	"sync"
)

// Device owns the filesystem and the storage guard. Every open, read, seek,
// write or enumeration goes through it, from both the playback loop and the
// persistence task. Acquisition blocks without a timeout.
type Device struct {
	fs FS
	mu sync.Mutex
}

func NewDevice(fs FS) *Device {
	return &Device{fs: fs}
}

// Session runs fn with the raw filesystem while holding the guard. Files
// opened inside fn must not be used after it returns unless wrapped with Guard.
func (d *Device) Session(fn func(fs FS) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.fs)
}

// Guard wraps f so that each individual call takes the guard. It is the form
// handed to decoders: the guard is held per read, never across a whole tick.
func (d *Device) Guard(f File) *GuardedFile {
	return &GuardedFile{d: d, f: f}
}

// GuardedFile is a File whose operations are serialized by the device guard.
type GuardedFile struct {
	d      *Device
	f      File
	closed bool
}

func (g *GuardedFile) Read(p []byte) (int, error) {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.closed {
		return 0, io.ErrClosedPipe
	}
	return g.f.Read(p)
}

func (g *GuardedFile) Write(p []byte) (int, error) {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.closed {
		return 0, io.ErrClosedPipe
	}
	return g.f.Write(p)
}

func (g *GuardedFile) Seek(offset int64, whence int) (int64, error) {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.closed {
		return 0, io.ErrClosedPipe
	}
	return g.f.Seek(offset, whence)
}

func (g *GuardedFile) Sync() error {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.closed {
		return io.ErrClosedPipe
	}
	return g.f.Sync()
}

// Position reports the current byte offset.
func (g *GuardedFile) Position() (int64, error) {
	return g.Seek(0, io.SeekCurrent)
}

// Close is idempotent: decoders and the orchestrator may both close a source.
func (g *GuardedFile) Close() error {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.f.Close()
}
