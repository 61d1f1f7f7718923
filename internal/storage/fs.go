// Package storage is the boundary to the block-storage device: a small
// filesystem interface, an OS-backed implementation rooted at a mount point,
// and the single guard that serializes every device operation.
package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"
)

// Entry is one child of a directory.
type Entry struct {
	Name  string
	IsDir bool
}

// File is an open handle on the device.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Sync() error
}

// FS is the filesystem collaborator. Paths are slash separated and absolute
// from the device root ("/Music/a.mp3").
type FS interface {
	ReadDir(name string) ([]Entry, error)
	Open(name string) (File, error)
	// Create truncates or creates name for writing.
	Create(name string) (File, error)
	// OpenFile opens name read/write, creating it if needed, without truncating.
	OpenFile(name string) (File, error)
	Exists(name string) bool
	Remove(name string) error
	Rename(from, to string) error
}

// OSFS maps device paths onto a host directory, usually the card's mount point.
type OSFS struct {
	Root string
}

func (o OSFS) host(name string) string {
	return filepath.Join(o.Root, filepath.FromSlash(path.Clean("/"+name)))
}

func (o OSFS) ReadDir(name string) ([]Entry, error) {
	des, err := os.ReadDir(o.host(name))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		out = append(out, Entry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return out, nil
}

func (o OSFS) Open(name string) (File, error) {
	return os.Open(o.host(name))
}

func (o OSFS) Create(name string) (File, error) {
	p := o.host(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

func (o OSFS) OpenFile(name string) (File, error) {
	p := o.host(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
}

func (o OSFS) Exists(name string) bool {
	_, err := os.Stat(o.host(name))
	return err == nil
}

func (o OSFS) Remove(name string) error {
	return os.Remove(o.host(name))
}

func (o OSFS) Rename(from, to string) error {
	return os.Rename(o.host(from), o.host(to))
}

// Position returns the current offset of s.
func Position(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// Join joins device path elements.
func Join(elem ...string) string {
	return path.Join(append([]string{"/"}, elem...)...)
}
