package resume

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
)

// RecordLen is the size of an encoded bookmark. Every rewrite has the same
// length, so an in-place overwrite never leaves stale trailing bytes.
const RecordLen = 33

// Bookmark is the persisted resume point.
type Bookmark struct {
	TrackIndex  int
	ByteOffset  uint32
	CatalogSize int
}

// Format encodes b as "<catalog size> <track index> <byte offset>\n", each
// field zero padded to ten digits.
func Format(b Bookmark) []byte {
	return fmt.Appendf(make([]byte, 0, RecordLen), "%010d %010d %010d\n", b.CatalogSize, b.TrackIndex, b.ByteOffset)
}

// Parse decodes the first line of data.
func Parse(data []byte) (Bookmark, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	fields := bytes.Fields(data)
	if len(fields) != 3 {
		return Bookmark{}, fmt.Errorf("%w: expected 3 fields, got %d", fault.ErrBookmarkCorrupt, len(fields))
	}
	size, err := strconv.Atoi(string(fields[0]))
	if err != nil || size < 0 {
		return Bookmark{}, fmt.Errorf("%w: catalog size %q", fault.ErrBookmarkCorrupt, fields[0])
	}
	track, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return Bookmark{}, fmt.Errorf("%w: track index %q", fault.ErrBookmarkCorrupt, fields[1])
	}
	offset, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return Bookmark{}, fmt.Errorf("%w: byte offset %q", fault.ErrBookmarkCorrupt, fields[2])
	}
	return Bookmark{TrackIndex: track, ByteOffset: uint32(offset), CatalogSize: size}, nil
}

// Check reports whether b can be trusted against a catalog of total entries.
func Check(b Bookmark, total int, allowSizeMismatch bool) error {
	if b.TrackIndex < 0 || b.TrackIndex >= total {
		return fmt.Errorf("%w: track %d outside [0,%d)", fault.ErrBookmarkStale, b.TrackIndex, total)
	}
	if !allowSizeMismatch && b.CatalogSize != total {
		return fmt.Errorf("%w: catalog size %d, current %d", fault.ErrBookmarkStale, b.CatalogSize, total)
	}
	return nil
}
