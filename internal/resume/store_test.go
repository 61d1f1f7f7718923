package resume

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

func newStore(t *testing.T, total int, opts Options) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return New(storage.NewDevice(storage.OSFS{Root: root}), total, opts), root
}

func TestRoundTrip(t *testing.T) {
	positions := []uint32{0, 1, 4096, 1 << 31, math.MaxUint32}
	for _, idx := range []int{0, 1, 41, 999} {
		for _, pos := range positions {
			b := Bookmark{TrackIndex: idx, ByteOffset: pos, CatalogSize: 1000}
			data := Format(b)
			if len(data) != RecordLen {
				t.Fatalf("expected %d bytes got %d: %q", RecordLen, len(data), data)
			}
			got, err := Parse(data)
			if err != nil {
				t.Fatalf("parse %q: %v", data, err)
			}
			if got != b {
				t.Fatalf("round trip mismatch: %+v vs %+v", got, b)
			}
		}
	}
}

func TestWriteThenLoad(t *testing.T) {
	s, _ := newStore(t, 10, Options{})
	want := Bookmark{TrackIndex: 9, ByteOffset: math.MaxUint32, CatalogSize: 10}
	if err := s.Write(want); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A shorter value must fully replace the longer one in place.
	want = Bookmark{TrackIndex: 3, ByteOffset: 7, CatalogSize: 10}
	if err := s.Write(want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := s.Load()
	if !ok || got != want {
		t.Fatalf("expected %+v got %+v ok=%v", want, got, ok)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"two fields":   "10 3\n",
		"four fields":  "10 3 4 5\n",
		"not a number": "10 x 4\n",
		"offset range": "10 3 4294967296\n",
		"negative":     "10 3 -4\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(in)); !errors.Is(err, fault.ErrBookmarkCorrupt) {
				t.Fatalf("expected corrupt, got %v", err)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		allow    bool
		expectOK bool
	}{
		{"missing", "", false, false},
		{"garbage", "hello world\n", false, false},
		{"index equals total", "0000000005 0000000005 0000000000\n", false, false},
		{"negative index", "0000000005 -000000001 0000000000\n", false, false},
		{"size mismatch rejected", "0000000006 0000000002 0000000010\n", false, false},
		{"size mismatch allowed", "0000000006 0000000002 0000000010\n", true, true},
		{"valid", "0000000005 0000000004 0000000010\n", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, root := newStore(t, 5, Options{AllowSizeMismatch: tc.allow})
			if tc.content != "" {
				p := filepath.Join(root, ".pocketshuffle", BookmarkFile)
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				if err := os.WriteFile(p, []byte(tc.content), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			_, ok := s.Load()
			if ok != tc.expectOK {
				t.Fatalf("expected ok=%v got %v", tc.expectOK, ok)
			}
		})
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	s, _ := newStore(t, 3, Options{QueueSize: 2})
	s.Reset(1)
	if !s.Enqueue(1) || !s.Enqueue(2) {
		t.Fatalf("expected first two snapshots queued")
	}
	if s.Enqueue(3) {
		t.Fatalf("expected third snapshot dropped")
	}
	if s.Dropped() != 1 {
		t.Fatalf("expected 1 dropped got %d", s.Dropped())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	got, ok := s.Load()
	if !ok || got.TrackIndex != 1 || got.ByteOffset != 2 {
		t.Fatalf("expected last queued snapshot, got %+v ok=%v", got, ok)
	}
}

func TestTrackSwitchDiscardsStaleSnapshots(t *testing.T) {
	s, _ := newStore(t, 10, Options{})
	const trackA, trackB = 3, 7

	s.Reset(trackA)
	s.Enqueue(5000)
	s.Enqueue(6000)
	// The writer has already taken one snapshot of track A off the queue
	// when the switch happens.
	inFlight := snapshot{epoch: s.epoch.Load(), pos: 9000}
	s.Reset(trackB)
	s.Enqueue(120)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	s.persist(inFlight)

	got, ok := s.Load()
	if !ok {
		t.Fatalf("expected bookmark present")
	}
	if got.TrackIndex != trackB || got.ByteOffset != 120 {
		t.Fatalf("expected track %d at 120, got %+v", trackB, got)
	}
}

func TestNoWriteBeforeFirstReset(t *testing.T) {
	s, _ := newStore(t, 10, Options{})
	s.Enqueue(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	if _, err := s.Read(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no bookmark written, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s, _ := newStore(t, 10, Options{})
	s.Reset(2)
	if err := s.Write(Bookmark{TrackIndex: 2, CatalogSize: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.Enqueue(44)
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	if _, ok := s.Load(); ok {
		t.Fatalf("expected no bookmark after clear")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
