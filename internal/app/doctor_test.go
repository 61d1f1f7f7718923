package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

func findCheck(t *testing.T, rep Report, name string) Check {
	t.Helper()
	for _, c := range rep.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s check in %+v", name, rep.Checks)
	return Check{}
}

func TestDoctorBeforeFirstBoot(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, 2, 256)
	cfg := loadConfig(t, root)

	rep := Doctor(context.Background(), cfg)
	if rep.Failed() {
		t.Fatalf("unexpected failure: %+v", rep.Checks)
	}
	if c := findCheck(t, rep, "catalog"); c.Severity != SeverityWarn {
		t.Fatalf("expected catalog warning, got %+v", c)
	}
	if c := findCheck(t, rep, "bookmark"); c.Severity != SeverityOK || !strings.Contains(c.Detail, "none") {
		t.Fatalf("unexpected bookmark check %+v", c)
	}
}

func TestDoctorAfterPlayback(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, 3, 256)
	cfg := loadConfig(t, root)
	rt := newRuntime(t, cfg, &clock{t: time.Unix(1000, 0)}, nil)
	if err := rt.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	rt.Tick()
	rt.Close()

	rep := Doctor(context.Background(), cfg)
	if rep.Failed() {
		t.Fatalf("unexpected failure: %+v", rep.Checks)
	}
	if c := findCheck(t, rep, "catalog"); c.Detail != "3 tracks" {
		t.Fatalf("unexpected catalog check %+v", c)
	}
	if c := findCheck(t, rep, "folders"); c.Severity != SeverityOK {
		t.Fatalf("unexpected folders check %+v", c)
	}
	if c := findCheck(t, rep, "bookmark"); c.Severity != SeverityOK || !strings.Contains(c.Detail, "/Music/t") {
		t.Fatalf("unexpected bookmark check %+v", c)
	}
	if c := findCheck(t, rep, "history"); c.Severity != SeverityOK {
		t.Fatalf("unexpected history check %+v", c)
	}

	out := rep.Render(ui.NoColor())
	if !strings.Contains(out, "✓ catalog") {
		t.Fatalf("unexpected render:\n%s", out)
	}
}

func TestDoctorFlagsInconsistentSummary(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, 3, 256)
	cfg := loadConfig(t, root)
	rt := newRuntime(t, cfg, &clock{t: time.Unix(1000, 0)}, nil)
	if err := rt.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	rt.Close()

	state := filepath.Join(root, ".pocketshuffle")
	if err := os.WriteFile(filepath.Join(state, "folders.txt"), []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(state, "bookmark.txt"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep := Doctor(context.Background(), cfg)
	if !rep.Failed() {
		t.Fatalf("expected failure for inconsistent folders: %+v", rep.Checks)
	}
	if c := findCheck(t, rep, "bookmark"); c.Severity != SeverityWarn {
		t.Fatalf("expected bookmark warning, got %+v", c)
	}
}

func TestDoctorUnreadableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "card")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := loadConfig(t, root)
	if err := os.Remove(root); err != nil {
		t.Fatal(err)
	}

	rep := Doctor(context.Background(), cfg)
	if !rep.Failed() || len(rep.Checks) != 1 {
		t.Fatalf("expected a single storage failure, got %+v", rep.Checks)
	}
}
