package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	log, closer, err := Setup(Options{Level: "debug", Dir: dir})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	log.Debug("hello", slog.Int("track", 3))
	closer.Close()

	matches, _ := filepath.Glob(filepath.Join(dir, "pocketshuffle-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "msg=hello") || !strings.Contains(string(data), "track=3") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNewCarriesBootID(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).Info("boot")
	New(&buf, slog.LevelInfo).Debug("hidden")
	out := buf.String()
	if !strings.Contains(out, "boot=") {
		t.Fatalf("expected boot id, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
