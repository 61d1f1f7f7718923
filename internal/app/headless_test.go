package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, output:\n%s", want, out.String())
}

func TestRunHeadless(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, 3, 1<<16)
	rt := newRuntime(t, loadConfig(t, root), &clock{t: time.Unix(1000, 0)}, nil)
	if err := rt.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- RunHeadless(context.Background(), rt, pr, out, time.Millisecond) }()

	waitFor(t, out, "Playing vol=7/10")
	io.WriteString(pw, "bogus\n")
	waitFor(t, out, `unknown command "bogus"`)
	io.WriteString(pw, "+\n")
	waitFor(t, out, "vol=8/10")
	io.WriteString(pw, "quit\n")

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunHeadless: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("RunHeadless did not return after quit")
	}
	pw.Close()
}

func TestRunHeadlessStopsOnContext(t *testing.T) {
	root := t.TempDir()
	rt := newRuntime(t, loadConfig(t, root), &clock{t: time.Unix(1000, 0)}, nil)
	_ = rt.Boot(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out := &syncBuffer{}
	if err := RunHeadless(ctx, rt, nil, out, time.Millisecond); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if !strings.Contains(out.String(), "halted: ") {
		t.Fatalf("expected halted report, got %q", out.String())
	}
}

func TestDescribe(t *testing.T) {
	if got := describe(Status{}); got != "starting" {
		t.Fatalf("unexpected %q", got)
	}
}
