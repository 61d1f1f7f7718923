package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/player"
)

// RunHeadless drives the runtime from a ticker and reads one command per
// line from in. Each state or track change is reported on out. It returns
// when ctx is done, in reaches "quit" or in is exhausted.
func RunHeadless(ctx context.Context, rt *Runtime, in io.Reader, out io.Writer, interval time.Duration) error {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out = &lockedWriter{w: out}

	status := make(chan struct{}, 1)
	if in != nil {
		go readCommands(ctx, cancel, rt, in, out, status)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Status
	report := func(force bool) {
		st := rt.Status()
		if force || changed(last, st) {
			fmt.Fprintln(out, describe(st))
		}
		last = st
	}
	report(true)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-status:
			report(true)
		case <-ticker.C:
			rt.Tick()
			report(false)
		}
	}
}

func readCommands(ctx context.Context, cancel context.CancelFunc, rt *Runtime, in io.Reader, out io.Writer, status chan<- struct{}) {
	defer cancel()
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return
		case "s", "status":
			select {
			case status <- struct{}{}:
			default:
			}
			continue
		}
		c, ok := player.ParseCommand(line)
		if !ok {
			if hint, found := player.SuggestCommand(line); found {
				fmt.Fprintf(out, "unknown command %q, did you mean %q?\n", line, hint)
			} else {
				fmt.Fprintf(out, "unknown command %q\n", line)
			}
			continue
		}
		if !rt.Submit(c) {
			fmt.Fprintf(out, "busy, %s dropped\n", c)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func changed(a, b Status) bool {
	return a.Booted != b.Booted ||
		a.Player.State != b.Player.State ||
		a.Player.Index != b.Player.Index ||
		a.Player.Volume != b.Player.Volume ||
		a.Boots != b.Boots
}

func describe(st Status) string {
	p := st.Player
	if !st.Booted {
		if st.BootErr == nil {
			return "starting"
		}
		if st.NextRetry.IsZero() {
			return fmt.Sprintf("halted: %v", st.BootErr)
		}
		return fmt.Sprintf("halted: %v (retry at %s)", st.BootErr, st.NextRetry.Format(time.TimeOnly))
	}
	line := fmt.Sprintf("%s vol=%d/%d", p.State, p.Volume, p.VolumeSteps)
	if p.Index >= 0 {
		line += fmt.Sprintf(" track=%d/%d %s offset=%d", p.Index+1, p.Total, p.Path, p.Offset)
		if p.Title != "" {
			line += fmt.Sprintf(" title=%q", p.Title)
		}
	}
	switch {
	case fault.IsRecoverable(p.Err):
		line += fmt.Sprintf(" warn=%q", p.Err.Error())
	case p.Err != nil:
		line += fmt.Sprintf(" err=%q", p.Err.Error())
	}
	return line
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
