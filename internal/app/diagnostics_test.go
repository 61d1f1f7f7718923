package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

func TestDiagnostics(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	d := NewDiagnostics(clk.now)

	t.Run("uptime", func(t *testing.T) {
		clk.advance(90 * time.Second)
		if d.Uptime() != 90*time.Second {
			t.Errorf("expected 90s, got %v", d.Uptime())
		}
	})

	t.Run("update", func(t *testing.T) {
		d.Update()
		if d.GoroutineCount == 0 || d.MemoryUsage == 0 {
			t.Errorf("expected runtime stats, got %+v", d)
		}
		if !d.LastUpdate.Equal(clk.now()) {
			t.Errorf("expected update time from clock")
		}
	})

	t.Run("render not booted", func(t *testing.T) {
		out := d.Render(ui.NoColor(), Status{BootErr: errors.New("card missing"), NextRetry: clk.now().Add(5 * time.Second)})
		for _, want := range []string{"Diagnostics", "Uptime: 1m30s", "Not booted", "card missing", "Retry in: 5s"} {
			if !strings.Contains(out, want) {
				t.Errorf("render missing %q:\n%s", want, out)
			}
		}
	})
}
