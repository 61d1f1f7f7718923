package app

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

// Diagnostics holds counters for the debug overlay.
type Diagnostics struct {
	Ticks    int
	Commands int
	Boots    int
	Restarts int
	Retries  int

	StartTime      time.Time
	LastUpdate     time.Time
	MemoryUsage    uint64
	GoroutineCount int

	now func() time.Time
}

func NewDiagnostics(now func() time.Time) *Diagnostics {
	if now == nil {
		now = time.Now
	}
	return &Diagnostics{StartTime: now(), now: now}
}

// Update refreshes runtime stats.
func (d *Diagnostics) Update() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	d.MemoryUsage = m.Alloc
	d.GoroutineCount = runtime.NumGoroutine()
	d.LastUpdate = d.now()
}

func (d *Diagnostics) Uptime() time.Duration {
	return d.now().Sub(d.StartTime)
}

// Render renders the diagnostics overlay.
func (d *Diagnostics) Render(theme ui.Theme, st Status) string {
	d.Update()

	var b strings.Builder
	b.WriteString(theme.Title.Render(" ═══ Diagnostics ═══ "))
	b.WriteString("\n\n")

	b.WriteString(theme.Dim.Render("Uptime: "))
	b.WriteString(theme.Text.Render(d.Uptime().Round(time.Second).String()))
	b.WriteString("\n\n")

	b.WriteString(theme.Accent.Render("Runtime"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Memory: %s\n", ui.Bytes(int64(d.MemoryUsage))))
	b.WriteString(fmt.Sprintf("  Goroutines: %d\n", d.GoroutineCount))
	b.WriteString(fmt.Sprintf("  Ticks: %d  Commands: %d\n", d.Ticks, d.Commands))
	b.WriteString("\n")

	b.WriteString(theme.Accent.Render("Session"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Boots: %d  Restarts: %d  Retries: %d\n", d.Boots, d.Restarts, d.Retries))
	if st.Booted {
		p := st.Player
		b.WriteString(fmt.Sprintf("  State: %s\n", p.State))
		b.WriteString(fmt.Sprintf("  Round: %d of %d left\n", p.Remaining, p.Total))
		b.WriteString(fmt.Sprintf("  Open failures: %d\n", p.Failures))
		b.WriteString(fmt.Sprintf("  Dropped snapshots: %d\n", st.Dropped))
	} else {
		b.WriteString(theme.Warning.Render("  ○ Not booted"))
		b.WriteString("\n")
	}
	if st.BootErr != nil {
		b.WriteString(theme.Error.Render(fmt.Sprintf("  Last error: %v", st.BootErr)))
		b.WriteString("\n")
		if !st.NextRetry.IsZero() {
			b.WriteString(fmt.Sprintf("  Retry in: %s\n", st.NextRetry.Sub(d.now()).Round(time.Second)))
		}
	}
	return b.String()
}
