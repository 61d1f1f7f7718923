package app

import (
	"fmt"
	"path"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/player"
	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

type tickMsg time.Time

type clearStatusMsg struct{}

// Model is the bubbletea front end. Every tick runs one Runtime step on the
// bubbletea goroutine, so the runtime is never touched concurrently.
type Model struct {
	rt       *Runtime
	theme    ui.Theme
	interval time.Duration

	width, height int
	status        Status
	message       string
	confirmReset  bool
	showHelp      bool
	showDiag      bool
}

func NewModel(rt *Runtime, theme ui.Theme, interval time.Duration) Model {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return Model{rt: rt, theme: theme, interval: interval, status: rt.Status()}
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.rt.Tick()
		m.status = m.rt.Status()
		return m, m.tickCmd()
	case clearStatusMsg:
		m.message = ""
		m.confirmReset = false
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key != "R" {
		m.confirmReset = false
	}
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "d":
		m.showDiag = !m.showDiag
		return m, nil
	case "n", "right":
		m.submit(player.Next)
	case "p", "left":
		m.submit(player.Previous)
	case "+", "=", "up":
		m.submit(player.VolumeUp)
	case "-", "down":
		m.submit(player.VolumeDown)
	case "R":
		if !m.confirmReset {
			m.confirmReset = true
			m.message = "Press R again to erase the catalog and bookmark"
			return m, m.clearStatusCmd()
		}
		m.confirmReset = false
		m.submit(player.FactoryReset)
		m.message = "Factory reset"
		return m, m.clearStatusCmd()
	}
	return m, nil
}

func (m *Model) submit(c player.Command) {
	if !m.rt.Submit(c) {
		m.message = "Busy, " + c.String() + " dropped"
	}
}

func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showDiag {
		return m.rt.Diagnostics().Render(m.theme, m.status)
	}
	if !m.status.Booted && m.status.BootErr != nil && m.status.NextRetry.IsZero() {
		return m.renderFatalError()
	}

	top := lipgloss.NewStyle().Bold(true).Render("PocketShuffle")
	main := m.renderNowPlaying()
	msg := m.theme.Dim.Render(m.message)
	if m.status.Player.Err != nil {
		msg = m.theme.Error.Render(m.status.Player.Err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, "", main, msg, m.renderPlayerBar())
}

func (m Model) renderFatalError() string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.theme.Border.Render(
			lipgloss.JoinVertical(lipgloss.Center,
				m.theme.Error.Render("Halted"),
				"",
				m.theme.Text.Render(m.status.BootErr.Error()),
				"",
				m.theme.Dim.Render("Press q to quit"),
			),
		),
	)
}

func (m Model) renderNowPlaying() string {
	p := m.status.Player
	width := m.width - 4
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Now Playing") + "\n\n")
	if !m.status.Booted {
		if m.status.BootErr != nil {
			wait := time.Until(m.status.NextRetry).Round(time.Second)
			reason := "Storage unavailable"
			if fault.IsTrackOpenFailed(m.status.BootErr) {
				reason = "No track could be opened"
			}
			b.WriteString(m.theme.Warning.Render(fmt.Sprintf("%s, retrying in %s", reason, wait)) + "\n")
		} else {
			b.WriteString(m.theme.Dim.Render("Starting…") + "\n")
		}
		return b.String()
	}
	if p.Index < 0 {
		b.WriteString(m.theme.Dim.Render("Nothing playing") + "\n")
		return b.String()
	}

	title := p.Title
	if title == "" {
		title = path.Base(p.Path)
	}
	b.WriteString(m.theme.Accent.Render(ui.Truncate(title, width)) + "\n")
	if p.Artist != "" {
		b.WriteString(m.theme.Text.Render(ui.Truncate(p.Artist, width)) + "\n")
	}
	b.WriteString(m.theme.Dim.Render(ui.Truncate(p.Path, width)) + "\n\n")

	b.WriteString(m.theme.Text.Render(fmt.Sprintf("Track %d of %d", p.Index+1, p.Total)))
	if p.Folder >= 0 {
		b.WriteString(m.theme.Dim.Render(fmt.Sprintf("  ·  folder %d, %d/%d", p.Folder+1, p.FolderPos+1, p.FolderSize)))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render(fmt.Sprintf("%s  %s in  ·  %d left this round", p.Kind, ui.Bytes(p.Offset), p.Remaining)) + "\n")
	return b.String()
}

func (m Model) renderPlayerBar() string {
	p := m.status.Player
	state := "⏹"
	switch p.State {
	case player.Playing:
		state = "⏵"
	case player.Loading, player.Advancing:
		state = "…"
	case player.Halted:
		state = "⏸"
	}
	vol := fmt.Sprintf("Vol %s", ui.VolumeBar(p.Volume, p.VolumeSteps))
	return m.theme.Highlight.Render(fmt.Sprintf("%s %s  %s", state, p.State, vol))
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"n / →", "next track"},
		{"p / ←", "previous track (press twice quickly to go back)"},
		{"+ / ↑", "volume up"},
		{"- / ↓", "volume down"},
		{"R R", "factory reset"},
		{"d", "diagnostics"},
		{"?", "help"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Keys") + "\n\n")
	for _, r := range rows {
		b.WriteString(m.theme.Accent.Render(fmt.Sprintf("  %-8s", r[0])))
		b.WriteString(m.theme.Text.Render(r[1]) + "\n")
	}
	return b.String()
}
