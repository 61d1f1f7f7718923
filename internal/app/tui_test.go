package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

func updateModel(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func bootedModel(t *testing.T, tracks int) (Model, *Runtime) {
	t.Helper()
	root := t.TempDir()
	writeMedia(t, root, tracks, 256)
	rt := newRuntime(t, loadConfig(t, root), &clock{t: time.Unix(1000, 0)}, nil)
	if err := rt.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	m := NewModel(rt, ui.NoColor(), time.Millisecond)
	m, _ = updateModel(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = updateModel(m, tickMsg(time.Now()))
	return m, rt
}

func TestModelTickRendersNowPlaying(t *testing.T) {
	m, _ := bootedModel(t, 3)
	view := m.View()
	for _, want := range []string{"PocketShuffle", "Now Playing", "Track ", "of 3", "/Music/"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelVolumeKeys(t *testing.T) {
	m, _ := bootedModel(t, 2)
	before := m.status.Player.Volume
	m, _ = updateModel(m, key('+'))
	m, _ = updateModel(m, key('+'))
	m, _ = updateModel(m, tickMsg(time.Now()))
	if m.status.Player.Volume != before+2 {
		t.Fatalf("expected volume %d, got %d", before+2, m.status.Player.Volume)
	}
	m, _ = updateModel(m, key('-'))
	m, _ = updateModel(m, tickMsg(time.Now()))
	if m.status.Player.Volume != before+1 {
		t.Fatalf("expected volume %d, got %d", before+1, m.status.Player.Volume)
	}
}

func TestModelFactoryResetNeedsConfirmation(t *testing.T) {
	m, rt := bootedModel(t, 2)

	m, _ = updateModel(m, key('R'))
	if !m.confirmReset {
		t.Fatalf("expected confirmation prompt")
	}
	m, _ = updateModel(m, key('n'))
	if m.confirmReset {
		t.Fatalf("another key must cancel the confirmation")
	}

	m, _ = updateModel(m, key('R'))
	m, _ = updateModel(m, key('R'))
	m, _ = updateModel(m, tickMsg(time.Now()))
	if rt.Status().Boots != 2 {
		t.Fatalf("expected reboot after confirmed reset, got %d boots", rt.Status().Boots)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := bootedModel(t, 1)
	_, cmd := updateModel(m, key('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestModelOverlays(t *testing.T) {
	m, _ := bootedModel(t, 1)
	m, _ = updateModel(m, key('?'))
	if !strings.Contains(m.View(), "factory reset") {
		t.Fatalf("expected help view")
	}
	m, _ = updateModel(m, key('?'))
	m, _ = updateModel(m, key('d'))
	if !strings.Contains(m.View(), "Diagnostics") {
		t.Fatalf("expected diagnostics view")
	}
}

func TestModelShowsHaltedCatalog(t *testing.T) {
	root := t.TempDir()
	rt := newRuntime(t, loadConfig(t, root), &clock{t: time.Unix(1000, 0)}, nil)
	_ = rt.Boot(context.Background())
	m := NewModel(rt, ui.NoColor(), time.Millisecond)
	m, _ = updateModel(m, tickMsg(time.Now()))
	if !strings.Contains(m.View(), "Halted") {
		t.Fatalf("expected halted view, got:\n%s", m.View())
	}
}

func TestInteractiveSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping interactive test in short mode")
	}
	m, _ := bootedModel(t, 3)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Now Playing"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyUp})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	if !ok || !final.status.Booted {
		t.Fatalf("expected a booted final model, got %T", tm.FinalModel(t))
	}
}
