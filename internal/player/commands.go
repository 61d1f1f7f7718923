package player

import (
	"context"
	"log/slog"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/history"
	"github.com/pocketshuffle/pocketshuffle/internal/shuffle"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

func (o *Orchestrator) drainCommands() {
	for {
		select {
		case c := <-o.cmds:
			o.handle(c)
		default:
			return
		}
	}
}

func (o *Orchestrator) handle(c Command) {
	o.log.Debug("command", slog.String("cmd", c.String()), slog.String("state", o.state.String()))
	switch c {
	case VolumeUp:
		o.log.Info("volume", slog.Int("level", o.opts.Volume.Up()))
	case VolumeDown:
		o.log.Info("volume", slog.Int("level", o.opts.Volume.Down()))
	case FactoryReset:
		o.factoryReset()
	case Next:
		if !o.navigable() {
			return
		}
		o.lastNav = o.opts.Now()
		if o.state == Playing {
			o.snapshot()
			o.record(history.Skipped)
		}
		o.advance()
	case Previous:
		if !o.navigable() {
			return
		}
		o.previous()
	}
}

func (o *Orchestrator) navigable() bool {
	return o.started && o.state != Halted && !o.restart
}

// previous goes back one track when pressed within the window of the last
// navigation, otherwise it restarts the current track from the top.
func (o *Orchestrator) previous() {
	now := o.opts.Now()
	quick := !o.lastNav.IsZero() && now.Sub(o.lastNav) <= o.opts.PreviousWindow
	o.lastNav = now
	if quick {
		if prev := o.opts.Shuffler.Last(); prev != shuffle.NoPrevious {
			o.log.Info("previous track", slog.Int("track", prev))
			o.request(prev, 0)
			return
		}
	}
	if o.current >= 0 {
		o.log.Info("restart track", slog.Int("track", o.current))
		o.request(o.current, 0)
	}
}

// factoryReset clears the bookmark, the catalog artifacts and the journal,
// then asks the host to boot again.
func (o *Orchestrator) factoryReset() {
	o.log.Warn("factory reset")
	o.stopCurrent()
	if err := o.opts.Resume.Clear(); err != nil {
		o.log.Error("clear bookmark", slog.Any("err", err))
	}
	err := o.opts.Device.Session(func(fsys storage.FS) error {
		return catalog.Remove(fsys, o.opts.StateFolder)
	})
	if err != nil {
		o.log.Error("remove catalog", slog.Any("err", err))
	}
	if c, ok := o.opts.Journal.(interface{ Clear(context.Context) error }); ok {
		if err := c.Clear(context.Background()); err != nil {
			o.log.Error("clear journal", slog.Any("err", err))
		}
	}
	o.started = false
	o.restart = true
	o.state = Idle
}
