package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/catalog"
	"github.com/pocketshuffle/pocketshuffle/internal/codec"
	"github.com/pocketshuffle/pocketshuffle/internal/config"
	"github.com/pocketshuffle/pocketshuffle/internal/history"
	"github.com/pocketshuffle/pocketshuffle/internal/logging"
	"github.com/pocketshuffle/pocketshuffle/internal/resume"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
	"github.com/pocketshuffle/pocketshuffle/internal/ui"
)

type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarn
	SeverityFail
)

// Check is one line of a doctor report.
type Check struct {
	Name     string
	Severity Severity
	Detail   string
}

type Report struct {
	Checks []Check
}

func (r *Report) add(name string, sev Severity, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Severity: sev, Detail: fmt.Sprintf(format, args...)})
}

// Failed reports whether any check failed.
func (r Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Severity == SeverityFail {
			return true
		}
	}
	return false
}

// HistoryPath resolves the journal location, defaulting to the host state
// directory.
func HistoryPath(cfg *config.Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	dir, err := logging.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Doctor inspects the device state without modifying it: the catalog and
// its folder summary, leftover scratch files, the bookmark and the track it
// points at, and the play journal.
func Doctor(ctx context.Context, cfg *config.Config) Report {
	var rep Report
	dev := storage.NewDevice(storage.OSFS{Root: cfg.Storage.Root})
	state := cfg.Storage.StateFolder

	var in catalog.Inspection
	err := dev.Session(func(fsys storage.FS) error {
		if _, err := fsys.ReadDir("/"); err != nil {
			return err
		}
		var err error
		in, err = catalog.Inspect(fsys, state)
		return err
	})
	if err != nil {
		rep.add("storage", SeverityFail, "%v", err)
		return rep
	}
	rep.add("storage", SeverityOK, "%s readable", cfg.Storage.Root)

	switch {
	case !in.Present:
		rep.add("catalog", SeverityWarn, "not built yet, the next boot will scan")
	case in.Total == 0:
		rep.add("catalog", SeverityFail, "empty, no playable files")
	default:
		rep.add("catalog", SeverityOK, "%d tracks", in.Total)
	}
	switch {
	case !in.Present:
	case !in.HasFolders:
		rep.add("folders", SeverityWarn, "summary missing, the next boot will rebuild it")
	case !in.Consistent():
		rep.add("folders", SeverityFail, "summary covers %d of %d tracks, run scan", in.FolderTotal, in.Total)
	default:
		rep.add("folders", SeverityOK, "%d folders", in.Folders)
	}
	if len(in.Scratch) > 0 {
		rep.add("scratch", SeverityWarn, "leftovers of an interrupted build: %s", strings.Join(in.Scratch, ", "))
	}

	checkBookmark(&rep, dev, cfg, in)
	checkHistory(ctx, &rep, cfg)
	return rep
}

func checkBookmark(rep *Report, dev *storage.Device, cfg *config.Config, in catalog.Inspection) {
	store := resume.New(dev, in.Total, resume.Options{StateFolder: cfg.Storage.StateFolder})
	b, err := store.Read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rep.add("bookmark", SeverityOK, "none, playback starts a fresh shuffle")
		return
	case err != nil:
		rep.add("bookmark", SeverityWarn, "%v, it will be ignored", err)
		return
	}
	if err := resume.Check(b, in.Total, !cfg.RequireMatchingCatalog()); err != nil {
		rep.add("bookmark", SeverityWarn, "%v, it will be ignored", err)
		return
	}

	cat := catalog.Open(cfg.Storage.StateFolder, in.Total)
	var (
		p    string
		info codec.Info
	)
	err = dev.Session(func(fsys storage.FS) error {
		var err error
		if p, err = cat.PathAt(fsys, b.TrackIndex); err != nil {
			return err
		}
		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err = codec.ReadInfo(f)
		return err
	})
	if err != nil {
		rep.add("bookmark", SeverityWarn, "track %d: %v", b.TrackIndex, err)
		return
	}
	name := p
	if info.Title != "" {
		name = fmt.Sprintf("%s (%s)", info.Title, p)
	}
	rep.add("bookmark", SeverityOK, "track %d %s at %s", b.TrackIndex, name, ui.Bytes(int64(b.ByteOffset)))
}

func checkHistory(ctx context.Context, rep *Report, cfg *config.Config) {
	if !cfg.HistoryEnabled() {
		rep.add("history", SeverityOK, "disabled")
		return
	}
	p, err := HistoryPath(cfg)
	if err != nil {
		rep.add("history", SeverityWarn, "%v", err)
		return
	}
	h, err := history.Open(p)
	if err != nil {
		rep.add("history", SeverityWarn, "%v", err)
		return
	}
	defer h.Close()
	counts, err := h.Count(ctx)
	if err != nil {
		rep.add("history", SeverityWarn, "%v", err)
		return
	}
	rep.add("history", SeverityOK, "%d finished, %d skipped, %d failed",
		counts[history.Finished], counts[history.Skipped], counts[history.Failed])
}

// Render formats the report with theme styles.
func (r Report) Render(theme ui.Theme) string {
	var b strings.Builder
	for _, c := range r.Checks {
		mark := theme.Accent.Render("✓")
		switch c.Severity {
		case SeverityWarn:
			mark = theme.Warning.Render("!")
		case SeverityFail:
			mark = theme.Error.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", mark, theme.Title.Render(fmt.Sprintf("%-9s", c.Name)), theme.Text.Render(c.Detail)))
	}
	return b.String()
}
