// Package catalog builds and reads the on-device track index: a sorted,
// line-addressable list of media paths plus a per-folder run-length summary.
package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

const (
	CatalogFile = "catalog.txt"
	FoldersFile = "folders.txt"

	scratchFile = "scan.tmp"
	catalogTmp  = "catalog.tmp"
	foldersTmp  = "folders.tmp"
	runPrefix   = "run-"

	DefaultBatchSize   = 128
	DefaultStateFolder = "/.pocketshuffle"
)

var DefaultExtensions = []string{".mp3", ".wav", ".flac"}

type Options struct {
	// Root is the device directory to scan. Defaults to "/".
	Root string
	// StateFolder holds the catalog artifacts and scratch files.
	StateFolder string
	Extensions  []string
	BatchSize   int
	Logger      *slog.Logger
	// Progress, if set, is called for every eligible file found by a scan.
	Progress func(count int, path string)
}

func (o *Options) applyDefaults() {
	if o.Root == "" {
		o.Root = "/"
	}
	if o.StateFolder == "" {
		o.StateFolder = DefaultStateFolder
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Catalog is a handle on built catalog artifacts. It holds no paths in memory.
type Catalog struct {
	Total int
	dir   string
}

// Open returns a handle for an already built catalog of total entries.
func Open(stateFolder string, total int) *Catalog {
	return &Catalog{Total: total, dir: stateFolder}
}

func (c *Catalog) Path() string        { return storage.Join(c.dir, CatalogFile) }
func (c *Catalog) FoldersPath() string { return storage.Join(c.dir, FoldersFile) }

// BuildOrLoad returns the catalog in opts.StateFolder, building it first when
// it is absent. An existing catalog is trusted as-is and never re-validated
// against the media on the device.
func BuildOrLoad(ctx context.Context, dev *storage.Device, opts Options) (*Catalog, error) {
	opts.applyDefaults()
	c := &Catalog{dir: opts.StateFolder}
	err := dev.Session(func(fsys storage.FS) error {
		if fsys.Exists(c.Path()) {
			total, err := countLines(fsys, c.Path())
			if err != nil {
				return unavailable("count catalog", err)
			}
			c.Total = total
			if !fsys.Exists(c.FoldersPath()) {
				opts.Logger.Info("rebuilding folder summary", slog.String("path", c.FoldersPath()))
				if err := writeFolderCounts(fsys, c.Path(), storage.Join(c.dir, foldersTmp), c.FoldersPath()); err != nil {
					return err
				}
			}
			return nil
		}
		total, err := build(ctx, fsys, c, opts)
		c.Total = total
		return err
	})
	if err != nil {
		return nil, err
	}
	if c.Total == 0 {
		return nil, fault.ErrCatalogEmpty
	}
	return c, nil
}

// Rebuild removes existing artifacts and builds the catalog from a fresh scan.
func Rebuild(ctx context.Context, dev *storage.Device, opts Options) (*Catalog, error) {
	opts.applyDefaults()
	if err := dev.Session(func(fsys storage.FS) error {
		return Remove(fsys, opts.StateFolder)
	}); err != nil {
		return nil, err
	}
	return BuildOrLoad(ctx, dev, opts)
}

func build(ctx context.Context, fsys storage.FS, c *Catalog, opts Options) (int, error) {
	log := opts.Logger
	scratch := storage.Join(c.dir, scratchFile)
	tmp := storage.Join(c.dir, catalogTmp)
	removeQuiet(fsys, scratch, tmp, storage.Join(c.dir, foldersTmp))
	removeStaleRuns(fsys, c.dir)

	found, err := scan(ctx, fsys, scratch, opts)
	if err != nil {
		removeQuiet(fsys, scratch)
		return 0, err
	}
	if found == 0 {
		removeQuiet(fsys, scratch)
		log.Warn("no eligible media found", slog.String("root", opts.Root))
		return 0, fault.ErrCatalogEmpty
	}
	log.Info("scan complete", slog.Int("tracks", found))

	total, err := SortLines(fsys, scratch, tmp, opts.BatchSize, storage.Join(c.dir, runPrefix))
	removeQuiet(fsys, scratch)
	if err != nil {
		removeQuiet(fsys, tmp)
		return 0, unavailable("sort catalog", err)
	}
	if err := fsys.Rename(tmp, c.Path()); err != nil {
		return 0, unavailable("commit catalog", err)
	}
	if err := writeFolderCounts(fsys, c.Path(), storage.Join(c.dir, foldersTmp), c.FoldersPath()); err != nil {
		return 0, err
	}
	log.Info("catalog built", slog.Int("total", total), slog.String("path", c.Path()))
	return total, nil
}

// PathAt streams the catalog up to line i. Call it inside a device session.
func (c *Catalog) PathAt(fsys storage.FS, i int) (string, error) {
	if i < 0 || i >= c.Total {
		return "", fmt.Errorf("catalog index %d out of range [0,%d)", i, c.Total)
	}
	f, err := fsys.Open(c.Path())
	if err != nil {
		return "", unavailable("open catalog", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	for n := 0; ; n++ {
		line, ok, err := readLine(r)
		if err != nil {
			return "", unavailable("read catalog", err)
		}
		if !ok {
			return "", fmt.Errorf("catalog index %d: catalog ended after %d lines", i, n)
		}
		if n == i {
			return line, nil
		}
	}
}

// FolderCounts reads the folder run lengths in catalog order.
func (c *Catalog) FolderCounts(fsys storage.FS) ([]int, error) {
	f, err := fsys.Open(c.FoldersPath())
	if err != nil {
		return nil, unavailable("open folder counts", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	var counts []int
	for sc.Scan() {
		n, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("folder counts: %w", err)
		}
		counts = append(counts, n)
	}
	if err := sc.Err(); err != nil {
		return nil, unavailable("read folder counts", err)
	}
	return counts, nil
}

// FolderOf maps a track index to its folder run and its position in the run.
// ok is false when i lies beyond the sum of counts.
func FolderOf(counts []int, i int) (folder, pos int, ok bool) {
	if i < 0 {
		return 0, 0, false
	}
	for f, n := range counts {
		if i < n {
			return f, i, true
		}
		i -= n
	}
	return 0, 0, false
}

// Remove deletes the catalog artifacts. Missing files are not an error.
func Remove(fsys storage.FS, stateFolder string) error {
	for _, name := range []string{CatalogFile, FoldersFile, catalogTmp, foldersTmp, scratchFile} {
		if err := fsys.Remove(storage.Join(stateFolder, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return unavailable("remove catalog", err)
		}
	}
	return nil
}

func countLines(fsys storage.FS, name string) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	n := 0
	for {
		_, ok, err := readLine(r)
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// readLine returns the next line without its terminator. ok is false at EOF.
func readLine(r *bufio.Reader) (string, bool, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func removeQuiet(fsys storage.FS, names ...string) {
	for _, name := range names {
		_ = fsys.Remove(name)
	}
}

// removeStaleRuns clears run files left behind by an interrupted build.
func removeStaleRuns(fsys storage.FS, dir string) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir && strings.HasPrefix(e.Name, runPrefix) {
			_ = fsys.Remove(storage.Join(dir, e.Name))
		}
	}
}

func unavailable(op string, err error) error {
	if errors.Is(err, fault.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, fault.ErrStorageUnavailable, err)
}
