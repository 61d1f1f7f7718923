package catalog

import (
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

// Inspection describes the catalog artifacts on a device without modifying
// them.
type Inspection struct {
	Present     bool
	Total       int
	HasFolders  bool
	FolderTotal int
	Folders     int
	// Scratch lists leftovers of an interrupted build.
	Scratch []string
}

// Consistent reports whether the folder summary covers every catalog entry.
func (in Inspection) Consistent() bool {
	return in.Present && in.HasFolders && in.FolderTotal == in.Total
}

// Inspect reads the artifacts in stateFolder. Missing files are reported in
// the result; only read failures are errors.
func Inspect(fsys storage.FS, stateFolder string) (Inspection, error) {
	var in Inspection
	c := Open(stateFolder, 0)

	if fsys.Exists(c.Path()) {
		total, err := countLines(fsys, c.Path())
		if err != nil {
			return in, unavailable("count catalog", err)
		}
		in.Present, in.Total = true, total
		c.Total = total
	}
	if fsys.Exists(c.FoldersPath()) {
		counts, err := c.FolderCounts(fsys)
		if err != nil {
			return in, err
		}
		in.HasFolders = true
		in.Folders = len(counts)
		for _, n := range counts {
			in.FolderTotal += n
		}
	}

	entries, err := fsys.ReadDir(stateFolder)
	if err != nil {
		return in, nil
	}
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if strings.HasPrefix(e.Name, runPrefix) || strings.HasSuffix(e.Name, ".tmp") {
			in.Scratch = append(in.Scratch, e.Name)
		}
	}
	return in, nil
}
