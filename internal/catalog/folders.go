package catalog

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

// writeFolderCounts streams the sorted catalog once and records the length of
// each contiguous run of entries sharing a parent folder. A folder whose
// entries are split by a sibling that sorts between them yields two runs.
func writeFolderCounts(fsys storage.FS, catalogPath, tmp, out string) error {
	src, err := fsys.Open(catalogPath)
	if err != nil {
		return unavailable("open catalog", err)
	}
	defer src.Close()
	dst, err := fsys.Create(tmp)
	if err != nil {
		return unavailable("create folder counts", err)
	}
	w := bufio.NewWriter(dst)

	emit := func(n int) error {
		_, err := w.WriteString(strconv.Itoa(n) + "\n")
		return err
	}

	r := bufio.NewReader(src)
	var (
		current string
		run     int
		werr    error
	)
	for {
		line, ok, err := readLine(r)
		if err != nil {
			dst.Close()
			return unavailable("read catalog", err)
		}
		if !ok {
			break
		}
		folder := parentOf(line)
		if run > 0 && folder != current {
			if werr = emit(run); werr != nil {
				break
			}
			run = 0
		}
		current = folder
		run++
	}
	if werr == nil && run > 0 {
		werr = emit(run)
	}
	if werr == nil {
		werr = w.Flush()
	}
	if werr == nil {
		werr = dst.Sync()
	}
	if cerr := dst.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return unavailable("write folder counts", werr)
	}
	if err := fsys.Rename(tmp, out); err != nil {
		return unavailable("commit folder counts", err)
	}
	return nil
}

func parentOf(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}
