package catalog

import (
	"bufio"
	"container/heap"
	"fmt"
	"slices"
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

// SortLines sorts the lines of in into out using at most batch lines of
// memory for the sort phase plus one buffered line per run during the merge.
// Run files are named tmpPrefix+NNNN.tmp and are removed before returning.
// It returns the number of lines written.
func SortLines(fsys storage.FS, in, out string, batch int, tmpPrefix string) (int, error) {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	runs, total, err := writeRuns(fsys, in, batch, tmpPrefix)
	defer removeQuiet(fsys, runs...)
	if err != nil {
		return 0, err
	}
	if err := mergeRuns(fsys, runs, out); err != nil {
		return 0, err
	}
	return total, nil
}

func writeRuns(fsys storage.FS, in string, batch int, tmpPrefix string) ([]string, int, error) {
	src, err := fsys.Open(in)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", in, err)
	}
	defer src.Close()

	var runs []string
	buf := make([]string, 0, batch)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		slices.Sort(buf)
		name := fmt.Sprintf("%s%04d.tmp", tmpPrefix, len(runs))
		runs = append(runs, name)
		if err := writeLines(fsys, name, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	r := bufio.NewReader(src)
	total := 0
	for {
		line, ok, err := readLine(r)
		if err != nil {
			return runs, 0, fmt.Errorf("read %s: %w", in, err)
		}
		if !ok {
			break
		}
		buf = append(buf, line)
		total++
		if len(buf) == batch {
			if err := flush(); err != nil {
				return runs, 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return runs, 0, err
	}
	return runs, total, nil
}

func writeLines(fsys storage.FS, name string, lines []string) error {
	f, err := fsys.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

type cursor struct {
	line string
	run  int
	r    *bufio.Reader
}

// runHeap orders cursors by line, then by run index so equal lines keep
// their run order.
type runHeap []*cursor

func (h runHeap) Len() int { return len(h) }
func (h runHeap) Less(i, j int) bool {
	if c := strings.Compare(h[i].line, h[j].line); c != 0 {
		return c < 0
	}
	return h[i].run < h[j].run
}
func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *runHeap) Push(x any)   { *h = append(*h, x.(*cursor)) }
func (h *runHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

func mergeRuns(fsys storage.FS, runs []string, out string) error {
	files := make([]storage.File, 0, len(runs))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	h := make(runHeap, 0, len(runs))
	for i, name := range runs {
		f, err := fsys.Open(name)
		if err != nil {
			return fmt.Errorf("open run %s: %w", name, err)
		}
		files = append(files, f)
		c := &cursor{run: i, r: bufio.NewReader(f)}
		line, ok, err := readLine(c.r)
		if err != nil {
			return fmt.Errorf("read run %s: %w", name, err)
		}
		if ok {
			c.line = line
			h = append(h, c)
		}
	}
	heap.Init(&h)

	dst, err := fsys.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer dst.Close()
	w := bufio.NewWriter(dst)

	for h.Len() > 0 {
		c := h[0]
		if _, err := w.WriteString(c.line + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		line, ok, err := readLine(c.r)
		if err != nil {
			return fmt.Errorf("read run %d: %w", c.run, err)
		}
		if ok {
			c.line = line
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", out, err)
	}
	return dst.Sync()
}
