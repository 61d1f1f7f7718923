package catalog

import (
	"bufio"
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

// scan walks opts.Root depth first with an explicit stack and streams every
// eligible path to the scratch file. Hidden names are skipped at every level,
// which also keeps the state folder out of the catalog.
func scan(ctx context.Context, fsys storage.FS, scratch string, opts Options) (int, error) {
	allowed := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	out, err := fsys.Create(scratch)
	if err != nil {
		return 0, unavailable("create scratch", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	found := 0
	stack := []string{path.Clean("/" + opts.Root)}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return 0, unavailable("read dir "+dir, err)
		}
		// Push in reverse so directories are visited in listing order.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if strings.HasPrefix(e.Name, ".") {
				continue
			}
			p := path.Join(dir, e.Name)
			if e.IsDir {
				stack = append(stack, p)
				continue
			}
			if !allowed[strings.ToLower(path.Ext(e.Name))] {
				continue
			}
			if strings.ContainsAny(p, "\r\n") {
				opts.Logger.Warn("skipping path with line break", slog.String("path", p))
				continue
			}
			if _, err := w.WriteString(p + "\n"); err != nil {
				return 0, unavailable("write scratch", err)
			}
			found++
			if opts.Progress != nil {
				opts.Progress(found, p)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return 0, unavailable("flush scratch", err)
	}
	return found, nil
}
