package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pocketshuffle/pocketshuffle/internal/storage"
)

func TestInspect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/1.mp3", "a/2.mp3", "b/3.flac")
	fsys := storage.OSFS{Root: root}

	in, err := Inspect(fsys, DefaultStateFolder)
	if err != nil {
		t.Fatalf("Inspect before build: %v", err)
	}
	if in.Present || in.HasFolders || in.Consistent() {
		t.Fatalf("expected nothing before build, got %+v", in)
	}

	if _, err := BuildOrLoad(context.Background(), storage.NewDevice(fsys), Options{}); err != nil {
		t.Fatalf("BuildOrLoad: %v", err)
	}
	in, err = Inspect(fsys, DefaultStateFolder)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !in.Consistent() || in.Total != 3 || in.Folders != 2 || len(in.Scratch) != 0 {
		t.Fatalf("unexpected inspection %+v", in)
	}

	state := filepath.Join(root, ".pocketshuffle")
	if err := os.WriteFile(filepath.Join(state, "run-0003.tmp"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(state, FoldersFile), []byte("2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	in, err = Inspect(fsys, DefaultStateFolder)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if in.Consistent() || in.FolderTotal != 2 {
		t.Fatalf("expected inconsistent summary, got %+v", in)
	}
	if len(in.Scratch) != 1 || in.Scratch[0] != "run-0003.tmp" {
		t.Fatalf("expected scratch run file, got %v", in.Scratch)
	}
}
