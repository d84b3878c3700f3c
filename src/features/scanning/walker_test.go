package scanning

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkerVisitsParentBeforeChildren(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rock", "album", "track.ogg"), []byte("x"))

	var order []string
	w := NewWalker(discardLogger())
	err := w.Walk(context.Background(), root, func(e WalkEntry) error {
		order = append(order, e.Path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]int)
	for i, p := range order {
		seen[p] = i
	}
	parent := filepath.Join(root, "rock")
	child := filepath.Join(root, "rock", "album")
	if seen[parent] > seen[child] {
		t.Errorf("child %s visited before parent %s", child, parent)
	}
	if seen[root] != 0 {
		t.Errorf("root not visited first")
	}
}

func TestWalkerSkipsHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "junk.ogg"), []byte("x"))
	writeFile(t, filepath.Join(root, ".hidden.ogg"), []byte("x"))
	writeFile(t, filepath.Join(root, "visible.ogg"), []byte("x"))

	var files []string
	w := NewWalker(discardLogger())
	err := w.Walk(context.Background(), root, func(e WalkEntry) error {
		if !e.Dir {
			files = append(files, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "visible.ogg" {
		t.Errorf("expected only visible.ogg, got %v", files)
	}
}

func TestWalkerReportsFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "track.ogg"), make([]byte, 42))

	w := NewWalker(discardLogger())
	err := w.Walk(context.Background(), root, func(e WalkEntry) error {
		if !e.Dir && e.Size != 42 {
			t.Errorf("expected size 42, got %d", e.Size)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWalkerSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locked", "secret.ogg"), []byte("x"))
	writeFile(t, filepath.Join(root, "open.ogg"), []byte("x"))
	if err := os.Chmod(filepath.Join(root, "locked"), 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(filepath.Join(root, "locked"), 0755) })

	var files []string
	w := NewWalker(discardLogger())
	err := w.Walk(context.Background(), root, func(e WalkEntry) error {
		if !e.Dir {
			files = append(files, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unreadable directory aborted the walk: %v", err)
	}
	if len(files) != 1 || files[0] != "open.ogg" {
		t.Errorf("expected only open.ogg, got %v", files)
	}
}

func TestWalkerDoesNotFollowSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "elsewhere.ogg"), []byte("x"))
	writeFile(t, filepath.Join(root, "here.ogg"), []byte("x"))
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported here: %v", err)
	}

	var files []string
	w := NewWalker(discardLogger())
	err := w.Walk(context.Background(), root, func(e WalkEntry) error {
		if !e.Dir {
			files = append(files, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "here.ogg" {
		t.Errorf("walk crossed the symlink: %v", files)
	}
}

func TestWalkerStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ogg"), []byte("x"))
	writeFile(t, filepath.Join(root, "b.ogg"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWalker(discardLogger())
	visits := 0
	err := w.Walk(ctx, root, func(e WalkEntry) error {
		visits++
		cancel()
		return nil
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if visits > 2 {
		t.Errorf("walk kept going after cancel: %d visits", visits)
	}
}
