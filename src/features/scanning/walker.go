package scanning

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// WalkEntry is one filesystem object observed during a walk. Dir
// entries are always delivered before anything inside them.
type WalkEntry struct {
	Path string // absolute
	Dir  bool
	Size int64
}

// Walker traverses library roots depth-first. Unreadable directories
// and files are logged and skipped, never fatal: one bad mount must not
// abort a whole scan. Symlinked directories are not followed, so a link
// cycle cannot wedge the walk.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new Walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{logger: logger}
}

// Walk visits root and everything under it, calling visit for each
// entry. Hidden files and directories (dot-prefixed) are skipped. The
// walk stops early when ctx is cancelled or visit returns an error.
func (w *Walker) Walk(ctx context.Context, root string, visit func(WalkEntry) error) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.logger.Warn("Walker: skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path != abs && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Walker: skipping symlink", "path", path)
			return nil
		}

		entry := WalkEntry{Path: path, Dir: d.IsDir()}
		if !entry.Dir {
			info, err := d.Info()
			if err != nil {
				w.logger.Warn("Walker: could not stat file", "path", path, "error", err)
				return nil
			}
			entry.Size = info.Size()
		}
		return visit(entry)
	})
}
