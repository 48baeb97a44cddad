package cdn

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc receives the outcome of each rewrite pass during Watch.
type RunFunc func(Report, error)

// Watch runs one pass immediately, then reruns whenever a watched file
// is written, created or renamed. Bursts of events within debounce are
// folded into a single pass. Watch blocks until ctx is done.
//
// Passes are idempotent once New no longer contains Old, so the writes
// a pass makes settle after one extra, empty pass.
func (rw *Rewriter) Watch(ctx context.Context, debounce time.Duration, fn RunFunc) error {
	if err := rw.Validate(); err != nil {
		return err
	}
	if fn == nil {
		fn = func(Report, error) {}
	}
	log := rw.logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	for _, file := range rw.Files {
		path := rw.path(file)
		targets[path] = true
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			log.Warn("cannot watch file", "path", path, "error", err)
		}
	}
	var roots []string
	for _, dir := range rw.Dirs {
		root := rw.path(dir)
		roots = append(roots, root)
		if err := rw.addTree(watcher, root); err != nil {
			log.Warn("cannot watch directory", "path", root, "error", err)
		}
	}
	relevant := func(path string) bool {
		path = filepath.Clean(path)
		if targets[path] {
			return true
		}
		for _, root := range roots {
			if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}

	fn(rw.Run(ctx))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !relevant(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := rw.addTree(watcher, ev.Name); err != nil {
						log.Warn("cannot watch directory", "path", ev.Name, "error", err)
					}
				}
			}
			log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			fn(rw.Run(ctx))
		}
	}
}

// addTree watches root and every directory below it that is not skipped.
func (rw *Rewriter) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && rw.skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
