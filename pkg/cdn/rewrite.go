// Package cdn rewrites the CDN origin baked into a blog's sources and
// theme files.
package cdn

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoTargets is returned when neither directories nor files are
	// configured.
	ErrNoTargets = errors.New("no directories or files to rewrite")
	// ErrEmptyOrigin is returned when the origin to replace is empty.
	ErrEmptyOrigin = errors.New("old CDN origin must not be empty")
)

// Rewriter replaces every occurrence of Old with New in the files
// under Dirs and in the individual Files. Relative paths resolve
// against Root. Directories whose name is in SkipDirs are not entered.
type Rewriter struct {
	Root     string
	Old      string
	New      string
	Dirs     []string
	Files    []string
	SkipDirs []string
	Logger   *slog.Logger
}

// Change records one rewritten file.
type Change struct {
	Path         string `yaml:"path"`
	Replacements int    `yaml:"replacements"`
}

// Report summarizes one run.
type Report struct {
	Scanned int      `yaml:"scanned"`
	Changed []Change `yaml:"changed,omitempty"`
	Missing []string `yaml:"missing,omitempty"`
}

// Replacements totals the replacements across changed files.
func (r Report) Replacements() int {
	n := 0
	for _, c := range r.Changed {
		n += c.Replacements
	}
	return n
}

func (rw *Rewriter) Validate() error {
	if rw.Old == "" {
		return ErrEmptyOrigin
	}
	if len(rw.Dirs) == 0 && len(rw.Files) == 0 {
		return ErrNoTargets
	}
	if strings.Contains(rw.New, rw.Old) {
		return fmt.Errorf("new CDN origin %q contains the old one %q", rw.New, rw.Old)
	}
	return nil
}

func (rw *Rewriter) logger() *slog.Logger {
	if rw.Logger != nil {
		return rw.Logger
	}
	return slog.Default()
}

func (rw *Rewriter) path(p string) string {
	if filepath.IsAbs(p) || rw.Root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(rw.Root, p)
}

func (rw *Rewriter) skipped(name string) bool {
	for _, s := range rw.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

// Run performs one rewrite pass: each directory depth-first, then the
// fixed files. Only files whose content changes are written. Missing
// directories and files are reported and skipped.
func (rw *Rewriter) Run(ctx context.Context) (Report, error) {
	var report Report
	if err := rw.Validate(); err != nil {
		return report, err
	}
	log := rw.logger()
	seen := make(map[string]bool)

	visit := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		n, err := rw.rewriteFile(path)
		if err != nil {
			return err
		}
		report.Scanned++
		if n > 0 {
			report.Changed = append(report.Changed, Change{Path: path, Replacements: n})
			log.Info("rewrote CDN origin", "path", path, "replacements", n)
		}
		return nil
	}

	for _, dir := range rw.Dirs {
		root := rw.path(dir)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			report.Missing = append(report.Missing, root)
			log.Warn("directory not found", "path", root)
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && rw.skipped(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return visit(path)
		})
		if err != nil {
			return report, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	for _, file := range rw.Files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := rw.path(file)
		err := visit(path)
		if errors.Is(err, fs.ErrNotExist) {
			report.Missing = append(report.Missing, path)
			log.Warn("file not found", "path", path)
			continue
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// rewriteFile replaces the origin in path and returns how many
// occurrences it replaced. The file keeps its permissions.
func (rw *Rewriter) rewriteFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)
	n := strings.Count(content, rw.Old)
	if n == 0 {
		return 0, nil
	}
	out := strings.ReplaceAll(content, rw.Old, rw.New)
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}
