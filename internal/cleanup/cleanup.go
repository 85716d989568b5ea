// Package cleanup sizes and empties cache directories without touching
// files the operating system depends on.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrRefused is returned for paths that must never be emptied wholesale.
var ErrRefused = errors.New("refusing to clean path")

var (
	criticalExtensions = []string{".sys", ".dll", ".exe", ".ini", ".dat"}
	criticalNames      = []string{"desktop.ini", "thumbs.db", "index.dat"}
	criticalDirs       = []string{"system32", "syswow64", "windows", "program files", "programdata"}
)

// Options control a cleaning pass.
type Options struct {
	// DryRun sizes what would be removed without deleting anything.
	DryRun bool
}

// Result describes one cleaning pass over a directory.
type Result struct {
	Path        string
	Before      int64
	After       int64
	Reclaimable int64
	Removed     int
	Skipped     int
	Errors      []error
}

// Freed returns the bytes actually reclaimed. Growth during the pass (a
// browser writing to its cache) never yields a negative figure.
func (r Result) Freed() int64 {
	if r.After >= r.Before {
		return 0
	}
	return r.Before - r.After
}

// DirSize sums the sizes of regular files below path. Unreadable entries
// are ignored; a missing path has size 0.
func DirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

// IsCriticalFile reports whether a file name must be preserved.
func IsCriticalFile(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, ext := range criticalExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, n := range criticalNames {
		if lower == n {
			return true
		}
	}
	return false
}

// IsCriticalDir reports whether a directory name must be preserved. Only the
// entry's own name is checked, so caches living under C:\Windows stay
// cleanable.
func IsCriticalDir(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, n := range criticalDirs {
		if lower == n {
			return true
		}
	}
	return false
}

// CleanDir removes the non-critical direct children of path. Per-entry
// failures (files in use, permissions) are collected and skipped. The error
// is non-nil only when path itself cannot be cleaned.
func CleanDir(path string, opts Options) (Result, error) {
	res := Result{Path: path}
	if err := guard(path); err != nil {
		return res, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return res, fmt.Errorf("read dir %q: %w", path, err)
	}

	res.Before = DirSize(path)
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if IsCriticalDir(entry.Name()) {
				res.Skipped++
				continue
			}
		} else if IsCriticalFile(entry.Name()) {
			res.Skipped++
			continue
		}

		if opts.DryRun {
			res.Reclaimable += entrySize(full, entry)
			res.Removed++
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Removed++
	}

	if opts.DryRun {
		res.After = res.Before
		return res, nil
	}
	res.After = DirSize(path)
	return res, nil
}

func entrySize(full string, entry fs.DirEntry) int64 {
	if entry.IsDir() {
		return DirSize(full)
	}
	if !entry.Type().IsRegular() {
		return 0
	}
	info, err := entry.Info()
	if err != nil {
		return 0
	}
	return info.Size()
}

func guard(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrRefused)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w %q: not absolute", ErrRefused, path)
	}
	clean := filepath.Clean(path)
	if clean == filepath.Dir(clean) {
		return fmt.Errorf("%w %q: filesystem root", ErrRefused, path)
	}
	if IsCriticalDir(clean) {
		return fmt.Errorf("%w %q: system directory", ErrRefused, path)
	}
	return nil
}

// FormatBytes renders n with one decimal in B, KB, MB, GB or TB (base 1024).
func FormatBytes(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
