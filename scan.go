package main

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// ScanOptions controls file discovery
type ScanOptions struct {
	Logger      *slog.Logger
	Parallelism int // max subdirectories listed at once; <= 0 means unlimited
}

// ScanFiles returns the regular files found exactly one directory below root
// (root/*/*). Files directly in root and deeper levels are not visited.
// Unreadable directories are logged and skipped; the order of the result is unspecified.
func ScanFiles(root string, opts ScanOptions) []string {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Warn("cannot read projects directory", "dir", root, "err", err)
		return nil
	}

	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if entryIs(e, path, fs.FileMode.IsDir) {
			subdirs = append(subdirs, path)
		}
	}

	// One slot per subdirectory, so workers never share a slice
	found := make([][]string, len(subdirs))

	var g errgroup.Group
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, dir := range subdirs {
		g.Go(func() error {
			found[i] = listFiles(dir, logger)
			return nil
		})
	}
	_ = g.Wait() // listFiles never fails the group

	var files []string
	for _, f := range found {
		files = append(files, f...)
	}
	return files
}

// listFiles returns the regular files directly inside dir
func listFiles(dir string, logger *slog.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("cannot read project directory", "dir", dir, "err", err)
		return nil
	}

	var files []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if entryIs(e, path, fs.FileMode.IsRegular) {
			files = append(files, path)
		}
	}
	return files
}

// entryIs applies check to the entry's mode, following symlinks
func entryIs(e fs.DirEntry, path string, check func(fs.FileMode) bool) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return check(e.Type())
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return check(info.Mode())
}
