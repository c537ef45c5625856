package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/mediapath"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// ErrNotADirectory is returned when the configured media path is unusable.
var ErrNotADirectory = errors.New("the configured media dir cannot be found")

// FSStorage is the Dendrite media directory on a local filesystem.
type FSStorage struct {
	fs   fileSystem
	base string
}

// compile-time check: *FSStorage must satisfy port.MediaStore
var _ port.MediaStore = (*FSStorage)(nil)

// NewFSStorage checks that base is an existing directory. A relative base is
// accepted with a warning since it depends on the working directory.
func NewFSStorage(ctx context.Context, base string) (*FSStorage, error) {
	return newFSStorage(ctx, osFS{}, base)
}

func newFSStorage(ctx context.Context, fsys fileSystem, base string) (*FSStorage, error) {
	if !filepath.IsAbs(base) {
		logger.Warnf(ctx, "the media path %q is relative, make sure you run this in the correct directory!", base)
	}
	info, err := fsys.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotADirectory, base, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotADirectory, base)
	}
	return &FSStorage{fs: fsys, base: filepath.Clean(base)}, nil
}

func (s *FSStorage) BasePath() string {
	return s.base
}

func (s *FSStorage) RemoveFile(ctx context.Context, path string) error {
	logger.Debugf(ctx, "removing file %s...", path)
	return mapFSErr(s.fs.Remove(path))
}

// RemoveDirIfEmpty reports false without error when dir is gone or still has
// entries in it.
func (s *FSStorage) RemoveDirIfEmpty(ctx context.Context, dir string) (bool, error) {
	entries, err := s.fs.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mapFSErr(err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := s.fs.Remove(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, mapFSErr(err)
	}
	return true, nil
}

func (s *FSStorage) FileExists(ctx context.Context, path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// WalkHashDirs visits every <base>/<c>/<c>/<rest> directory in lexical order.
// Entries that do not fit the layout are ignored.
func (s *FSStorage) WalkHashDirs(ctx context.Context, fn func(hash, dir string) error) error {
	first, err := s.subdirs(s.base, true)
	if err != nil {
		return err
	}
	for _, a := range first {
		second, err := s.subdirs(a, true)
		if err != nil {
			return err
		}
		for _, b := range second {
			leaves, err := s.subdirs(b, false)
			if err != nil {
				return err
			}
			for _, dir := range leaves {
				if err := ctx.Err(); err != nil {
					return err
				}
				hash, ok := mediapath.HashFromDir(s.base, dir)
				if !ok {
					continue
				}
				if err := fn(hash, dir); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// subdirs lists the directories inside dir; with single it keeps only
// one-character names.
func (s *FSStorage) subdirs(dir string, single bool) ([]string, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || (single && len(e.Name()) != 1) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
