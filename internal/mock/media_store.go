package mock

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fhuszti/cleanmedia-go/internal/mediapath"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// MediaStore is an in-memory port.MediaStore. Files holds full paths; a
// directory exists as long as a file lives under it or it is listed in Dirs.
type MediaStore struct {
	Base  string
	Files map[string]bool
	Dirs  map[string]bool

	// errors, keyed by path
	RemoveErrs map[string]error
	StatErrs   map[string]error
	WalkErr    error

	// captured inputs
	Removed     []string
	RemovedDirs []string
}

var _ port.MediaStore = (*MediaStore)(nil)

// NewMediaStore returns an empty store rooted at base.
func NewMediaStore(base string, files ...string) *MediaStore {
	s := &MediaStore{Base: base, Files: map[string]bool{}, Dirs: map[string]bool{}}
	for _, f := range files {
		s.Add(f)
	}
	return s
}

// Add creates a file and its parent directory.
func (s *MediaStore) Add(path string) {
	s.Files[path] = true
	s.Dirs[filepath.Dir(path)] = true
}

func (s *MediaStore) BasePath() string { return s.Base }

func (s *MediaStore) RemoveFile(ctx context.Context, path string) error {
	if err := s.RemoveErrs[path]; err != nil {
		return err
	}
	s.Removed = append(s.Removed, path)
	delete(s.Files, path)
	return nil
}

func (s *MediaStore) RemoveDirIfEmpty(ctx context.Context, dir string) (bool, error) {
	if err := s.RemoveErrs[dir]; err != nil {
		return false, err
	}
	if !s.Dirs[dir] {
		return false, nil
	}
	prefix := dir + string(filepath.Separator)
	for f := range s.Files {
		if strings.HasPrefix(f, prefix) {
			return false, nil
		}
	}
	delete(s.Dirs, dir)
	s.RemovedDirs = append(s.RemovedDirs, dir)
	return true, nil
}

func (s *MediaStore) FileExists(ctx context.Context, path string) (bool, error) {
	if err := s.StatErrs[path]; err != nil {
		return false, err
	}
	return s.Files[path], nil
}

func (s *MediaStore) WalkHashDirs(ctx context.Context, fn func(hash, dir string) error) error {
	if s.WalkErr != nil {
		return s.WalkErr
	}
	dirs := make([]string, 0, len(s.Dirs))
	for d := range s.Dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		hash, ok := mediapath.HashFromDir(s.Base, d)
		if !ok {
			continue
		}
		if err := fn(hash, d); err != nil {
			return err
		}
	}
	return nil
}
