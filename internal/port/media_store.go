package port

import "context"

// MediaStore performs raw unlink operations on the filesystem media tree.
// It never creates or moves files.
type MediaStore interface {
	BasePath() string
	// RemoveFile unlinks path. A file that is already gone is not an error.
	RemoveFile(ctx context.Context, path string) error
	// RemoveDirIfEmpty removes dir when nothing is left in it. removed is
	// false, with no error, when the directory is missing or not empty.
	RemoveDirIfEmpty(ctx context.Context, dir string) (removed bool, err error)
	FileExists(ctx context.Context, path string) (bool, error)
	// WalkHashDirs calls fn for each hash directory found under the base path.
	WalkHashDirs(ctx context.Context, fn func(hash, dir string) error) error
}
