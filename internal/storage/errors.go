package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fhuszti/cleanmedia-go/internal/usecase/retention"
)

// mapFSErr treats a path that is already gone as success.
func mapFSErr(err error) error {
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %w", retention.ErrFilesystemDelete, err)
}
