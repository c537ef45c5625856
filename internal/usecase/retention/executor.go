package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/mediapath"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// FileError is a filesystem object that could not be unlinked.
type FileError struct {
	Path string
	Err  error
}

// Outcome describes what happened to one deletion target.
type Outcome struct {
	Key     model.MediaKey
	State   model.ItemState
	Applied bool
	Catalog port.CatalogDeletion
	// SharedFile is set when other media rows still use the same content,
	// in which case the files were left on disk.
	SharedFile bool
	FileErrors []FileError
	Err        error
}

// Executor removes one media item from the catalog and the media store.
type Executor struct {
	catalog port.CatalogDeleter
	store   port.MediaStore
}

// NewExecutor constructs an Executor.
func NewExecutor(catalog port.CatalogDeleter, store port.MediaStore) *Executor {
	return &Executor{catalog: catalog, store: store}
}

// Execute deletes target and its thumbnails. Catalog rows go first, in one
// transaction; the files follow. A crash in between leaves files without
// rows, which the consistency checker reports, rather than rows without
// files.
func (e *Executor) Execute(ctx context.Context, target model.MediaRecord, thumbnails []model.ThumbnailRecord, dryRun bool) Outcome {
	out := Outcome{Key: target.Key()}
	base := e.store.BasePath()
	primary := mediapath.PrimaryFile(base, target)

	if dryRun {
		e.report(ctx, target, thumbnails, primary)
		out.State = model.StateDryRun
		return out
	}

	del, err := e.catalog.DeleteMedia(ctx, target)
	if err != nil {
		if !errors.Is(err, ErrTransactionFailed) {
			err = fmt.Errorf("%w: %w", ErrTransactionFailed, err)
		}
		logger.Errorf(ctx, "failed to delete catalog rows for media %s: %v", target.Key(), err)
		out.State = model.StateFailed
		out.Err = err
		return out
	}
	out.Applied = true
	out.Catalog = del
	out.State = model.StateDeleted
	logger.Debugf(ctx, "deleted %d + %d db entries for media %s", del.MediaRows, del.ThumbnailRows, target.Key())

	if del.HashRefsLeft > 0 {
		logger.Infof(ctx, "content of media %s is still used by %d other record(s), keeping files", target.Key(), del.HashRefsLeft)
		out.SharedFile = true
		return out
	}

	if primary == "" {
		logger.Infof(ctx, "no known path for media %s, cannot delete file", target.Key())
		return out
	}

	for _, t := range thumbnails {
		e.remove(ctx, &out, mediapath.ThumbnailFile(base, target, t))
	}
	e.remove(ctx, &out, primary)

	dir := mediapath.Dir(base, target.Base64Hash)
	removed, err := e.store.RemoveDirIfEmpty(ctx, dir)
	switch {
	case err != nil:
		e.fail(ctx, &out, dir, err)
	case removed:
		logger.Debugf(ctx, "deleted directory %s", dir)
	default:
		logger.Debugf(ctx, "directory %s is not empty or already gone, leaving it", dir)
	}

	return out
}

func (e *Executor) remove(ctx context.Context, out *Outcome, path string) {
	if err := e.store.RemoveFile(ctx, path); err != nil {
		e.fail(ctx, out, path, err)
	}
}

func (e *Executor) fail(ctx context.Context, out *Outcome, path string, err error) {
	if !errors.Is(err, ErrFilesystemDelete) {
		err = fmt.Errorf("%w: %w", ErrFilesystemDelete, err)
	}
	logger.Warnf(ctx, "failed to delete %s for media %s: %v", path, out.Key, err)
	out.FileErrors = append(out.FileErrors, FileError{Path: path, Err: err})
}

func (e *Executor) report(ctx context.Context, target model.MediaRecord, thumbnails []model.ThumbnailRecord, primary string) {
	logger.Info(ctx, "pretending to delete media",
		"media_id", target.MediaID,
		"origin", target.Origin,
		"path", primary,
		"thumbnails", len(thumbnails),
	)
	base := e.store.BasePath()
	for _, t := range thumbnails {
		logger.Debug(ctx, "pretending to delete thumbnail",
			"media_id", t.MediaID,
			"size", fmt.Sprintf("%dx%d", t.Width, t.Height),
			"method", t.ResizeMethod,
			"path", mediapath.ThumbnailFile(base, target, t),
		)
	}
	if primary == "" {
		return
	}
	exists, err := e.store.FileExists(ctx, primary)
	if err != nil {
		logger.Warnf(ctx, "could not stat %s: %v", primary, err)
		return
	}
	if !exists {
		logger.Infof(ctx, "media %s does not physically exist (path %s)", target.Key(), primary)
	}
}
