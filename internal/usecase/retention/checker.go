package retention

import (
	"context"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/mediapath"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// Checker looks for catalog and filesystem inconsistencies. It only reads.
type Checker struct {
	catalog port.CatalogReader
	store   port.MediaStore
}

// NewChecker constructs a Checker.
func NewChecker(catalog port.CatalogReader, store port.MediaStore) *Checker {
	return &Checker{catalog: catalog, store: store}
}

// Check reports orphan thumbnails and, with checkFiles, media rows whose file
// is missing and hash directories no row references. Only catalog failures
// are returned as errors; filesystem trouble is logged and skipped.
func (c *Checker) Check(ctx context.Context, checkFiles bool) ([]model.Inconsistency, error) {
	orphans, err := c.catalog.FetchOrphanThumbnails(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]model.Inconsistency, 0, len(orphans))
	for _, t := range orphans {
		found = append(found, model.Inconsistency{
			Kind:      model.OrphanThumbnail,
			MediaID:   t.MediaID,
			Origin:    t.Origin,
			Thumbnail: mediapath.ThumbnailFileName(t),
		})
	}
	if len(orphans) > 0 {
		logger.Errorf(ctx, "you have %d thumbnails in your db that do not refer to media. This needs fixing (we don't do that)!", len(orphans))
	}

	if !checkFiles {
		return found, nil
	}

	files, err := c.checkFiles(ctx)
	if err != nil {
		return nil, err
	}
	return append(found, files...), nil
}

func (c *Checker) checkFiles(ctx context.Context) ([]model.Inconsistency, error) {
	media, err := c.catalog.FetchAllMedia(ctx)
	if err != nil {
		return nil, err
	}

	base := c.store.BasePath()
	var found []model.Inconsistency
	known := make(map[string]struct{}, len(media))
	for _, m := range media {
		if m.Base64Hash != "" {
			known[m.Base64Hash] = struct{}{}
		}
		path := mediapath.PrimaryFile(base, m)
		if path == "" {
			continue
		}
		exists, err := c.store.FileExists(ctx, path)
		if err != nil {
			logger.Warnf(ctx, "could not stat %s: %v", path, err)
			continue
		}
		if !exists {
			found = append(found, model.Inconsistency{
				Kind:    model.MissingFile,
				MediaID: m.MediaID,
				Origin:  m.Origin,
				Path:    path,
			})
		}
	}

	err = c.store.WalkHashDirs(ctx, func(hash, dir string) error {
		if _, ok := known[hash]; !ok {
			found = append(found, model.Inconsistency{Kind: model.OrphanFile, Path: dir})
		}
		return nil
	})
	if err != nil {
		logger.Warnf(ctx, "could not walk media store %s: %v", base, err)
	}

	if len(found) > 0 {
		logger.Warnf(ctx, "found %d filesystem inconsistencies", len(found))
	}
	return found, nil
}
