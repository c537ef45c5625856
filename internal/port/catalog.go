package port

import (
	"context"
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/model"
)

// CatalogReader runs read-only queries against the media and thumbnail
// catalogs. Every method fails with retention.ErrCatalogUnavailable when the
// store cannot be queried.
type CatalogReader interface {
	// FetchRemoteCandidates returns remote media created at or before
	// olderThan, oldest first.
	FetchRemoteCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error)
	// FetchLocalCandidates returns non-avatar local media created at or
	// before olderThan, oldest first.
	FetchLocalCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error)
	// FetchByMediaID looks a single record up. An empty key.Origin matches
	// any origin. Returns retention.ErrRecordNotFound when nothing matches.
	FetchByMediaID(ctx context.Context, key model.MediaKey) (*model.MediaRecord, error)
	// FetchByUserID returns the non-avatar media uploaded by userID.
	FetchByUserID(ctx context.Context, userID string) ([]model.MediaRecord, error)
	FetchThumbnailsFor(ctx context.Context, key model.MediaKey) ([]model.ThumbnailRecord, error)
	// FetchOrphanThumbnails returns thumbnails whose media row is gone.
	FetchOrphanThumbnails(ctx context.Context) ([]model.ThumbnailRecord, error)
	FetchAllMedia(ctx context.Context) ([]model.MediaRecord, error)
}

// CatalogDeletion reports what one committed per-item transaction removed.
type CatalogDeletion struct {
	ThumbnailRows int64
	MediaRows     int64
	// HashRefsLeft counts media rows still pointing at the same content hash
	// after the delete. Files must stay on disk while it is non-zero.
	HashRefsLeft int
}

// CatalogDeleter removes the thumbnail rows and the media row of a record in
// one transaction. Failures are reported as retention.ErrTransactionFailed
// and leave the catalog untouched.
type CatalogDeleter interface {
	DeleteMedia(ctx context.Context, m model.MediaRecord) (CatalogDeletion, error)
}

// Catalog is the full catalog contract used by a purge run.
type Catalog interface {
	CatalogReader
	CatalogDeleter
}
