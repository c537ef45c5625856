package mock

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// Catalog is an in-memory port.Catalog for tests. Records are matched on
// (media_id, origin) like the real catalog; returned errors are taken as-is.
type Catalog struct {
	Media      []model.MediaRecord
	Thumbnails []model.ThumbnailRecord

	// errors
	FetchErr error
	// NotFoundErr is returned by FetchByMediaID when nothing matches.
	NotFoundErr   error
	ThumbnailsErr error
	OrphansErr    error
	AllErr        error
	// DeleteErrs fails DeleteMedia for specific media ids.
	DeleteErrs map[string]error

	// captured inputs
	OlderThan time.Time
	Deleted   []model.MediaKey

	// call flags
	RemoteCalled  bool
	LocalCalled   bool
	OrphansCalled bool
}

var _ port.Catalog = (*Catalog)(nil)

func (c *Catalog) FetchRemoteCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error) {
	c.RemoteCalled = true
	c.OlderThan = olderThan
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	return c.filter(func(m model.MediaRecord) bool {
		return !m.IsLocal() && !m.CreatedAt.After(olderThan)
	}), nil
}

func (c *Catalog) FetchLocalCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error) {
	c.LocalCalled = true
	c.OlderThan = olderThan
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	return c.filter(func(m model.MediaRecord) bool {
		return m.IsLocal() && !m.IsAvatar && !m.CreatedAt.After(olderThan)
	}), nil
}

func (c *Catalog) FetchByMediaID(ctx context.Context, key model.MediaKey) (*model.MediaRecord, error) {
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	found := c.filter(func(m model.MediaRecord) bool {
		return m.MediaID == key.MediaID && (key.Origin == "" || key.Origin == m.Origin)
	})
	if len(found) == 0 {
		if c.NotFoundErr != nil {
			return nil, c.NotFoundErr
		}
		return nil, errors.New("mock: media not found")
	}
	return &found[0], nil
}

func (c *Catalog) FetchByUserID(ctx context.Context, userID string) ([]model.MediaRecord, error) {
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	return c.filter(func(m model.MediaRecord) bool {
		return m.UploaderUserID == userID && !m.IsAvatar
	}), nil
}

func (c *Catalog) FetchThumbnailsFor(ctx context.Context, key model.MediaKey) ([]model.ThumbnailRecord, error) {
	if c.ThumbnailsErr != nil {
		return nil, c.ThumbnailsErr
	}
	var out []model.ThumbnailRecord
	for _, t := range c.Thumbnails {
		if t.Key() == key {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Catalog) FetchOrphanThumbnails(ctx context.Context) ([]model.ThumbnailRecord, error) {
	c.OrphansCalled = true
	if c.OrphansErr != nil {
		return nil, c.OrphansErr
	}
	keys := make(map[model.MediaKey]bool, len(c.Media))
	for _, m := range c.Media {
		keys[m.Key()] = true
	}
	var out []model.ThumbnailRecord
	for _, t := range c.Thumbnails {
		if !keys[t.Key()] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Catalog) FetchAllMedia(ctx context.Context) ([]model.MediaRecord, error) {
	if c.AllErr != nil {
		return nil, c.AllErr
	}
	return c.filter(func(model.MediaRecord) bool { return true }), nil
}

func (c *Catalog) DeleteMedia(ctx context.Context, m model.MediaRecord) (port.CatalogDeletion, error) {
	if err := c.DeleteErrs[m.MediaID]; err != nil {
		return port.CatalogDeletion{}, err
	}
	var del port.CatalogDeletion
	keptThumbs := c.Thumbnails[:0]
	for _, t := range c.Thumbnails {
		if t.Key() == m.Key() {
			del.ThumbnailRows++
			continue
		}
		keptThumbs = append(keptThumbs, t)
	}
	c.Thumbnails = keptThumbs

	keptMedia := c.Media[:0]
	for _, r := range c.Media {
		if r.Key() == m.Key() {
			del.MediaRows++
			continue
		}
		if m.Base64Hash != "" && r.Base64Hash == m.Base64Hash {
			del.HashRefsLeft++
		}
		keptMedia = append(keptMedia, r)
	}
	c.Media = keptMedia
	c.Deleted = append(c.Deleted, m.Key())
	return del, nil
}

func (c *Catalog) filter(keep func(model.MediaRecord) bool) []model.MediaRecord {
	var out []model.MediaRecord
	for _, m := range c.Media {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
