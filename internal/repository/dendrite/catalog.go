package dendrite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
	"github.com/fhuszti/cleanmedia-go/internal/usecase/retention"
)

const mediaColumns = `media_id, media_origin, creation_ts, user_id, base64hash`

// Catalog reads and deletes media rows in a Dendrite media API database.
// It works unchanged on PostgreSQL and SQLite.
type Catalog struct {
	db *sql.DB

	// avatar media ids, loaded on first use
	avatars map[string]struct{}
}

// compile-time check: *Catalog must satisfy port.Catalog
var _ port.Catalog = (*Catalog)(nil)

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FetchRemoteCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error) {
	logger.Debugf(ctx, "fetching remote media created before %s...", olderThan.Format(time.RFC3339))

	const query = `
      SELECT ` + mediaColumns + `
      FROM mediaapi_media_repository
      WHERE user_id = '' AND creation_ts <= $1
      ORDER BY creation_ts ASC, media_id ASC
    `
	return c.queryMedia(ctx, query, olderThan.UnixMilli())
}

// FetchLocalCandidates leaves avatars out.
func (c *Catalog) FetchLocalCandidates(ctx context.Context, olderThan time.Time) ([]model.MediaRecord, error) {
	logger.Debugf(ctx, "fetching local media created before %s...", olderThan.Format(time.RFC3339))

	const query = `
      SELECT ` + mediaColumns + `
      FROM mediaapi_media_repository
      WHERE user_id <> '' AND creation_ts <= $1
      ORDER BY creation_ts ASC, media_id ASC
    `
	recs, err := c.queryMedia(ctx, query, olderThan.UnixMilli())
	return withoutAvatars(recs), err
}

// FetchByMediaID matches on media_id alone when key has no origin.
func (c *Catalog) FetchByMediaID(ctx context.Context, key model.MediaKey) (*model.MediaRecord, error) {
	logger.Debugf(ctx, "fetching media %s from the database...", key)

	const query = `
      SELECT ` + mediaColumns + `
      FROM mediaapi_media_repository
      WHERE media_id = $1 AND ($2 = '' OR media_origin = $2)
      ORDER BY creation_ts ASC
      LIMIT 1
    `
	row := c.db.QueryRowContext(ctx, query, key.MediaID, key.Origin)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", retention.ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	recs := []model.MediaRecord{m}
	if err := c.markAvatars(ctx, recs); err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// FetchByUserID leaves avatars out.
func (c *Catalog) FetchByUserID(ctx context.Context, userID string) ([]model.MediaRecord, error) {
	logger.Debugf(ctx, "fetching media uploaded by %s...", userID)

	const query = `
      SELECT ` + mediaColumns + `
      FROM mediaapi_media_repository
      WHERE user_id = $1
      ORDER BY creation_ts ASC, media_id ASC
    `
	recs, err := c.queryMedia(ctx, query, userID)
	return withoutAvatars(recs), err
}

func (c *Catalog) FetchAllMedia(ctx context.Context) ([]model.MediaRecord, error) {
	const query = `
      SELECT ` + mediaColumns + `
      FROM mediaapi_media_repository
      ORDER BY creation_ts ASC, media_id ASC
    `
	return c.queryMedia(ctx, query)
}

func (c *Catalog) FetchThumbnailsFor(ctx context.Context, key model.MediaKey) ([]model.ThumbnailRecord, error) {
	const query = `
      SELECT media_id, media_origin, width, height, resize_method
      FROM mediaapi_thumbnail
      WHERE media_id = $1 AND media_origin = $2
      ORDER BY width ASC, height ASC, resize_method ASC
    `
	return c.queryThumbnails(ctx, query, key.MediaID, key.Origin)
}

func (c *Catalog) FetchOrphanThumbnails(ctx context.Context) ([]model.ThumbnailRecord, error) {
	logger.Debug(ctx, "looking for thumbnails without a media row...")

	const query = `
      SELECT t.media_id, t.media_origin, t.width, t.height, t.resize_method
      FROM mediaapi_thumbnail t
      WHERE NOT EXISTS (
        SELECT 1 FROM mediaapi_media_repository m
        WHERE m.media_id = t.media_id AND m.media_origin = t.media_origin
      )
      ORDER BY t.media_origin ASC, t.media_id ASC
    `
	return c.queryThumbnails(ctx, query)
}

// DeleteMedia removes the thumbnail rows and the media row of m in one
// transaction and reports how many rows still reference m's content hash.
func (c *Catalog) DeleteMedia(ctx context.Context, m model.MediaRecord) (port.CatalogDeletion, error) {
	var del port.CatalogDeletion

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return del, fmt.Errorf("%w: begin: %w", retention.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM mediaapi_thumbnail WHERE media_id = $1 AND media_origin = $2`,
		m.MediaID, m.Origin,
	)
	if err != nil {
		return del, fmt.Errorf("%w: delete thumbnails: %w", retention.ErrTransactionFailed, err)
	}
	del.ThumbnailRows, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx,
		`DELETE FROM mediaapi_media_repository WHERE media_id = $1 AND media_origin = $2`,
		m.MediaID, m.Origin,
	)
	if err != nil {
		return del, fmt.Errorf("%w: delete media: %w", retention.ErrTransactionFailed, err)
	}
	del.MediaRows, _ = res.RowsAffected()

	if m.Base64Hash != "" {
		row := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM mediaapi_media_repository WHERE base64hash = $1`,
			m.Base64Hash,
		)
		if err := row.Scan(&del.HashRefsLeft); err != nil {
			return del, fmt.Errorf("%w: count hash references: %w", retention.ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return del, fmt.Errorf("%w: commit: %w", retention.ErrTransactionFailed, err)
	}
	return del, nil
}

func (c *Catalog) queryMedia(ctx context.Context, query string, args ...any) ([]model.MediaRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MediaRecord
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}

	if err := c.markAvatars(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) queryThumbnails(ctx context.Context, query string, args ...any) ([]model.ThumbnailRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ThumbnailRecord
	for rows.Next() {
		var t model.ThumbnailRecord
		if err := rows.Scan(&t.MediaID, &t.Origin, &t.Width, &t.Height, &t.ResizeMethod); err != nil {
			return nil, unavailable(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (model.MediaRecord, error) {
	var (
		m       model.MediaRecord
		created int64
		userID  sql.NullString
		hash    sql.NullString
	)
	if err := s.Scan(&m.MediaID, &m.Origin, &created, &userID, &hash); err != nil {
		return model.MediaRecord{}, err
	}
	m.CreatedAt = time.UnixMilli(created).UTC()
	m.UploaderUserID = userID.String
	m.Base64Hash = hash.String
	return m, nil
}

// markAvatars flags records referenced by a profile avatar URL.
func (c *Catalog) markAvatars(ctx context.Context, recs []model.MediaRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if c.avatars == nil {
		avatars, err := c.loadAvatars(ctx)
		if err != nil {
			return err
		}
		c.avatars = avatars
	}
	for i := range recs {
		recs[i].IsAvatar = c.isAvatar(recs[i].MediaID)
	}
	return nil
}

func withoutAvatars(recs []model.MediaRecord) []model.MediaRecord {
	out := recs[:0]
	for _, m := range recs {
		if !m.IsAvatar {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) isAvatar(mediaID string) bool {
	_, ok := c.avatars[mediaID]
	return ok
}

func (c *Catalog) loadAvatars(ctx context.Context) (map[string]struct{}, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT avatar_url FROM userapi_profiles WHERE avatar_url > ''`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	avatars := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, unavailable(err)
		}
		if id := avatarMediaID(url); id != "" {
			avatars[id] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	logger.Debugf(ctx, "loaded %d avatar media ids", len(avatars))
	return avatars, nil
}

// avatarMediaID returns the part of an mxc:// URL after the last slash.
func avatarMediaID(url string) string {
	i := strings.LastIndex(url, "/")
	if i < 0 {
		return ""
	}
	return url[i+1:]
}

func unavailable(err error) error {
	if errors.Is(err, retention.ErrCatalogUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", retention.ErrCatalogUnavailable, err)
}
