package model

import (
	"time"
)

// MediaRecord is one row of mediaapi_media_repository.
type MediaRecord struct {
	MediaID        string    `json:"media_id"`
	Origin         string    `json:"origin_server"`
	CreatedAt      time.Time `json:"created_at"`
	UploaderUserID string    `json:"uploader_user_id,omitempty"`
	Base64Hash     string    `json:"base64hash,omitempty"`
	IsAvatar       bool      `json:"is_avatar"`
}

// IsLocal reports whether the media was uploaded by a local user. Dendrite
// stores the server name in media_origin for those rows too, so locality is
// decided by the uploader, never by the origin.
func (m MediaRecord) IsLocal() bool {
	return m.UploaderUserID != ""
}

// Key identifies the record inside the catalog.
func (m MediaRecord) Key() MediaKey {
	return MediaKey{MediaID: m.MediaID, Origin: m.Origin}
}

// MediaKey is the (media_id, media_origin) pair, unique in the catalog.
type MediaKey struct {
	MediaID string `json:"media_id"`
	Origin  string `json:"origin_server"`
}

func (k MediaKey) String() string {
	return "mxc://" + k.Origin + "/" + k.MediaID
}

// ThumbnailRecord is one row of mediaapi_thumbnail.
type ThumbnailRecord struct {
	MediaID      string `json:"media_id"`
	Origin       string `json:"origin_server"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ResizeMethod string `json:"resize_method"`
}

func (t ThumbnailRecord) Key() MediaKey {
	return MediaKey{MediaID: t.MediaID, Origin: t.Origin}
}
