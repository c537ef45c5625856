// Package mediapath maps catalog records onto the on-disk layout of a
// Dendrite media store. Both the reader-side checks and the deleter use it,
// so the layout is defined in exactly one place.
//
//	<base>/<h[0]>/<h[1]>/<h[2:]>/file
//	<base>/<h[0]>/<h[1]>/<h[2:]>/thumbnail-<w>x<h>-<method>
package mediapath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fhuszti/cleanmedia-go/internal/model"
)

// PrimaryFileName is the name of the original upload inside a hash directory.
const PrimaryFileName = "file"

// minHashLen is the shortest hash that still yields three path segments.
const minHashLen = 3

// Dir returns the hash directory for base64hash, or "" when the hash is too
// short to address anything.
func Dir(base, base64hash string) string {
	if len(base64hash) < minHashLen {
		return ""
	}
	return filepath.Join(base, base64hash[0:1], base64hash[1:2], base64hash[2:])
}

// PrimaryFile returns the path of the original upload, or "" if unknown.
func PrimaryFile(base string, m model.MediaRecord) string {
	dir := Dir(base, m.Base64Hash)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, PrimaryFileName)
}

// ThumbnailFileName follows Dendrite's naming for a stored rendition.
func ThumbnailFileName(t model.ThumbnailRecord) string {
	return fmt.Sprintf("thumbnail-%dx%d-%s", t.Width, t.Height, t.ResizeMethod)
}

// ThumbnailFile returns the path of t, which lives next to the primary file
// of m. It returns "" if m has no usable hash.
func ThumbnailFile(base string, m model.MediaRecord, t model.ThumbnailRecord) string {
	dir := Dir(base, m.Base64Hash)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ThumbnailFileName(t))
}

// HashFromDir is the inverse of Dir. ok is false when dir is not three levels
// below base with single-character first and second levels.
func HashFromDir(base, dir string) (hash string, ok bool) {
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || len(parts[0]) != 1 || len(parts[1]) != 1 || parts[2] == "" {
		return "", false
	}
	return parts[0] + parts[1] + parts[2], true
}
