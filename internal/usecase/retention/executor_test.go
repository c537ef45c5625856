package retention

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhuszti/cleanmedia-go/internal/mediapath"
	"github.com/fhuszti/cleanmedia-go/internal/mock"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

// recorder keeps the global order of catalog and filesystem mutations.
type recorder struct{ events []string }

type orderedCatalog struct {
	*mock.Catalog
	rec *recorder
}

func (c orderedCatalog) DeleteMedia(ctx context.Context, m model.MediaRecord) (port.CatalogDeletion, error) {
	c.rec.events = append(c.rec.events, "catalog:"+m.MediaID)
	return c.Catalog.DeleteMedia(ctx, m)
}

type orderedStore struct {
	*mock.MediaStore
	rec *recorder
}

func (s orderedStore) RemoveFile(ctx context.Context, path string) error {
	s.rec.events = append(s.rec.events, "rm:"+filepath.Base(path))
	return s.MediaStore.RemoveFile(ctx, path)
}

const base = "/media"

func seeded() (*mock.Catalog, *mock.MediaStore, model.MediaRecord, model.ThumbnailRecord) {
	m := model.MediaRecord{MediaID: "abc", Origin: "matrix.example.org", CreatedAt: daysAgo(40), Base64Hash: "qwerty"}
	th := model.ThumbnailRecord{MediaID: "abc", Origin: "matrix.example.org", Width: 32, Height: 32, ResizeMethod: "crop"}
	cat := &mock.Catalog{Media: []model.MediaRecord{m}, Thumbnails: []model.ThumbnailRecord{th}}
	store := mock.NewMediaStore(base, mediapath.PrimaryFile(base, m), mediapath.ThumbnailFile(base, m, th))
	return cat, store, m, th
}

func TestExecute_DeletesRowsBeforeFiles(t *testing.T) {
	cat, store, m, th := seeded()
	rec := &recorder{}
	ex := NewExecutor(orderedCatalog{cat, rec}, orderedStore{store, rec})

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, false)

	require.NoError(t, out.Err)
	assert.Equal(t, model.StateDeleted, out.State)
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"catalog:abc", "rm:thumbnail-32x32-crop", "rm:file"}, rec.events)
	assert.Equal(t, int64(1), out.Catalog.MediaRows)
	assert.Equal(t, int64(1), out.Catalog.ThumbnailRows)
	assert.Empty(t, cat.Media)
	assert.Empty(t, cat.Thumbnails)
	assert.Empty(t, store.Files)
	assert.Equal(t, []string{mediapath.Dir(base, m.Base64Hash)}, store.RemovedDirs)
}

func TestExecute_DryRunTouchesNothing(t *testing.T) {
	cat, store, m, th := seeded()
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, true)

	assert.Equal(t, model.StateDryRun, out.State)
	assert.False(t, out.Applied)
	assert.Empty(t, cat.Deleted)
	assert.Len(t, cat.Media, 1)
	assert.Len(t, cat.Thumbnails, 1)
	assert.Empty(t, store.Removed)
	assert.Len(t, store.Files, 2)
}

func TestExecute_TransactionFailure(t *testing.T) {
	cat, store, m, th := seeded()
	cat.DeleteErrs = map[string]error{"abc": errors.New("deadlock detected")}
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, false)

	assert.Equal(t, model.StateFailed, out.State)
	assert.False(t, out.Applied)
	require.ErrorIs(t, out.Err, ErrTransactionFailed)
	assert.Empty(t, store.Removed, "files must stay when the rows could not be deleted")
}

func TestExecute_MissingFilesAreNotErrors(t *testing.T) {
	cat, _, m, th := seeded()
	store := mock.NewMediaStore(base)
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, false)

	assert.Equal(t, model.StateDeleted, out.State)
	assert.Empty(t, out.FileErrors)
}

func TestExecute_FilesystemErrorsAccumulate(t *testing.T) {
	cat, store, m, th := seeded()
	thumbPath := mediapath.ThumbnailFile(base, m, th)
	store.RemoveErrs = map[string]error{thumbPath: errors.New("permission denied")}
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, false)

	assert.Equal(t, model.StateDeleted, out.State)
	require.Len(t, out.FileErrors, 1)
	assert.Equal(t, thumbPath, out.FileErrors[0].Path)
	assert.ErrorIs(t, out.FileErrors[0].Err, ErrFilesystemDelete)
	assert.NotContains(t, store.Files, mediapath.PrimaryFile(base, m), "primary file is still removed after a thumbnail failure")
	assert.Empty(t, store.RemovedDirs, "directory with a leftover thumbnail stays")
}

func TestExecute_SharedContentKeepsFiles(t *testing.T) {
	cat, store, m, th := seeded()
	twin := model.MediaRecord{MediaID: "def", Origin: "example.org", UploaderUserID: "@bob:example.org", Base64Hash: m.Base64Hash}
	cat.Media = append(cat.Media, twin)
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, []model.ThumbnailRecord{th}, false)

	assert.Equal(t, model.StateDeleted, out.State)
	assert.True(t, out.SharedFile)
	assert.Empty(t, store.Removed)
	assert.Len(t, cat.Media, 1)
}

func TestExecute_UnknownPathStillDeletesRows(t *testing.T) {
	m := model.MediaRecord{MediaID: "nohash", Origin: "matrix.example.org"}
	cat := &mock.Catalog{Media: []model.MediaRecord{m}}
	store := mock.NewMediaStore(base)
	ex := NewExecutor(cat, store)

	out := ex.Execute(context.Background(), m, nil, false)

	assert.Equal(t, model.StateDeleted, out.State)
	assert.Empty(t, cat.Media)
	assert.Empty(t, store.Removed)
}
