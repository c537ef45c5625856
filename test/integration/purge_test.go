package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/cleanmedia-go/internal/migration"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/report"
	"github.com/fhuszti/cleanmedia-go/internal/repository/dendrite"
	"github.com/fhuszti/cleanmedia-go/internal/storage"
	"github.com/fhuszti/cleanmedia-go/internal/usecase/retention"
	"github.com/fhuszti/cleanmedia-go/test/testutil"
)

type seededMedia struct {
	id, origin, user, hash string
	age                    int
}

func seedHomeserver(t *testing.T, db *sql.DB, tree *testutil.MediaTree, media []seededMedia) {
	t.Helper()
	now := time.Now()
	for _, m := range media {
		created := now.Add(-time.Duration(m.age) * 24 * time.Hour).UnixMilli()
		if _, err := db.Exec(
			`INSERT INTO mediaapi_media_repository (media_id, media_origin, creation_ts, user_id, base64hash) VALUES ($1, $2, $3, $4, $5)`,
			m.id, m.origin, created, m.user, m.hash,
		); err != nil {
			t.Fatalf("insert media %s: %v", m.id, err)
		}
		if _, err := db.Exec(
			`INSERT INTO mediaapi_thumbnail (media_id, media_origin, width, height, resize_method) VALUES ($1, $2, 32, 32, 'crop')`,
			m.id, m.origin,
		); err != nil {
			t.Fatalf("insert thumbnail %s: %v", m.id, err)
		}
		tree.Put(t, m.hash, "file")
		tree.Put(t, m.hash, "thumbnail-32x32-crop")
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestPurgeIntegration_Postgres(t *testing.T) {
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	defer testDB.Cleanup()
	db := testDB.DB

	if err := migration.MigrateUp(db, "pgx"); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	tree := testutil.NewMediaTree(t)
	seedHomeserver(t, db, tree, []seededMedia{
		{id: "oldremote", origin: "remote.org", hash: "aaaaaa", age: 40},
		{id: "samebytes", origin: "other.org", hash: "bbbbbb", age: 45},
		{id: "samebytes2", origin: "other.org", hash: "bbbbbb", age: 2},
		{id: "fresh", origin: "remote.org", hash: "cccccc", age: 1},
		{id: "mine", origin: "example.org", user: "@alice:example.org", hash: "dddddd", age: 60},
		{id: "face", origin: "example.org", user: "@alice:example.org", hash: "eeeeee", age: 90},
	})
	if _, err := db.Exec(`INSERT INTO userapi_profiles (localpart, server_name, avatar_url) VALUES ('alice', 'example.org', 'mxc://example.org/face')`); err != nil {
		t.Fatalf("insert profile: %v", err)
	}
	// a thumbnail whose media row has already gone
	if _, err := db.Exec(`INSERT INTO mediaapi_thumbnail (media_id, media_origin, width, height, resize_method) VALUES ('ghost', 'remote.org', 96, 96, 'scale')`); err != nil {
		t.Fatalf("insert orphan thumbnail: %v", err)
	}

	store, err := storage.NewFSStorage(context.Background(), tree.Base)
	if err != nil {
		t.Fatalf("NewFSStorage: %v", err)
	}
	purger := retention.NewPurger(dendrite.NewCatalog(db), store)

	s, err := purger.Run(context.Background(), retention.Params{Mode: retention.ModeBulkLocal, MaxAgeDays: 30})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s.Candidates != 3 || s.Deleted != 3 || s.Skipped != 0 || s.Failed != 0 {
		t.Errorf("unexpected counters %+v", s)
	}
	if s.SharedFiles != 1 {
		t.Errorf("SharedFiles = %d; want 1", s.SharedFiles)
	}
	if len(s.Inconsistencies) != 1 || s.Inconsistencies[0].Kind != model.OrphanThumbnail || s.Inconsistencies[0].MediaID != "ghost" {
		t.Errorf("unexpected inconsistencies %+v", s.Inconsistencies)
	}

	for _, hash := range []string{"aaaaaa", "dddddd"} {
		if tree.Exists(tree.Dir(hash)) {
			t.Errorf("directory of %s should be gone", hash)
		}
	}
	for _, hash := range []string{"bbbbbb", "cccccc", "eeeeee"} {
		if !tree.Exists(tree.Dir(hash) + "/file") {
			t.Errorf("file of %s should be kept", hash)
		}
	}
	if got := countRows(t, db, "mediaapi_media_repository"); got != 3 {
		t.Errorf("media rows left = %d; want 3", got)
	}
	// three kept media plus the orphan
	if got := countRows(t, db, "mediaapi_thumbnail"); got != 4 {
		t.Errorf("thumbnail rows left = %d; want 4", got)
	}

	// a second run has nothing left to delete
	again, err := purger.Run(context.Background(), retention.Params{Mode: retention.ModeBulkLocal, MaxAgeDays: 30})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if again.Deleted != 0 {
		t.Errorf("second run deleted %d media", again.Deleted)
	}

	pub := report.NewRedisPublisher(os.Getenv("TEST_REDIS_ADDR"), "")
	defer func() { _ = pub.Close() }()
	if err := pub.Publish(context.Background(), s); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("TEST_REDIS_ADDR")})
	defer func() { _ = rdb.Close() }()
	raw, err := rdb.Get(context.Background(), report.LastRunKey).Result()
	if err != nil {
		t.Fatalf("read last run: %v", err)
	}
	var published model.RunSummary
	if err := json.Unmarshal([]byte(raw), &published); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if published.RunID != s.RunID || published.Deleted != 3 {
		t.Errorf("published %+v; want run %s with 3 deletions", published, s.RunID)
	}
}

func TestPurgeIntegration_MediaID(t *testing.T) {
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	defer testDB.Cleanup()
	db := testDB.DB

	if err := migration.MigrateUp(db, "pgx"); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	tree := testutil.NewMediaTree(t)
	seedHomeserver(t, db, tree, []seededMedia{
		{id: "fresh", origin: "remote.org", hash: "ffffff", age: 0},
	})

	store, err := storage.NewFSStorage(context.Background(), tree.Base)
	if err != nil {
		t.Fatalf("NewFSStorage: %v", err)
	}
	purger := retention.NewPurger(dendrite.NewCatalog(db), store)

	s, err := purger.Run(context.Background(), retention.Params{Mode: retention.ModeMediaID, MediaID: "mxc://remote.org/fresh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Deleted != 1 || tree.Exists(tree.Dir("ffffff")) {
		t.Errorf("targeted media should be gone: %+v", s)
	}

	s, err = purger.Run(context.Background(), retention.Params{Mode: retention.ModeMediaID, MediaID: "fresh"})
	if err != nil {
		t.Fatalf("Run for a vanished media failed: %v", err)
	}
	if !s.NotFound {
		t.Errorf("expected NotFound, got %+v", s)
	}
}
