package model

import (
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/uuid"
)

// InconsistencyKind names the category of a detected catalog/filesystem
// mismatch. New kinds may be added without changing Inconsistency.
type InconsistencyKind string

const (
	// OrphanThumbnail is a thumbnail row with no matching media row.
	OrphanThumbnail InconsistencyKind = "orphan_thumbnail"
	// MissingFile is a media row whose primary file is absent on disk.
	MissingFile InconsistencyKind = "missing_file"
	// OrphanFile is a hash directory on disk that no media row references.
	OrphanFile InconsistencyKind = "orphan_file"
)

// Inconsistency is reported, never repaired.
type Inconsistency struct {
	Kind    InconsistencyKind `json:"kind"`
	MediaID string            `json:"media_id,omitempty"`
	Origin  string            `json:"origin_server,omitempty"`
	// Path is the affected filesystem path. It is empty for orphan
	// thumbnails, whose location depends on the vanished media row.
	Path      string `json:"path,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ItemState is the terminal state of one candidate within a run.
type ItemState string

const (
	StateSkipped ItemState = "skipped"
	StateDeleted ItemState = "deleted"
	StateDryRun  ItemState = "dry_run"
	StateFailed  ItemState = "failed"
)

// ItemFailure records why a candidate ended in StateFailed, or which file
// could not be unlinked for a candidate that was otherwise deleted.
type ItemFailure struct {
	MediaID string `json:"media_id"`
	Origin  string `json:"origin_server"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error"`
}

// RunSummary is the structured outcome of one purge invocation.
type RunSummary struct {
	RunID           uuid.UUID       `json:"run_id"`
	Mode            string          `json:"mode"`
	DryRun          bool            `json:"dry_run"`
	StartedAt       time.Time       `json:"started_at"`
	Duration        time.Duration   `json:"duration_ns"`
	Candidates      int             `json:"candidates"`
	Deleted         int             `json:"deleted"`
	Skipped         int             `json:"skipped"`
	DryRunReported  int             `json:"dry_run_reported"`
	Failed          int             `json:"failed"`
	SharedFiles     int             `json:"shared_files"`
	NotFound        bool            `json:"not_found"`
	Notes           []string        `json:"notes,omitempty"`
	Failures        []ItemFailure   `json:"failures,omitempty"`
	FileErrors      []ItemFailure   `json:"file_errors,omitempty"`
	Inconsistencies []Inconsistency `json:"inconsistencies,omitempty"`
}

// Count bumps the counter matching state.
func (s *RunSummary) Count(state ItemState) {
	switch state {
	case StateSkipped:
		s.Skipped++
	case StateDeleted:
		s.Deleted++
	case StateDryRun:
		s.DryRunReported++
	case StateFailed:
		s.Failed++
	}
}
