package retention

import (
	"fmt"
	"strings"

	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/validation"
)

// Mode selects which media a run considers.
type Mode string

const (
	ModeBulkRemote Mode = "bulk-remote"
	ModeBulkLocal  Mode = "bulk-local"
	ModeMediaID    Mode = "media-id"
	ModeUserID     Mode = "user-id"
)

// DefaultMaxAgeDays matches the historical cleanmedia default.
const DefaultMaxAgeDays = 30

// Params is the validated input of one purge run. Exactly one mode is active.
type Params struct {
	Mode         Mode `json:"mode" validate:"required,oneof=bulk-remote bulk-local media-id user-id"`
	MaxAgeDays   int  `json:"max_age_days" validate:"gte=0"`
	IncludeLocal bool `json:"include_local"`
	DryRun       bool `json:"dry_run"`
	// CheckFiles adds the filesystem cross-checks to the consistency pass.
	CheckFiles bool `json:"check_files"`
	// MediaID is a bare media id or an mxc://origin/id URI.
	MediaID string `json:"media_id" validate:"required_if=Mode media-id,excluded_unless=Mode media-id"`
	UserID  string `json:"user_id" validate:"required_if=Mode user-id,excluded_unless=Mode user-id,mxid"`
}

// Validate normalises p in place and checks it.
func (p *Params) Validate() error {
	if p.Mode == ModeBulkLocal {
		p.IncludeLocal = true
	}
	if err := validation.ValidateStruct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, validation.ErrorsToString(err))
	}
	return nil
}

// IsBulk reports whether the age policy drives selection.
func (p Params) IsBulk() bool {
	return p.Mode == ModeBulkRemote || p.Mode == ModeBulkLocal
}

// TargetKey turns MediaID into a catalog key. A bare id leaves Origin empty.
func (p Params) TargetKey() model.MediaKey {
	id := strings.TrimPrefix(p.MediaID, "mxc://")
	if id != p.MediaID {
		if i := strings.LastIndex(id, "/"); i >= 0 {
			return model.MediaKey{MediaID: id[i+1:], Origin: id[:i]}
		}
	}
	return model.MediaKey{MediaID: p.MediaID}
}
