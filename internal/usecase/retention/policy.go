package retention

import (
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/model"
)

// Decision is the verdict of the retention policy for one record.
type Decision int

const (
	Keep Decision = iota
	Delete
)

func (d Decision) String() string {
	if d == Delete {
		return "delete"
	}
	return "keep"
}

const day = 24 * time.Hour

// AgeDays is the age of a record in whole days, rounded down.
func AgeDays(createdAt, now time.Time) int {
	return int(now.Sub(createdAt) / day)
}

// Decide applies the retention rules to r. It has no side effects.
func Decide(r model.MediaRecord, p Params, now time.Time) Decision {
	d, _ := decide(r, p, now)
	return d
}

func decide(r model.MediaRecord, p Params, now time.Time) (Decision, string) {
	switch p.Mode {
	case ModeMediaID:
		// naming the exact media overrides avatar protection
		if r.IsAvatar && !targets(p, r) {
			return Keep, "avatar"
		}
		return Delete, "explicit media target"
	case ModeUserID:
		if r.IsAvatar {
			return Keep, "avatar"
		}
		return Delete, "explicit user target"
	}

	if r.IsAvatar {
		return Keep, "avatar"
	}
	if r.IsLocal() && !p.IncludeLocal {
		return Keep, "local media excluded"
	}
	// an age equal to the limit is kept
	if AgeDays(r.CreatedAt, now) <= p.MaxAgeDays {
		return Keep, "within retention window"
	}
	return Delete, "older than retention window"
}

func targets(p Params, r model.MediaRecord) bool {
	key := p.TargetKey()
	if key.MediaID != r.MediaID {
		return false
	}
	return key.Origin == "" || key.Origin == r.Origin
}

// Cutoff is the catalog prefilter for bulk modes: records created after it
// can never be deleted by the age policy.
func Cutoff(p Params, now time.Time) time.Time {
	return now.Add(-time.Duration(p.MaxAgeDays) * day)
}
