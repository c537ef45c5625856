package runctx

import (
	"context"

	"github.com/fhuszti/cleanmedia-go/internal/uuid"
)

type ctxKey string

const (
	RunIDKey ctxKey = "runID"
	ModeKey  ctxKey = "mode"
)

// WithRun tags ctx with the id and selection mode of the current purge run.
func WithRun(ctx context.Context, id uuid.UUID, mode string) context.Context {
	ctx = context.WithValue(ctx, RunIDKey, id)
	return context.WithValue(ctx, ModeKey, mode)
}

func RunIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RunIDKey).(uuid.UUID)
	return id, ok
}

func ModeFromContext(ctx context.Context) (string, bool) {
	mode, ok := ctx.Value(ModeKey).(string)
	return mode, ok
}
