package port

import (
	"context"

	"github.com/fhuszti/cleanmedia-go/internal/model"
)

// RunReporter hands a finished run summary to an external sink.
type RunReporter interface {
	Publish(ctx context.Context, s *model.RunSummary) error
}
