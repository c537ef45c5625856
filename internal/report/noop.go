package report

import (
	"context"

	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

type NoopPublisher struct{}

// compile-time check: *NoopPublisher must satisfy port.RunReporter
var _ port.RunReporter = (*NoopPublisher)(nil)

func NewNoop() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) Publish(ctx context.Context, s *model.RunSummary) error { return nil }
