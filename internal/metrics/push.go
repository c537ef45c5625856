// Package metrics pushes the outcome of a run to a Prometheus Pushgateway.
// cleanmedia runs from cron and exits, so there is nothing to scrape.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/model"
)

const (
	namespace = "cleanmedia"
	job       = "cleanmedia"
)

// Pusher sends run gauges to a Pushgateway.
type Pusher struct {
	url string
}

func NewPusher(url string) *Pusher {
	return &Pusher{url: url}
}

// Push replaces the metrics of the run's mode group.
func (p *Pusher) Push(ctx context.Context, s *model.RunSummary) error {
	logger.Debugf(ctx, "pushing metrics of run %s to %s...", s.RunID, p.url)

	pusher := push.New(p.url, job).
		Gatherer(registry(s)).
		Grouping("mode", s.Mode)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushgateway push failed: %w", err)
	}
	return nil
}

func registry(s *model.RunSummary) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("media_deleted", "Media removed by the last run.", float64(s.Deleted))
	gauge("media_skipped", "Candidates kept by the retention policy in the last run.", float64(s.Skipped))
	gauge("media_failed", "Media whose deletion failed in the last run.", float64(s.Failed))
	gauge("media_dry_run", "Media a dry run would have removed.", float64(s.DryRunReported))
	gauge("inconsistencies", "Catalog and filesystem inconsistencies found by the last run.", float64(len(s.Inconsistencies)))
	gauge("last_run_duration_seconds", "Wall time of the last run.", s.Duration.Seconds())
	gauge("last_run_timestamp_seconds", "Start time of the last run.", float64(s.StartedAt.Unix()))
	return reg
}
