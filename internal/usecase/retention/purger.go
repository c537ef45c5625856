package retention

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
	"github.com/fhuszti/cleanmedia-go/internal/runctx"
	"github.com/fhuszti/cleanmedia-go/internal/uuid"
)

// Purger sequences selection, policy, consistency check and deletion for one
// invocation.
type Purger struct {
	catalog  port.CatalogReader
	executor *Executor
	checker  *Checker
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewPurger wires a Purger on top of an open catalog and media store.
func NewPurger(catalog port.Catalog, store port.MediaStore) *Purger {
	return &Purger{
		catalog:  catalog,
		executor: NewExecutor(catalog, store),
		checker:  NewChecker(catalog, store),
		now:      time.Now,
		newID:    uuid.NewUUID,
	}
}

// Run executes one purge. The summary is returned even when the run aborts.
// The only errors are invalid parameters and ErrCatalogUnavailable; every
// per-item problem is recorded in the summary instead.
func (p *Purger) Run(ctx context.Context, params Params) (*model.RunSummary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := p.now()
	s := &model.RunSummary{
		RunID:     p.newID(),
		Mode:      string(params.Mode),
		DryRun:    params.DryRun,
		StartedAt: start.UTC(),
	}
	ctx = runctx.WithRun(ctx, s.RunID, s.Mode)
	defer func() { s.Duration = p.now().Sub(start) }()

	candidates, err := p.selectCandidates(ctx, params, s, start)
	if err != nil {
		return s, err
	}
	s.Candidates = len(candidates)

	for _, c := range candidates {
		if err := p.process(ctx, c, params, s, start); err != nil {
			return s, err
		}
	}

	if params.DryRun {
		logger.Infof(ctx, "%d files would have been deleted during the run.", s.DryRunReported)
	} else {
		logger.Infof(ctx, "Deleted %d files during the run.", s.Deleted)
	}
	if s.Failed > 0 || len(s.FileErrors) > 0 {
		logger.Warnf(ctx, "%d media could not be deleted and %d files could not be removed", s.Failed, len(s.FileErrors))
	}
	return s, nil
}

func (p *Purger) selectCandidates(ctx context.Context, params Params, s *model.RunSummary, now time.Time) ([]model.MediaRecord, error) {
	switch params.Mode {
	case ModeMediaID:
		key := params.TargetKey()
		logger.Infof(ctx, "attempting to delete media %q", params.MediaID)
		rec, err := p.catalog.FetchByMediaID(ctx, key)
		if errors.Is(err, ErrRecordNotFound) {
			p.notFound(ctx, s, fmt.Sprintf("media %q not found", params.MediaID))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		logger.Infof(ctx, "found media with id %q", rec.MediaID)
		return []model.MediaRecord{*rec}, nil

	case ModeUserID:
		logger.Infof(ctx, "attempting to delete media by user %q", params.UserID)
		recs, err := p.catalog.FetchByUserID(ctx, params.UserID)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			p.notFound(ctx, s, fmt.Sprintf("no media found for user %q", params.UserID))
		}
		return recs, nil
	}

	inconsistencies, err := p.checker.Check(ctx, params.CheckFiles)
	if err != nil {
		return nil, err
	}
	s.Inconsistencies = inconsistencies

	cutoff := Cutoff(params, now)
	logger.Infof(ctx, "deleting remote media older than %s", cutoff.Format(time.RFC3339))
	recs, err := p.catalog.FetchRemoteCandidates(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if params.IncludeLocal {
		local, err := p.catalog.FetchLocalCandidates(ctx, cutoff)
		if err != nil {
			return nil, err
		}
		recs = append(recs, local...)
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		})
	}
	return recs, nil
}

func (p *Purger) process(ctx context.Context, c model.MediaRecord, params Params, s *model.RunSummary, now time.Time) error {
	decision, reason := decide(c, params, now)
	if decision == Keep {
		logger.Debugf(ctx, "keeping media %s: %s", c.Key(), reason)
		s.Count(model.StateSkipped)
		return nil
	}

	thumbnails, err := p.catalog.FetchThumbnailsFor(ctx, c.Key())
	if err != nil {
		return err
	}

	out := p.executor.Execute(ctx, c, thumbnails, params.DryRun)
	s.Count(out.State)
	if out.SharedFile {
		s.SharedFiles++
	}
	if out.Err != nil {
		s.Failures = append(s.Failures, model.ItemFailure{
			MediaID: c.MediaID,
			Origin:  c.Origin,
			Error:   out.Err.Error(),
		})
	}
	for _, fe := range out.FileErrors {
		s.FileErrors = append(s.FileErrors, model.ItemFailure{
			MediaID: c.MediaID,
			Origin:  c.Origin,
			Path:    fe.Path,
			Error:   fe.Err.Error(),
		})
	}
	return nil
}

func (p *Purger) notFound(ctx context.Context, s *model.RunSummary, note string) {
	logger.Info(ctx, note)
	s.NotFound = true
	s.Notes = append(s.Notes, note)
}
