// Package fires exposes the query interface consumed by the API and CLI.
package fires

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/firewatch/internal/model"
	"github.com/sells-group/firewatch/internal/refresh"
	"github.com/sells-group/firewatch/internal/region"
	"github.com/sells-group/firewatch/internal/summary"
)

// Service ties the refresh, ranking and region engines together. Read paths
// that promise fresh data refresh synchronously before answering.
type Service struct {
	refresher  *refresh.Refresher
	summarizer *summary.Summarizer
	regions    *region.Engine

	group singleflight.Group
}

// NewService creates a Service from its engines.
func NewService(r *refresh.Refresher, s *summary.Summarizer, re *region.Engine) *Service {
	return &Service{
		refresher:  r,
		summarizer: s,
		regions:    re,
	}
}

// Refresh re-ingests the source file. Concurrent callers share a single
// in-flight refresh and all receive its result. The shared refresh ignores
// caller cancellation.
func (s *Service) Refresh(ctx context.Context) (refresh.Result, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		return s.refresher.Refresh(shared)
	})
	if err != nil {
		return refresh.Result{}, err
	}
	return v.(refresh.Result), nil
}

// Summarize refreshes and returns the ranked digest of the limit brightest
// detections.
func (s *Service) Summarize(ctx context.Context, limit int) (string, error) {
	if _, err := s.Refresh(ctx); err != nil {
		return "", err
	}
	return s.summarizer.Summarize(ctx, limit)
}

// Snapshot refreshes and returns up to limit records by descending brightness.
func (s *Service) Snapshot(ctx context.Context, limit int) ([]model.FireRecord, error) {
	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.summarizer.Snapshot(ctx, limit)
}

// SummarizeRegion describes the named region against the current snapshot.
// Boundary failures are returned as errors; see RegionMessage.
func (s *Service) SummarizeRegion(ctx context.Context, name string) (string, error) {
	return s.regions.Summarize(ctx, name)
}

// RegionStats returns aggregates for every region.
func (s *Service) RegionStats(ctx context.Context) ([]model.RegionStats, error) {
	return s.regions.Stats(ctx)
}

// RegionNames lists the regions known to the boundary file.
func (s *Service) RegionNames() ([]string, error) {
	return s.regions.Names()
}

// RegionMessage converts a boundary failure into user-facing text.
func (s *Service) RegionMessage(err error) (string, bool) {
	return s.regions.Message(err)
}

// IsSourceNotFound reports whether err means the detection source is missing.
func IsSourceNotFound(err error) bool {
	return eris.Is(err, refresh.ErrSourceNotFound)
}
