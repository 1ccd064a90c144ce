package service

import (
	"context"

	"github.com/linklite/linklite/internal/analytics"
	"github.com/linklite/linklite/internal/domain"
	"github.com/linklite/linklite/internal/repository"
)

// AnalyticsService assembles reporting views from the registry. It
// reads snapshots and never mutates link state.
type AnalyticsService struct {
	repo  repository.LinkRepository
	clock domain.Clock
}

func NewAnalyticsService(repo repository.LinkRepository, clock domain.Clock) *AnalyticsService {
	return &AnalyticsService{repo: repo, clock: clock}
}

// LinkReport returns per-link analytics: daily series plus referrer,
// device, browser and OS breakdowns.
func (s *AnalyticsService) LinkReport(ctx context.Context, code string) (*analytics.LinkReport, error) {
	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	clicks, err := s.repo.GetClicks(ctx, code)
	if err != nil {
		return nil, err
	}
	link.ClickHistory = clicks

	return analytics.ForLink(link), nil
}

// Overview returns the dashboard rollup, optionally scoped to one
// owner's links. When allowSample is set and no clicks exist it serves
// the labeled sample dataset.
func (s *AnalyticsService) Overview(ctx context.Context, ownerID string, allowSample bool) (*analytics.OverviewReport, error) {
	links, err := s.repo.ListWithClicks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analytics.Overview(links, allowSample), nil
}

// Realtime returns the trailing-hour series and the busiest links,
// optionally scoped to one owner.
func (s *AnalyticsService) Realtime(ctx context.Context, ownerID string) (*analytics.RealtimeReport, error) {
	links, err := s.repo.ListWithClicks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analytics.Realtime(links, s.clock.Now()), nil
}

// Timeframe returns a windowed series bucketed by the given period,
// optionally scoped to one owner.
func (s *AnalyticsService) Timeframe(ctx context.Context, ownerID string, period analytics.Period, count int) (*analytics.TimeframeReport, error) {
	links, err := s.repo.ListWithClicks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analytics.Timeframe(links, period, count, s.clock.Now()), nil
}

// Geo returns the country and city rollups, optionally scoped to one
// owner.
func (s *AnalyticsService) Geo(ctx context.Context, ownerID string) (*analytics.GeoReport, error) {
	links, err := s.repo.ListWithClicks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analytics.Geo(links), nil
}
