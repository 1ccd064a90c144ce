package mocks

import (
	"context"

	"github.com/linklite/linklite/internal/analytics"
	"github.com/stretchr/testify/mock"
)

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) LinkReport(ctx context.Context, code string) (*analytics.LinkReport, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.LinkReport), args.Error(1)
}

func (m *MockAnalyticsService) Overview(ctx context.Context, ownerID string, allowSample bool) (*analytics.OverviewReport, error) {
	args := m.Called(ctx, ownerID, allowSample)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.OverviewReport), args.Error(1)
}

func (m *MockAnalyticsService) Realtime(ctx context.Context, ownerID string) (*analytics.RealtimeReport, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.RealtimeReport), args.Error(1)
}

func (m *MockAnalyticsService) Timeframe(ctx context.Context, ownerID string, period analytics.Period, count int) (*analytics.TimeframeReport, error) {
	args := m.Called(ctx, ownerID, period, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.TimeframeReport), args.Error(1)
}

func (m *MockAnalyticsService) Geo(ctx context.Context, ownerID string) (*analytics.GeoReport, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.GeoReport), args.Error(1)
}
