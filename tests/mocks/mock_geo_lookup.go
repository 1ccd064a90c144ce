package mocks

import (
	"context"

	"github.com/linklite/linklite/internal/geo"
	"github.com/stretchr/testify/mock"
)

type MockGeoLookup struct {
	mock.Mock
}

func (m *MockGeoLookup) Lookup(ctx context.Context, ip string) (geo.Location, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(geo.Location), args.Error(1)
}
