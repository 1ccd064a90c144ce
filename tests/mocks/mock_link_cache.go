package mocks

import (
	"context"
	"time"

	"github.com/linklite/linklite/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLinkCache struct {
	mock.Mock
}

func (m *MockLinkCache) Get(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkCache) Set(ctx context.Context, link *domain.Link, ttl time.Duration) error {
	args := m.Called(ctx, link, ttl)
	return args.Error(0)
}

func (m *MockLinkCache) Invalidate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
