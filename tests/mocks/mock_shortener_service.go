package mocks

import (
	"context"

	"github.com/linklite/linklite/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShortenerService struct {
	mock.Mock
}

func (m *MockShortenerService) CreateLink(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockShortenerService) ResolveLink(ctx context.Context, code, password string, visitor domain.Visitor) (*domain.Resolution, error) {
	args := m.Called(ctx, code, password, visitor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resolution), args.Error(1)
}

func (m *MockShortenerService) GetLink(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockShortenerService) ListLinks(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

func (m *MockShortenerService) SetActive(ctx context.Context, code string, active bool) error {
	args := m.Called(ctx, code, active)
	return args.Error(0)
}
