package mocks

import (
	"context"

	"github.com/linklite/linklite/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) AppendClick(ctx context.Context, code string, click domain.Click) error {
	args := m.Called(ctx, code, click)
	return args.Error(0)
}

func (m *MockLinkRepository) GetClicks(ctx context.Context, code string) ([]domain.Click, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Click), args.Error(1)
}

func (m *MockLinkRepository) SetActive(ctx context.Context, code string, active bool) error {
	args := m.Called(ctx, code, active)
	return args.Error(0)
}

func (m *MockLinkRepository) List(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) ListWithClicks(ctx context.Context, ownerID string) ([]*domain.Link, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}
