// Package memory implements the link registry over a mutex-guarded map.
// It backs the test suites and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/linklite/linklite/internal/domain"
)

type LinkRepository struct {
	mu    sync.RWMutex
	links map[string]*domain.Link
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		links: make(map[string]*domain.Link),
	}
}

// Create holds the write lock across the existence check and the
// insert, which makes the check-and-insert atomic: of N concurrent
// creations with one alias, exactly one wins.
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Code]; exists {
		return domain.ErrDuplicateCode
	}

	r.links[link.Code] = link.Clone()
	return nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[code]
	if !exists {
		return nil, domain.ErrNotFound
	}

	clone := link.Clone()
	clone.ClickHistory = nil
	return clone, nil
}

// AppendClick grows the history and bumps the counter under one lock
// acquisition, preserving clickCount == len(clickHistory) at every
// observable point.
func (r *LinkRepository) AppendClick(ctx context.Context, code string, click domain.Click) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[code]
	if !exists {
		return domain.ErrNotFound
	}

	link.ClickHistory = append(link.ClickHistory, click)
	link.ClickCount++
	return nil
}

func (r *LinkRepository) GetClicks(ctx context.Context, code string) ([]domain.Click, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[code]
	if !exists {
		return nil, domain.ErrNotFound
	}

	clicks := make([]domain.Click, len(link.ClickHistory))
	copy(clicks, link.ClickHistory)
	return clicks, nil
}

func (r *LinkRepository) SetActive(ctx context.Context, code string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[code]
	if !exists {
		return domain.ErrNotFound
	}

	link.IsActive = active
	return nil
}

func (r *LinkRepository) List(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*domain.Link
	for _, link := range r.links {
		if ownerID != "" && link.OwnerID != ownerID {
			continue
		}
		clone := link.Clone()
		clone.ClickHistory = nil
		links = append(links, clone)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}

	return links, nil
}

func (r *LinkRepository) ListWithClicks(ctx context.Context, ownerID string) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*domain.Link
	for _, link := range r.links {
		if ownerID != "" && link.OwnerID != ownerID {
			continue
		}
		links = append(links, link.Clone())
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}
