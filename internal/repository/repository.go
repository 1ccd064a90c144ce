// Package repository defines the link registry contract shared by the
// in-memory and Postgres implementations.
package repository

import (
	"context"

	"github.com/linklite/linklite/internal/domain"
)

// LinkRepository is the authoritative store of code -> link mappings.
// All implementations must be safe for concurrent use.
type LinkRepository interface {
	// Create atomically checks code uniqueness and inserts the link.
	// Returns domain.ErrDuplicateCode if the code is taken; the check
	// and the insert are a single operation, never check-then-insert.
	Create(ctx context.Context, link *domain.Link) error

	// FindByCode returns the link's metadata without its click history.
	// It has no side effects; expiry and activation are evaluated by
	// the caller. Returns domain.ErrNotFound for unknown codes.
	FindByCode(ctx context.Context, code string) (*domain.Link, error)

	// AppendClick appends one click to the link's history and
	// increments its counter in the same atomic step, so readers never
	// observe one without the other.
	AppendClick(ctx context.Context, code string, click domain.Click) error

	// GetClicks returns the link's click history in append order.
	GetClicks(ctx context.Context, code string) ([]domain.Click, error)

	// SetActive flips the activation flag. Codes are never recycled;
	// a deactivated link keeps holding its code.
	SetActive(ctx context.Context, code string, active bool) error

	// List returns link metadata (no histories) sorted by creation
	// time descending, optionally filtered by owner. A limit of 0
	// means no limit.
	List(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error)

	// ListWithClicks returns links including their full click
	// histories, for aggregate analytics. Consistency across links is
	// a snapshot per link, not across the whole set.
	ListWithClicks(ctx context.Context, ownerID string) ([]*domain.Link, error)
}
