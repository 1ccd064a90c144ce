package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linklite/linklite/internal/domain"
)

const uniqueViolation = "23505"

type LinkRepository struct {
	db *pgxpool.Pool
}

func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create relies on the unique index on code for the atomic
// check-and-insert; a unique violation maps to domain.ErrDuplicateCode.
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (
			code, target_url, custom_alias, owner_id, password_hash,
			preview_title, preview_description, preview_image_url,
			is_active, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		link.Code,
		link.TargetURL,
		nullable(link.CustomAlias),
		nullable(link.OwnerID),
		nullable(link.PasswordHash),
		nullable(link.Preview.Title),
		nullable(link.Preview.Description),
		nullable(link.Preview.ImageURL),
		link.IsActive,
		link.CreatedAt,
		link.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `
		SELECT code, target_url, custom_alias, owner_id, password_hash,
			preview_title, preview_description, preview_image_url,
			click_count, is_active, created_at, expires_at
		FROM links
		WHERE code = $1
	`

	link, err := scanLink(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find link: %w", err)
	}

	return link, nil
}

// AppendClick inserts the click row and bumps the counter inside one
// transaction so the count and the history never diverge.
func (r *LinkRepository) AppendClick(ctx context.Context, code string, click domain.Click) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append click: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE links SET click_count = click_count + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("increment click count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO link_clicks (
			link_code, clicked_at, referrer, user_agent, source_ip,
			device_type, browser, os, country, city
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		code,
		click.Timestamp,
		click.Referrer,
		click.UserAgent,
		click.SourceIP,
		click.DeviceType,
		click.Browser,
		click.OS,
		click.Country,
		click.City,
	)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *LinkRepository) GetClicks(ctx context.Context, code string) ([]domain.Click, error) {
	if _, err := r.FindByCode(ctx, code); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT clicked_at, referrer, user_agent, source_ip,
			device_type, browser, os, country, city
		FROM link_clicks
		WHERE link_code = $1
		ORDER BY id
	`, code)
	if err != nil {
		return nil, fmt.Errorf("query clicks: %w", err)
	}
	defer rows.Close()

	return scanClicks(rows)
}

func (r *LinkRepository) SetActive(ctx context.Context, code string, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE links SET is_active = $2 WHERE code = $1`, code, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LinkRepository) List(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error) {
	query := `
		SELECT code, target_url, custom_alias, owner_id, password_hash,
			preview_title, preview_description, preview_image_url,
			click_count, is_active, created_at, expires_at
		FROM links
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC
	`
	args := []interface{}{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func (r *LinkRepository) ListWithClicks(ctx context.Context, ownerID string) ([]*domain.Link, error) {
	links, err := r.List(ctx, ownerID, 0)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]*domain.Link, len(links))
	for _, link := range links {
		byCode[link.Code] = link
	}

	rows, err := r.db.Query(ctx, `
		SELECT link_code, clicked_at, referrer, user_agent, source_ip,
			device_type, browser, os, country, city
		FROM link_clicks
		WHERE ($1 = '' OR link_code IN (SELECT code FROM links WHERE owner_id = $1))
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var click domain.Click
		err := rows.Scan(
			&code,
			&click.Timestamp,
			&click.Referrer,
			&click.UserAgent,
			&click.SourceIP,
			&click.DeviceType,
			&click.Browser,
			&click.OS,
			&click.Country,
			&click.City,
		)
		if err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		if link, ok := byCode[code]; ok {
			link.ClickHistory = append(link.ClickHistory, click)
		}
	}

	return links, rows.Err()
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	var link domain.Link
	var customAlias, ownerID, passwordHash *string
	var previewTitle, previewDescription, previewImageURL *string

	err := row.Scan(
		&link.Code,
		&link.TargetURL,
		&customAlias,
		&ownerID,
		&passwordHash,
		&previewTitle,
		&previewDescription,
		&previewImageURL,
		&link.ClickCount,
		&link.IsActive,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	link.CustomAlias = deref(customAlias)
	link.OwnerID = deref(ownerID)
	link.PasswordHash = deref(passwordHash)
	link.Preview = domain.Preview{
		Title:       deref(previewTitle),
		Description: deref(previewDescription),
		ImageURL:    deref(previewImageURL),
	}

	return &link, nil
}

func scanClicks(rows pgx.Rows) ([]domain.Click, error) {
	var clicks []domain.Click
	for rows.Next() {
		var click domain.Click
		err := rows.Scan(
			&click.Timestamp,
			&click.Referrer,
			&click.UserAgent,
			&click.SourceIP,
			&click.DeviceType,
			&click.Browser,
			&click.OS,
			&click.Country,
			&click.City,
		)
		if err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		clicks = append(clicks, click)
	}
	return clicks, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
