package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linklite/linklite/internal/config"
	"github.com/linklite/linklite/internal/domain"
	"github.com/linklite/linklite/internal/geo"
	"github.com/linklite/linklite/internal/logger"
	"github.com/linklite/linklite/internal/repository"
	"github.com/linklite/linklite/pkg/detector"
	"github.com/linklite/linklite/pkg/generator"
	"golang.org/x/crypto/bcrypt"
)

// LinkCache is the optional read-through cache in front of the registry
// on the resolution path.
type LinkCache interface {
	Get(ctx context.Context, code string) (*domain.Link, error)
	Set(ctx context.Context, link *domain.Link, ttl time.Duration) error
	Invalidate(ctx context.Context, code string) error
}

// ShortenerService owns link creation, resolution and click recording.
type ShortenerService struct {
	repo  repository.LinkRepository
	cache LinkCache
	gen   *generator.Generator
	geo   geo.Lookup
	guard *LockoutGuard
	clock domain.Clock
	cfg   config.ShortenerConfig
}

func NewShortenerService(
	repo repository.LinkRepository,
	cache LinkCache,
	geoLookup geo.Lookup,
	clock domain.Clock,
	cfg config.ShortenerConfig,
) *ShortenerService {
	if geoLookup == nil {
		geoLookup = geo.NoopLookup{}
	} else {
		geoLookup = geo.Bounded(geoLookup, cfg.GeoTimeout)
	}

	return &ShortenerService{
		repo: repo,
		cache: cache,
		gen: generator.New(generator.Config{
			MinLength:    cfg.MinCodeLength,
			MaxLength:    cfg.MaxCodeLength,
			RandomLength: cfg.RandomCodeLength,
		}),
		geo:   geoLookup,
		guard: NewLockoutGuard(cfg.MaxPasswordAttempts, cfg.LockWindow, clock),
		clock: clock,
		cfg:   cfg,
	}
}

// CreateLink validates and normalizes the target, picks a code (custom
// alias verbatim, otherwise semantic with random fallback) and inserts
// the link. Alias collisions surface as domain.ErrDuplicateCode;
// generated-code collisions are retried internally.
func (s *ShortenerService) CreateLink(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	target, err := domain.NormalizeTargetURL(req.TargetURL)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	expiresAt := now.Add(s.cfg.DefaultExpiry)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	link := &domain.Link{
		TargetURL:    target,
		CustomAlias:  req.CustomAlias,
		OwnerID:      req.OwnerID,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if req.Preview != nil {
		link.Preview = *req.Preview
	}

	if req.CustomAlias != "" {
		link.Code = req.CustomAlias
		if err := s.repo.Create(ctx, link); err != nil {
			return nil, err
		}
		return link, nil
	}

	return s.createGenerated(ctx, link, target)
}

// createGenerated tries semantic candidates up to the configured budget,
// then switches permanently to random codes. Random retries are bounded
// only by the registry filling up, which 62^6 keeps out of reach.
func (s *ShortenerService) createGenerated(ctx context.Context, link *domain.Link, target string) (*domain.Link, error) {
	for attempt := 0; attempt < s.cfg.MaxSemanticAttempts; attempt++ {
		code, err := s.gen.Semantic(target)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link.Code = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrDuplicateCode) {
			return nil, err
		}
	}

	for {
		code, err := s.gen.Random()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link.Code = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrDuplicateCode) {
			return nil, err
		}
	}
}

// ResolveLink runs the resolution state machine for one request. The
// only branch with side effects is the successful one, which records
// exactly one click before returning; every failure branch is
// idempotent and records nothing.
func (s *ShortenerService) ResolveLink(ctx context.Context, code, password string, visitor domain.Visitor) (*domain.Resolution, error) {
	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	if link.Expired(now) {
		return nil, domain.ErrExpired
	}

	if !link.IsActive {
		return nil, domain.ErrDeactivated
	}

	if link.PasswordProtected() {
		if err := s.checkPassword(code, link.PasswordHash, password); err != nil {
			return nil, err
		}
	}

	click := s.buildClick(ctx, now, visitor)
	if err := s.repo.AppendClick(ctx, code, click); err != nil {
		return nil, fmt.Errorf("record click: %w", err)
	}

	resolution := &domain.Resolution{TargetURL: link.TargetURL}
	if detector.IsCrawler(visitor.UserAgent) && !link.Preview.IsZero() {
		preview := link.Preview
		resolution.Preview = &preview
	}

	return resolution, nil
}

func (s *ShortenerService) checkPassword(code, hash, password string) error {
	if remaining, locked := s.guard.Locked(code); locked {
		return &domain.LockedError{Remaining: remaining}
	}

	if password == "" {
		return domain.ErrPasswordRequired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if remaining, locked := s.guard.Fail(code); locked {
			return &domain.LockedError{Remaining: remaining}
		}
		return domain.ErrPasswordIncorrect
	}

	s.guard.Reset(code)
	return nil
}

// buildClick derives device, browser and OS from the user agent and
// resolves geo best effort. Geo failures never fail the click.
func (s *ShortenerService) buildClick(ctx context.Context, now time.Time, visitor domain.Visitor) domain.Click {
	referrer := visitor.Referrer
	if referrer == "" {
		referrer = "Direct"
	}

	location, err := s.geo.Lookup(ctx, visitor.SourceIP)
	if err != nil {
		logger.FromContext(ctx).Debug("geo lookup failed", "error", err)
		location = geo.UnknownLocation
	}

	return domain.Click{
		Timestamp:  now,
		Referrer:   referrer,
		UserAgent:  visitor.UserAgent,
		SourceIP:   visitor.SourceIP,
		DeviceType: detector.DeviceType(visitor.UserAgent),
		Browser:    detector.Browser(visitor.UserAgent),
		OS:         detector.OS(visitor.UserAgent),
		Country:    location.Country,
		City:       location.City,
	}
}

// GetLink returns link metadata without resolving or recording anything.
func (s *ShortenerService) GetLink(ctx context.Context, code string) (*domain.Link, error) {
	return s.repo.FindByCode(ctx, code)
}

// ListLinks returns recent links, optionally scoped to an owner.
func (s *ShortenerService) ListLinks(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error) {
	return s.repo.List(ctx, ownerID, limit)
}

// SetActive flips the activation flag and invalidates any cached copy
// so the change takes effect on the next resolution.
func (s *ShortenerService) SetActive(ctx context.Context, code string, active bool) error {
	if err := s.repo.SetActive(ctx, code, active); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, code); err != nil {
			logger.FromContext(ctx).Warn("cache invalidation failed", "code", code, "error", err)
		}
	}

	return nil
}

// lookup reads through the cache when one is wired. Cache entries are
// written with a TTL capped by the link's remaining lifetime.
func (s *ShortenerService) lookup(ctx context.Context, code string) (*domain.Link, error) {
	if s.cache != nil {
		if link, err := s.cache.Get(ctx, code); err == nil && link != nil {
			return link, nil
		}
	}

	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := s.cfg.CacheTTL
		if remaining := link.ExpiresAt.Sub(s.clock.Now()); remaining < ttl {
			ttl = remaining
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, link, ttl); err != nil {
				logger.FromContext(ctx).Debug("cache set failed", "code", code, "error", err)
			}
		}
	}

	return link, nil
}
