package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linklite/linklite/internal/config"
	"github.com/linklite/linklite/internal/domain"
	"github.com/linklite/linklite/internal/geo"
	"github.com/linklite/linklite/internal/repository/memory"
	"github.com/linklite/linklite/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	crawlerUA = "Twitterbot/1.0"
)

func testConfig() config.ShortenerConfig {
	return config.ShortenerConfig{
		MinCodeLength:       5,
		MaxCodeLength:       10,
		RandomCodeLength:    6,
		MaxSemanticAttempts: 5,
		DefaultExpiry:       30 * 24 * time.Hour,
		MaxPasswordAttempts: 5,
		LockWindow:          30 * time.Minute,
		GeoTimeout:          500 * time.Millisecond,
		CacheTTL:            24 * time.Hour,
	}
}

func newTestService(clock domain.Clock) (*ShortenerService, *memory.LinkRepository) {
	repo := memory.NewLinkRepository()
	return NewShortenerService(repo, nil, nil, clock, testConfig()), repo
}

func TestCreateLink_GeneratedCode(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	svc, _ := newTestService(clock)

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, link.Code)
	assert.Equal(t, "https://example.com", link.TargetURL)
	assert.True(t, link.IsActive)
	assert.Equal(t, clock.Now().Add(30*24*time.Hour), link.ExpiresAt)
}

func TestCreateLink_NormalizesBareDomain(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.TargetURL)
}

func TestCreateLink_InvalidTarget(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))

	_, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "not a url",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestCreateLink_CustomAlias(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL:   "https://example.com",
		CustomAlias: "my-link",
	})

	require.NoError(t, err)
	assert.Equal(t, "my-link", link.Code)
}

func TestCreateLink_CustomAliasTaken(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	_, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL:   "https://example.com",
		CustomAlias: "my-link",
	})
	require.NoError(t, err)

	_, err = svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL:   "https://other.com",
		CustomAlias: "my-link",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreateLink_CustomExpiry(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))
	expiresAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		ExpiresAt: &expiresAt,
	})

	require.NoError(t, err)
	assert.Equal(t, expiresAt, link.ExpiresAt)
}

func TestCreateLink_HashesPassword(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})

	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", link.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte("hunter22")))
}

func TestCreateLink_SemanticCollisionsFallBackToRandom(t *testing.T) {
	mockRepo := new(mocks.MockLinkRepository)
	svc := NewShortenerService(mockRepo, nil, nil, domain.NewMockClock(time.Now()), testConfig())

	// Five semantic candidates collide, then the first random one lands.
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(link *domain.Link) bool {
		return len(link.Code) > 6
	})).Return(domain.ErrDuplicateCode).Times(5)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(link *domain.Link) bool {
		return len(link.Code) == 6
	})).Return(nil).Once()

	link, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "https://www.github.com/golang/tools",
	})

	require.NoError(t, err)
	assert.Len(t, link.Code, 6)
	mockRepo.AssertExpectations(t)
}

func TestCreateLink_RepositoryErrorStopsRetries(t *testing.T) {
	mockRepo := new(mocks.MockLinkRepository)
	svc := NewShortenerService(mockRepo, nil, nil, domain.NewMockClock(time.Now()), testConfig())

	storeErr := errors.New("connection refused")
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(storeErr).Once()

	_, err := svc.CreateLink(context.Background(), &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
	})

	assert.ErrorIs(t, err, storeErr)
	mockRepo.AssertExpectations(t)
}

func TestResolveLink_RedirectsAndRecordsClick(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	svc, repo := newTestService(clock)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	resolution, err := svc.ResolveLink(ctx, link.Code, "", domain.Visitor{
		UserAgent: desktopUA,
		Referrer:  "https://twitter.com",
		SourceIP:  "203.0.113.7",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resolution.TargetURL)
	assert.Nil(t, resolution.Preview)

	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ClickCount)

	clicks, err := repo.GetClicks(ctx, link.Code)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "https://twitter.com", clicks[0].Referrer)
	assert.Equal(t, "Desktop", clicks[0].DeviceType)
	assert.Equal(t, "Chrome", clicks[0].Browser)
	assert.Equal(t, "Windows", clicks[0].OS)
	assert.Equal(t, geo.Unknown, clicks[0].Country)
}

func TestResolveLink_EmptyReferrerBecomesDirect(t *testing.T) {
	svc, repo := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: desktopUA})
	require.NoError(t, err)

	clicks, err := repo.GetClicks(ctx, link.Code)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "Direct", clicks[0].Referrer)
}

func TestResolveLink_NotFound(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))

	_, err := svc.ResolveLink(context.Background(), "missing", "", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveLink_ExpiredRecordsNothing(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	svc, repo := newTestService(clock)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	clock.Advance(30*24*time.Hour + time.Second)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: desktopUA})
	assert.ErrorIs(t, err, domain.ErrExpired)

	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Zero(t, stored.ClickCount)
}

func TestResolveLink_ExpiryBoundaryIsInclusive(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	svc, _ := newTestService(clock)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	clock.Set(link.ExpiresAt)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestResolveLink_Deactivated(t *testing.T) {
	svc, repo := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, link.Code, false))

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: desktopUA})
	assert.ErrorIs(t, err, domain.ErrDeactivated)

	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Zero(t, stored.ClickCount)
}

func TestResolveLink_PasswordRequired(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})
	require.NoError(t, err)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrPasswordRequired)
}

func TestResolveLink_PasswordIncorrect(t *testing.T) {
	svc, repo := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})
	require.NoError(t, err)

	_, err = svc.ResolveLink(ctx, link.Code, "wrong", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrPasswordIncorrect)

	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Zero(t, stored.ClickCount)
}

func TestResolveLink_PasswordCorrect(t *testing.T) {
	svc, repo := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})
	require.NoError(t, err)

	resolution, err := svc.ResolveLink(ctx, link.Code, "hunter22", domain.Visitor{UserAgent: desktopUA})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resolution.TargetURL)

	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ClickCount)
}

func TestResolveLink_LocksAfterRepeatedFailures(t *testing.T) {
	clock := domain.NewMockClock(time.Now())
	svc, _ := newTestService(clock)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = svc.ResolveLink(ctx, link.Code, "wrong", domain.Visitor{})
		assert.ErrorIs(t, err, domain.ErrPasswordIncorrect)
	}

	// Fifth failure tips the code into a lock.
	_, err = svc.ResolveLink(ctx, link.Code, "wrong", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrLocked)

	var lockedErr *domain.LockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, 30*time.Minute, lockedErr.Remaining)

	// The correct password does not bypass an active lock.
	_, err = svc.ResolveLink(ctx, link.Code, "hunter22", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrLocked)

	// After the window the correct password goes through again.
	clock.Advance(30 * time.Minute)
	_, err = svc.ResolveLink(ctx, link.Code, "hunter22", domain.Visitor{UserAgent: desktopUA})
	assert.NoError(t, err)
}

func TestResolveLink_SuccessResetsAttemptCount(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Password:  "hunter22",
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = svc.ResolveLink(ctx, link.Code, "wrong", domain.Visitor{})
		assert.ErrorIs(t, err, domain.ErrPasswordIncorrect)
	}

	_, err = svc.ResolveLink(ctx, link.Code, "hunter22", domain.Visitor{UserAgent: desktopUA})
	require.NoError(t, err)

	// The counter restarted, so one more failure is nowhere near a lock.
	_, err = svc.ResolveLink(ctx, link.Code, "wrong", domain.Visitor{})
	assert.ErrorIs(t, err, domain.ErrPasswordIncorrect)
}

func TestResolveLink_CrawlerGetsPreview(t *testing.T) {
	svc, repo := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{
		TargetURL: "https://example.com",
		Preview:   &domain.Preview{Title: "Example", Description: "A page"},
	})
	require.NoError(t, err)

	resolution, err := svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: crawlerUA})
	require.NoError(t, err)
	require.NotNil(t, resolution.Preview)
	assert.Equal(t, "Example", resolution.Preview.Title)

	// Crawler visits count as clicks too.
	stored, err := repo.FindByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ClickCount)
}

func TestResolveLink_CrawlerWithoutPreviewRedirects(t *testing.T) {
	svc, _ := newTestService(domain.NewMockClock(time.Now()))
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	resolution, err := svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: crawlerUA})
	require.NoError(t, err)
	assert.Nil(t, resolution.Preview)
}

func TestResolveLink_GeoLookupPopulatesLocation(t *testing.T) {
	mockGeo := new(mocks.MockGeoLookup)
	repo := memory.NewLinkRepository()
	svc := NewShortenerService(repo, nil, mockGeo, domain.NewMockClock(time.Now()), testConfig())
	ctx := context.Background()

	mockGeo.On("Lookup", mock.Anything, "203.0.113.7").
		Return(geo.Location{Country: "Germany", City: "Berlin"}, nil).Once()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{
		UserAgent: desktopUA,
		SourceIP:  "203.0.113.7",
	})
	require.NoError(t, err)

	clicks, err := repo.GetClicks(ctx, link.Code)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "Germany", clicks[0].Country)
	assert.Equal(t, "Berlin", clicks[0].City)
	mockGeo.AssertExpectations(t)
}

func TestResolveLink_GeoFailureDoesNotBlockClick(t *testing.T) {
	mockGeo := new(mocks.MockGeoLookup)
	repo := memory.NewLinkRepository()
	svc := NewShortenerService(repo, nil, mockGeo, domain.NewMockClock(time.Now()), testConfig())
	ctx := context.Background()

	mockGeo.On("Lookup", mock.Anything, mock.Anything).
		Return(geo.Location{}, errors.New("provider down")).Once()

	link, err := svc.CreateLink(ctx, &domain.CreateLinkRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	_, err = svc.ResolveLink(ctx, link.Code, "", domain.Visitor{UserAgent: desktopUA, SourceIP: "203.0.113.7"})
	require.NoError(t, err)

	clicks, err := repo.GetClicks(ctx, link.Code)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, geo.Unknown, clicks[0].Country)
	assert.Equal(t, geo.Unknown, clicks[0].City)
}

func TestResolveLink_CacheMissReadsThroughAndSets(t *testing.T) {
	mockRepo := new(mocks.MockLinkRepository)
	mockCache := new(mocks.MockLinkCache)
	clock := domain.NewMockClock(time.Now())
	svc := NewShortenerService(mockRepo, mockCache, nil, clock, testConfig())
	ctx := context.Background()

	link := &domain.Link{
		Code:      "abc123",
		TargetURL: "https://example.com",
		IsActive:  true,
		CreatedAt: clock.Now(),
		ExpiresAt: clock.Now().Add(30 * 24 * time.Hour),
	}

	mockCache.On("Get", mock.Anything, "abc123").Return(nil, errors.New("cache miss")).Once()
	mockRepo.On("FindByCode", mock.Anything, "abc123").Return(link, nil).Once()
	mockCache.On("Set", mock.Anything, link, 24*time.Hour).Return(nil).Once()
	mockRepo.On("AppendClick", mock.Anything, "abc123", mock.Anything).Return(nil).Once()

	resolution, err := svc.ResolveLink(ctx, "abc123", "", domain.Visitor{UserAgent: desktopUA})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resolution.TargetURL)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestResolveLink_CacheHitSkipsRepositoryLookup(t *testing.T) {
	mockRepo := new(mocks.MockLinkRepository)
	mockCache := new(mocks.MockLinkCache)
	clock := domain.NewMockClock(time.Now())
	svc := NewShortenerService(mockRepo, mockCache, nil, clock, testConfig())

	link := &domain.Link{
		Code:      "abc123",
		TargetURL: "https://example.com",
		IsActive:  true,
		ExpiresAt: clock.Now().Add(time.Hour),
	}

	mockCache.On("Get", mock.Anything, "abc123").Return(link, nil).Once()
	mockRepo.On("AppendClick", mock.Anything, "abc123", mock.Anything).Return(nil).Once()

	_, err := svc.ResolveLink(context.Background(), "abc123", "", domain.Visitor{UserAgent: desktopUA})
	require.NoError(t, err)

	mockRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestSetActive_InvalidatesCache(t *testing.T) {
	mockRepo := new(mocks.MockLinkRepository)
	mockCache := new(mocks.MockLinkCache)
	svc := NewShortenerService(mockRepo, mockCache, nil, domain.NewMockClock(time.Now()), testConfig())

	mockRepo.On("SetActive", mock.Anything, "abc123", false).Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "abc123").Return(nil).Once()

	require.NoError(t, svc.SetActive(context.Background(), "abc123", false))

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}
