package handler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linklite/linklite/internal/config"
	"github.com/linklite/linklite/internal/domain"
	"github.com/linklite/linklite/pkg/detector"
	"github.com/linklite/linklite/pkg/response"
	"github.com/linklite/linklite/pkg/validator"
)

type ShortenerService interface {
	CreateLink(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error)
	ResolveLink(ctx context.Context, code, password string, visitor domain.Visitor) (*domain.Resolution, error)
	GetLink(ctx context.Context, code string) (*domain.Link, error)
	ListLinks(ctx context.Context, ownerID string, limit int) ([]*domain.Link, error)
	SetActive(ctx context.Context, code string, active bool) error
}

type ShortenerHandler struct {
	service ShortenerService
	baseURL string
	cfg     config.ShortenerConfig
}

func NewShortenerHandler(service ShortenerService, baseURL string, cfg config.ShortenerConfig) *ShortenerHandler {
	return &ShortenerHandler{service: service, baseURL: baseURL, cfg: cfg}
}

// LinkResponse is the public view of a link. It is assembled field by
// field so the password hash can never ride along.
type LinkResponse struct {
	Code        string          `json:"code"`
	ShortURL    string          `json:"short_url"`
	TargetURL   string          `json:"target_url"`
	CustomAlias string          `json:"custom_alias,omitempty"`
	HasPassword bool            `json:"has_password"`
	Preview     *domain.Preview `json:"preview,omitempty"`
	ClickCount  int64           `json:"click_count"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
	ExpiresAt   string          `json:"expires_at"`
}

func (h *ShortenerHandler) toResponse(link *domain.Link) LinkResponse {
	resp := LinkResponse{
		Code:        link.Code,
		ShortURL:    fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		TargetURL:   link.TargetURL,
		CustomAlias: link.CustomAlias,
		HasPassword: link.PasswordProtected(),
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
		ExpiresAt:   link.ExpiresAt.Format(time.RFC3339),
	}
	if !link.Preview.IsZero() {
		preview := link.Preview
		resp.Preview = &preview
	}
	return resp
}

func (h *ShortenerHandler) CreateLink(c *gin.Context) {
	var req domain.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if errs := validator.Validate(req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	if req.CustomAlias != "" && validator.IsReservedKeyword(req.CustomAlias) {
		response.BadRequest(c, "This alias is reserved")
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTarget):
			response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrDuplicateCode):
			response.Conflict(c, "This alias is already taken")
		default:
			response.InternalServerError(c, "Failed to create link")
		}
		return
	}

	response.Created(c, "Link created successfully", h.toResponse(link))
}

func (h *ShortenerHandler) Redirect(c *gin.Context) {
	code := c.Param("code")
	password := c.Query("password")

	visitor := domain.Visitor{
		Referrer:  c.GetHeader("Referer"),
		UserAgent: c.GetHeader("User-Agent"),
		SourceIP: detector.ClientIP(
			c.Request.RemoteAddr,
			c.GetHeader("X-Forwarded-For"),
			c.GetHeader("X-Real-IP"),
		),
	}

	resolution, err := h.service.ResolveLink(c.Request.Context(), code, password, visitor)
	if err != nil {
		h.renderResolveError(c, err)
		return
	}

	if resolution.Preview != nil {
		renderPreview(c, resolution.TargetURL, resolution.Preview)
		return
	}

	c.Redirect(http.StatusFound, resolution.TargetURL)
}

func (h *ShortenerHandler) renderResolveError(c *gin.Context, err error) {
	var lockedErr *domain.LockedError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, "Short link not found")
	case errors.Is(err, domain.ErrExpired):
		response.Gone(c, "This link has expired")
	case errors.Is(err, domain.ErrDeactivated):
		response.Gone(c, "This link has been deactivated")
	case errors.Is(err, domain.ErrPasswordRequired):
		response.Unauthorized(c, "This link is password protected")
	case errors.As(err, &lockedErr):
		retryAfter := int(lockedErr.Remaining.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts, try again in %d seconds", retryAfter))
	case errors.Is(err, domain.ErrPasswordIncorrect):
		response.Unauthorized(c, "Incorrect password")
	default:
		response.InternalServerError(c, "Failed to resolve link")
	}
}

func (h *ShortenerHandler) GetLink(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.GetLink(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "Short link not found")
			return
		}
		response.InternalServerError(c, "Failed to get link")
		return
	}

	response.OK(c, "Link retrieved successfully", h.toResponse(link))
}

func (h *ShortenerHandler) ListLinks(c *gin.Context) {
	ownerID := c.Query("owner_id")

	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	links, err := h.service.ListLinks(c.Request.Context(), ownerID, limit)
	if err != nil {
		response.InternalServerError(c, "Failed to list links")
		return
	}

	results := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		results = append(results, h.toResponse(link))
	}

	response.OK(c, "Links retrieved successfully", results)
}

func (h *ShortenerHandler) Activate(c *gin.Context) {
	h.setActive(c, true, "Link activated")
}

func (h *ShortenerHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false, "Link deactivated")
}

func (h *ShortenerHandler) setActive(c *gin.Context, active bool, message string) {
	code := c.Param("code")

	if err := h.service.SetActive(c.Request.Context(), code, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "Short link not found")
			return
		}
		response.InternalServerError(c, "Failed to update link")
		return
	}

	response.OK(c, message, gin.H{"code": code, "is_active": active})
}

// GetConfig exposes the client-facing settings a frontend needs to
// build short URLs and validate input before submitting.
func (h *ShortenerHandler) GetConfig(c *gin.Context) {
	response.OK(c, "Config retrieved successfully", gin.H{
		"base_url":            h.baseURL,
		"min_code_length":     h.cfg.MinCodeLength,
		"max_code_length":     h.cfg.MaxCodeLength,
		"default_expiry_days": int(h.cfg.DefaultExpiry.Hours() / 24),
	})
}

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
{{if .ImageURL}}<meta property="og:image" content="{{.ImageURL}}">{{end}}
<meta property="og:url" content="{{.TargetURL}}">
<meta http-equiv="refresh" content="0;url={{.TargetURL}}">
</head>
<body>
<p>Redirecting to <a href="{{.TargetURL}}">{{.TargetURL}}</a></p>
</body>
</html>
`))

// renderPreview serves an HTML page carrying Open Graph tags so link
// unfurlers show the configured card instead of following the redirect.
func renderPreview(c *gin.Context, targetURL string, preview *domain.Preview) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = previewTemplate.Execute(c.Writer, gin.H{
		"Title":       preview.Title,
		"Description": preview.Description,
		"ImageURL":    preview.ImageURL,
		"TargetURL":   targetURL,
	})
}
