package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linklite/linklite/internal/analytics"
	"github.com/linklite/linklite/internal/domain"
	"github.com/linklite/linklite/pkg/response"
)

type AnalyticsService interface {
	LinkReport(ctx context.Context, code string) (*analytics.LinkReport, error)
	Overview(ctx context.Context, ownerID string, allowSample bool) (*analytics.OverviewReport, error)
	Realtime(ctx context.Context, ownerID string) (*analytics.RealtimeReport, error)
	Timeframe(ctx context.Context, ownerID string, period analytics.Period, count int) (*analytics.TimeframeReport, error)
	Geo(ctx context.Context, ownerID string) (*analytics.GeoReport, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
}

func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) GetLinkAnalytics(c *gin.Context) {
	code := c.Param("code")

	report, err := h.service.LinkReport(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "Short link not found")
			return
		}
		response.InternalServerError(c, "Failed to get analytics")
		return
	}

	response.OK(c, "Analytics retrieved successfully", report)
}

func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	allowSample := c.Query("sample") == "1" || c.Query("sample") == "true"

	report, err := h.service.Overview(c.Request.Context(), c.Query("owner_id"), allowSample)
	if err != nil {
		response.InternalServerError(c, "Failed to get analytics")
		return
	}

	response.OK(c, "Analytics retrieved successfully", report)
}

func (h *AnalyticsHandler) GetRealtime(c *gin.Context) {
	report, err := h.service.Realtime(c.Request.Context(), c.Query("owner_id"))
	if err != nil {
		response.InternalServerError(c, "Failed to get realtime analytics")
		return
	}

	response.OK(c, "Realtime analytics retrieved successfully", report)
}

func (h *AnalyticsHandler) GetTimeframe(c *gin.Context) {
	period := analytics.Period(c.DefaultQuery("period", string(analytics.PeriodDay)))
	switch period {
	case analytics.PeriodHour, analytics.PeriodDay, analytics.PeriodWeek, analytics.PeriodMonth, analytics.PeriodYear:
	default:
		response.BadRequest(c, "period must be one of hour, day, week, month, year")
		return
	}

	count := 7
	if countParam := c.Query("count"); countParam != "" {
		if n, err := strconv.Atoi(countParam); err == nil && n > 0 && n <= 366 {
			count = n
		}
	}

	report, err := h.service.Timeframe(c.Request.Context(), c.Query("owner_id"), period, count)
	if err != nil {
		response.InternalServerError(c, "Failed to get timeframe analytics")
		return
	}

	response.OK(c, "Timeframe analytics retrieved successfully", report)
}

func (h *AnalyticsHandler) GetGeo(c *gin.Context) {
	report, err := h.service.Geo(c.Request.Context(), c.Query("owner_id"))
	if err != nil {
		response.InternalServerError(c, "Failed to get geo analytics")
		return
	}

	response.OK(c, "Geo analytics retrieved successfully", report)
}
