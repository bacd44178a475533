package api

import (
	"github.com/labstack/echo/v4"

	"RankPulse/internal/domain/models"
	svccache "RankPulse/internal/service/cache"
	"RankPulse/internal/usecase"
	xhttp "RankPulse/pkg/http"
	xlogger "RankPulse/pkg/logger"
)

// ReportHandler exposes report generation and cache administration.
type ReportHandler struct {
	logger  *xlogger.Logger
	reports *usecase.ReportService
	cache   *svccache.KeyedCache
	version string
}

func NewReportHandler(logger *xlogger.Logger, reports *usecase.ReportService, keyed *svccache.KeyedCache, version string) *ReportHandler {
	return &ReportHandler{logger: logger, reports: reports, cache: keyed, version: version}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/report", h.GenerateReport)
	g.GET("/report/stream", h.StreamReport)
	g.POST("/cache/invalidate", h.InvalidateCache)
	g.GET("/cache/stats", h.CacheStats)
}

func (h *ReportHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"service": "rankpulse",
		"version": h.version,
	})
}

func (h *ReportHandler) Health(c echo.Context) error {
	status := map[string]interface{}{
		"status":        "ok",
		"cache_enabled": h.cache.Enabled(),
	}
	if !h.cache.Healthy(c.Request().Context()) {
		// The service keeps working without the cache, so report degraded
		// rather than failing the probe.
		status["status"] = "degraded"
		status["cache"] = "unreachable"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ReportHandler) GenerateReport(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.logger.Info("report requested",
		xlogger.String("domain", req.Domain),
		xlogger.Int("keywords", len(req.Keywords)),
		xlogger.Int("competitors", len(req.Competitors)),
	)

	report := h.reports.Generate(c.Request().Context(), req)
	return xhttp.SuccessResponse(c, report)
}

func (h *ReportHandler) InvalidateCache(c echo.Context) error {
	req := &models.InvalidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	removed, err := h.cache.Invalidate(c.Request().Context(), req.QueryType, req.Pattern)
	if err != nil {
		h.logger.Error("cache invalidation failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"removed": removed,
	})
}

func (h *ReportHandler) CacheStats(c echo.Context) error {
	stats, err := h.cache.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("cache stats failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"enabled": h.cache.Enabled(),
		"entries": stats,
	})
}
