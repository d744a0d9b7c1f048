package handlers

import (
	"net/http"
	"time"

	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers contains the analytics HTTP handlers. Ownership is
// verified here before any aggregator runs; the aggregators themselves never
// re-check.
type AnalyticsHandlers struct {
	formService      *services.FormService
	analyticsService *services.AnalyticsService
	dashboardService *services.DashboardAnalyticsService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies.
func NewAnalyticsHandlers(formService *services.FormService, analyticsService *services.AnalyticsService, dashboardService *services.DashboardAnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		formService:      formService,
		analyticsService: analyticsService,
		dashboardService: dashboardService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// GetOverview handles GET /api/v1/analytics/forms/:formId/overview
func (h *AnalyticsHandlers) GetOverview(c *gin.Context) {
	start := time.Now()
	formID := c.Param("formId")

	if _, err := h.formService.VerifyOwnership(formID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.analyticsService.GetFormOverview(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Analytics().Debug("Overview request completed", "formId", formID, "duration", time.Since(start))
	respondData(c, http.StatusOK, result)
}

// GetFunnel handles GET /api/v1/analytics/forms/:formId/funnel
func (h *AnalyticsHandlers) GetFunnel(c *gin.Context) {
	start := time.Now()
	formID := c.Param("formId")

	if _, err := h.formService.VerifyOwnership(formID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.analyticsService.GetFormFunnel(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Analytics().Debug("Funnel request completed", "formId", formID, "duration", time.Since(start))
	respondData(c, http.StatusOK, result)
}

// GetTimeline handles GET /api/v1/analytics/forms/:formId/timeline
func (h *AnalyticsHandlers) GetTimeline(c *gin.Context) {
	start := time.Now()
	formID := c.Param("formId")

	if _, err := h.formService.VerifyOwnership(formID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.analyticsService.GetFormTimeline(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Analytics().Debug("Timeline request completed", "formId", formID, "duration", time.Since(start))
	respondData(c, http.StatusOK, result)
}

// GetDashboard handles GET /api/v1/analytics/dashboard
func (h *AnalyticsHandlers) GetDashboard(c *gin.Context) {
	start := time.Now()
	userID := middleware.UserID(c)

	result, err := h.dashboardService.GetDashboardStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Analytics().Debug("Dashboard request completed", "userId", userID, "duration", time.Since(start))
	respondData(c, http.StatusOK, result)
}
