package handlers

import (
	"net/http"

	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SubmissionHandlers contains the owner-facing submission read handlers.
type SubmissionHandlers struct {
	submissionService *services.SubmissionService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewSubmissionHandlers creates submission handlers with injected dependencies.
func NewSubmissionHandlers(submissionService *services.SubmissionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SubmissionHandlers {
	return &SubmissionHandlers{
		submissionService: submissionService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// GetFormSubmissions handles GET /api/v1/forms/:formId/submissions
func (h *SubmissionHandlers) GetFormSubmissions(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.submissionService.ListByForm(c.Param("formId"), middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// GetSubmission handles GET /api/v1/submissions/:submissionId
func (h *SubmissionHandlers) GetSubmission(c *gin.Context) {
	submission, err := h.submissionService.Get(c.Param("submissionId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, submission)
}
