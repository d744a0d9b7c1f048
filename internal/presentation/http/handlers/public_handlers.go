package handlers

import (
	"net/http"
	"time"

	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// PublicHandlers contains the unauthenticated endpoints used by form-filling
// clients: schema fetch, event tracking and submission.
type PublicHandlers struct {
	formService       *services.FormService
	eventService      *services.EventService
	submissionService *services.SubmissionService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewPublicHandlers creates public handlers with injected dependencies.
func NewPublicHandlers(formService *services.FormService, eventService *services.EventService, submissionService *services.SubmissionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PublicHandlers {
	return &PublicHandlers{
		formService:       formService,
		eventService:      eventService,
		submissionService: submissionService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// GetSchema handles GET /api/v1/public/forms/:formId/schema
func (h *PublicHandlers) GetSchema(c *gin.Context) {
	form, err := h.formService.GetPublicSchema(c.Param("formId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, form)
}

// PostEvent handles POST /api/v1/public/forms/:formId/events
func (h *PublicHandlers) PostEvent(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_event_request")
	defer marker.Complete()

	var input services.TrackEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.Track(c.Param("formId"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	respondData(c, http.StatusCreated, event)
}

// PostSubmission handles POST /api/v1/public/forms/:formId/submissions
func (h *PublicHandlers) PostSubmission(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_submission_request")
	defer marker.Complete()

	var input services.CreateSubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	submission, err := h.submissionService.Create(c.Param("formId"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Submission().Info("Public submission request completed", "submissionId", submission.ID, "duration", time.Since(start))
	marker.SetSuccess(true)
	respondData(c, http.StatusCreated, submission)
}
