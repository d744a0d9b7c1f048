package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/presentation/http/middleware"
	"github.com/formflowhq/formflow-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// FormHandlers contains the form builder HTTP handlers: form CRUD, lifecycle
// transitions, and step/field management.
type FormHandlers struct {
	formService *services.FormService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewFormHandlers creates form handlers with injected dependencies.
func NewFormHandlers(formService *services.FormService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FormHandlers {
	return &FormHandlers{
		formService: formService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// pagination reads page/limit query params, clamped to the configured max.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(config.DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	return page, limit
}

// GetForms handles GET /api/v1/forms
func (h *FormHandlers) GetForms(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.formService.ListForms(middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// PostForm handles POST /api/v1/forms
func (h *FormHandlers) PostForm(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_form_request")
	defer marker.Complete()

	var input services.CreateFormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	form, err := h.formService.CreateForm(middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Forms().Info("Create form request completed", "formId", form.ID, "duration", time.Since(start))
	marker.SetSuccess(true)
	respondData(c, http.StatusCreated, form)
}

// GetForm handles GET /api/v1/forms/:formId
func (h *FormHandlers) GetForm(c *gin.Context) {
	form, err := h.formService.GetForm(c.Param("formId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, form)
}

// PutForm handles PUT /api/v1/forms/:formId
func (h *FormHandlers) PutForm(c *gin.Context) {
	var input services.UpdateFormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	form, err := h.formService.UpdateForm(c.Param("formId"), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, form)
}

// DeleteForm handles DELETE /api/v1/forms/:formId
func (h *FormHandlers) DeleteForm(c *gin.Context) {
	if err := h.formService.DeleteForm(c.Param("formId"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"success": true})
}

// PostPublish handles POST /api/v1/forms/:formId/publish
func (h *FormHandlers) PostPublish(c *gin.Context) {
	form, err := h.formService.PublishForm(c.Param("formId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, form)
}

// PostArchive handles POST /api/v1/forms/:formId/archive
func (h *FormHandlers) PostArchive(c *gin.Context) {
	form, err := h.formService.ArchiveForm(c.Param("formId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, form)
}

// --- steps ---

// PostStep handles POST /api/v1/forms/:formId/steps
func (h *FormHandlers) PostStep(c *gin.Context) {
	var input services.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	step, err := h.formService.CreateStep(c.Param("formId"), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, step)
}

// PutStep handles PUT /api/v1/forms/:formId/steps/:stepId
func (h *FormHandlers) PutStep(c *gin.Context) {
	var input services.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	step, err := h.formService.UpdateStep(c.Param("formId"), c.Param("stepId"), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, step)
}

// DeleteStep handles DELETE /api/v1/forms/:formId/steps/:stepId
func (h *FormHandlers) DeleteStep(c *gin.Context) {
	if err := h.formService.DeleteStep(c.Param("formId"), c.Param("stepId"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"success": true})
}

// reorderRequest carries the full id permutation for a reorder call.
type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// PutReorderSteps handles PUT /api/v1/forms/:formId/steps/reorder
func (h *FormHandlers) PutReorderSteps(c *gin.Context) {
	var input reorderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	steps, err := h.formService.ReorderSteps(c.Param("formId"), middleware.UserID(c), input.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, steps)
}

// --- fields ---

// PostField handles POST /api/v1/forms/:formId/steps/:stepId/fields
func (h *FormHandlers) PostField(c *gin.Context) {
	var input services.FieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	field, err := h.formService.CreateField(c.Param("formId"), c.Param("stepId"), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, field)
}

// PutField handles PUT /api/v1/forms/:formId/fields/:fieldId
func (h *FormHandlers) PutField(c *gin.Context) {
	var input services.FieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	field, err := h.formService.UpdateField(c.Param("formId"), c.Param("fieldId"), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, field)
}

// DeleteField handles DELETE /api/v1/forms/:formId/fields/:fieldId
func (h *FormHandlers) DeleteField(c *gin.Context) {
	if err := h.formService.DeleteField(c.Param("formId"), c.Param("fieldId"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"success": true})
}

// PutReorderFields handles PUT /api/v1/forms/:formId/steps/:stepId/fields/reorder
func (h *FormHandlers) PutReorderFields(c *gin.Context) {
	var input reorderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	fields, err := h.formService.ReorderFields(c.Param("formId"), c.Param("stepId"), middleware.UserID(c), input.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, fields)
}
