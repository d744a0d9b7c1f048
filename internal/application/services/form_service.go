package services

import (
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/analytics"
	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
)

// FormService handles the form builder workflows: CRUD, lifecycle
// transitions, step and field management. It also serves as the form data
// source for the analytics aggregators.
type FormService struct {
	formRepo    forms.Repository
	stepRepo    forms.StepRepository
	fieldRepo   forms.FieldRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewFormService creates a new form service.
func NewFormService(formRepo forms.Repository, stepRepo forms.StepRepository, fieldRepo forms.FieldRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FormService {
	return &FormService{
		formRepo:    formRepo,
		stepRepo:    stepRepo,
		fieldRepo:   fieldRepo,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// CreateFormInput carries the attributes for a new form.
type CreateFormInput struct {
	Title       string         `json:"title" binding:"required"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// UpdateFormInput carries a partial form update; nil fields stay unchanged.
type UpdateFormInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Settings    *map[string]any `json:"settings"`
}

// FormPage is a paginated form listing.
type FormPage struct {
	Forms []*forms.ListItem `json:"forms"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// VerifyOwnership loads a form and checks the caller owns it. Missing or
// soft-deleted forms report NotFound before any ownership information leaks;
// a live form owned by someone else reports Forbidden.
func (s *FormService) VerifyOwnership(formID, userID string) (*forms.Form, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, apperr.NotFound("form not found")
	}
	if form.UserID != userID {
		return nil, apperr.Forbidden("you do not have access to this form")
	}
	return form, nil
}

// ListForms returns a page of the caller's forms, newest first.
func (s *FormService) ListForms(userID string, page, limit int) (*FormPage, error) {
	marker := s.perfTracker.StartOperation("list_forms")
	defer marker.Complete()

	if page < 1 {
		page = 1
	}
	items, total, err := s.formRepo.FindByUserID(userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*forms.ListItem{}
	}

	marker.SetSuccess(true)
	return &FormPage{Forms: items, Total: total, Page: page, Limit: limit}, nil
}

// GetForm returns a form with ordered steps and fields, owner-checked.
func (s *FormService) GetForm(formID, userID string) (*forms.Form, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}
	return s.formRepo.FindDetailByID(formID)
}

// CreateForm creates a draft form with a default first step.
func (s *FormService) CreateForm(userID string, input CreateFormInput) (*forms.Form, error) {
	marker := s.perfTracker.StartOperation("create_form")
	defer marker.Complete()

	now := time.Now().UTC()
	form := &forms.Form{
		ID:          security.GenerateULID(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      forms.StatusDraft,
		Settings:    input.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if form.Settings == nil {
		form.Settings = map[string]any{}
	}

	if err := s.formRepo.Store(form); err != nil {
		marker.SetError(err)
		return nil, err
	}

	step := &forms.Step{
		ID:        security.GenerateULID(),
		FormID:    form.ID,
		Title:     "Step 1",
		Order:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.stepRepo.Store(step); err != nil {
		marker.SetError(err)
		return nil, err
	}
	step.Fields = []*forms.Field{}
	form.Steps = []*forms.Step{step}

	s.logger.Forms().Info("Form created", "formId", form.ID, "userId", userID)
	marker.SetSuccess(true)
	return form, nil
}

// UpdateForm applies a partial update to a form's attributes.
func (s *FormService) UpdateForm(formID, userID string, input UpdateFormInput) (*forms.Form, error) {
	form, err := s.VerifyOwnership(formID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		form.Title = *input.Title
	}
	if input.Description != nil {
		form.Description = input.Description
	}
	if input.Settings != nil {
		form.Settings = *input.Settings
	}
	form.UpdatedAt = time.Now().UTC()

	if err := s.formRepo.Update(form); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Form updated", "formId", formID, "userId", userID)
	return form, nil
}

// DeleteForm soft-deletes a form. Events and submissions stay in place.
func (s *FormService) DeleteForm(formID, userID string) error {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return err
	}
	if err := s.formRepo.SoftDelete(formID); err != nil {
		return err
	}
	s.logger.Forms().Info("Form deleted", "formId", formID, "userId", userID)
	return nil
}

// PublishForm transitions a form to PUBLISHED. The form needs at least one
// step with at least one field before it can collect submissions.
func (s *FormService) PublishForm(formID, userID string) (*forms.Form, error) {
	form, err := s.VerifyOwnership(formID, userID)
	if err != nil {
		return nil, err
	}
	if form.Status == forms.StatusPublished {
		return nil, apperr.Validation("form is already published")
	}

	steps, err := s.stepRepo.FindByFormID(formID)
	if err != nil {
		return nil, err
	}
	hasField := false
	for _, step := range steps {
		if len(step.Fields) > 0 {
			hasField = true
			break
		}
	}
	if !hasField {
		return nil, apperr.Validation("form must have at least one step with at least one field before publishing")
	}

	now := time.Now().UTC()
	form.Status = forms.StatusPublished
	form.PublishedAt = &now
	form.UpdatedAt = now
	if err := s.formRepo.Update(form); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Form published", "formId", formID, "userId", userID)
	return form, nil
}

// ArchiveForm transitions a form to ARCHIVED, stopping new submissions.
func (s *FormService) ArchiveForm(formID, userID string) (*forms.Form, error) {
	form, err := s.VerifyOwnership(formID, userID)
	if err != nil {
		return nil, err
	}
	if form.Status == forms.StatusArchived {
		return nil, apperr.Validation("form is already archived")
	}

	form.Status = forms.StatusArchived
	form.UpdatedAt = time.Now().UTC()
	if err := s.formRepo.Update(form); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Form archived", "formId", formID, "userId", userID)
	return form, nil
}

// GetPublicSchema returns a form with steps and fields for public rendering.
// Only PUBLISHED forms are visible; everything else reports NotFound.
func (s *FormService) GetPublicSchema(formID string) (*forms.Form, error) {
	form, err := s.formRepo.FindDetailByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil || form.Status != forms.StatusPublished {
		return nil, apperr.NotFound("form not found")
	}
	return form, nil
}

// --- step management ---

// StepInput carries the attributes for creating or updating a step.
type StepInput struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// CreateStep appends a step at order max+1.
func (s *FormService) CreateStep(formID, userID string, input StepInput) (*forms.Step, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	maxOrder, err := s.stepRepo.MaxOrder(formID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	step := &forms.Step{
		ID:          security.GenerateULID(),
		FormID:      formID,
		Title:       input.Title,
		Description: input.Description,
		Order:       maxOrder + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stepRepo.Store(step); err != nil {
		return nil, err
	}
	step.Fields = []*forms.Field{}

	s.logger.Forms().Info("Step created", "stepId", step.ID, "formId", formID, "order", step.Order)
	return step, nil
}

// UpdateStep writes a step's title and description.
func (s *FormService) UpdateStep(formID, stepID, userID string, input StepInput) (*forms.Step, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	step, err := s.stepRepo.FindByID(stepID)
	if err != nil {
		return nil, err
	}
	if step == nil || step.FormID != formID {
		return nil, apperr.NotFound("step not found")
	}

	step.Title = input.Title
	step.Description = input.Description
	step.UpdatedAt = time.Now().UTC()
	if err := s.stepRepo.Update(step); err != nil {
		return nil, err
	}
	return step, nil
}

// DeleteStep removes a step and re-densifies the remaining orders.
func (s *FormService) DeleteStep(formID, stepID, userID string) error {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return err
	}

	step, err := s.stepRepo.FindByID(stepID)
	if err != nil {
		return err
	}
	if step == nil || step.FormID != formID {
		return apperr.NotFound("step not found")
	}

	if err := s.stepRepo.DeleteAndReindex(stepID, formID); err != nil {
		return err
	}
	s.logger.Forms().Info("Step deleted", "stepId", stepID, "formId", formID)
	return nil
}

// ReorderSteps applies a full permutation of the form's step ids. The input
// must contain exactly the form's current step ids, no more, no less.
func (s *FormService) ReorderSteps(formID, userID string, stepIDs []string) ([]*forms.Step, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	current, err := s.stepRepo.FindByFormID(formID)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(idsOfSteps(current), stepIDs, "step"); err != nil {
		return nil, err
	}

	if err := s.stepRepo.ReorderAtomic(formID, stepIDs); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Steps reordered", "formId", formID, "count", len(stepIDs))
	return s.stepRepo.FindByFormID(formID)
}

// --- field management ---

// FieldInput carries the attributes for creating or updating a field.
type FieldInput struct {
	Type        string         `json:"type" binding:"required"`
	Label       string         `json:"label" binding:"required"`
	Placeholder *string        `json:"placeholder"`
	Required    bool           `json:"required"`
	Options     map[string]any `json:"options"`
	Validation  map[string]any `json:"validation"`
	Config      map[string]any `json:"config"`
}

// CreateField appends a field to a step at order max+1.
func (s *FormService) CreateField(formID, stepID, userID string, input FieldInput) (*forms.Field, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	step, err := s.stepRepo.FindByID(stepID)
	if err != nil {
		return nil, err
	}
	if step == nil || step.FormID != formID {
		return nil, apperr.NotFound("step not found")
	}

	maxOrder, err := s.fieldRepo.MaxOrder(stepID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	field := &forms.Field{
		ID:          security.GenerateULID(),
		StepID:      stepID,
		Type:        input.Type,
		Label:       input.Label,
		Placeholder: input.Placeholder,
		Required:    input.Required,
		Order:       maxOrder + 1,
		Options:     input.Options,
		Validation:  input.Validation,
		Config:      input.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.fieldRepo.Store(field); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Field created", "fieldId", field.ID, "stepId", stepID, "order", field.Order)
	return field, nil
}

// UpdateField writes a field's mutable attributes.
func (s *FormService) UpdateField(formID, fieldID, userID string, input FieldInput) (*forms.Field, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	field, err := s.findOwnedField(formID, fieldID)
	if err != nil {
		return nil, err
	}

	field.Type = input.Type
	field.Label = input.Label
	field.Placeholder = input.Placeholder
	field.Required = input.Required
	field.Options = input.Options
	field.Validation = input.Validation
	field.Config = input.Config
	field.UpdatedAt = time.Now().UTC()
	if err := s.fieldRepo.Update(field); err != nil {
		return nil, err
	}
	return field, nil
}

// DeleteField removes a field and re-densifies the remaining orders.
func (s *FormService) DeleteField(formID, fieldID, userID string) error {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return err
	}

	field, err := s.findOwnedField(formID, fieldID)
	if err != nil {
		return err
	}

	if err := s.fieldRepo.DeleteAndReindex(fieldID, field.StepID); err != nil {
		return err
	}
	s.logger.Forms().Info("Field deleted", "fieldId", fieldID, "stepId", field.StepID)
	return nil
}

// ReorderFields applies a full permutation of a step's field ids.
func (s *FormService) ReorderFields(formID, stepID, userID string, fieldIDs []string) ([]*forms.Field, error) {
	if _, err := s.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	step, err := s.stepRepo.FindByID(stepID)
	if err != nil {
		return nil, err
	}
	if step == nil || step.FormID != formID {
		return nil, apperr.NotFound("step not found")
	}

	current, err := s.fieldRepo.FindByStepID(stepID)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(idsOfFields(current), fieldIDs, "field"); err != nil {
		return nil, err
	}

	if err := s.fieldRepo.ReorderAtomic(stepID, fieldIDs); err != nil {
		return nil, err
	}

	s.logger.Forms().Info("Fields reordered", "stepId", stepID, "count", len(fieldIDs))
	return s.fieldRepo.FindByStepID(stepID)
}

// findOwnedField resolves a field and checks it belongs to one of the
// form's steps.
func (s *FormService) findOwnedField(formID, fieldID string) (*forms.Field, error) {
	field, err := s.fieldRepo.FindByID(fieldID)
	if err != nil {
		return nil, err
	}
	if field == nil {
		return nil, apperr.NotFound("field not found")
	}
	step, err := s.stepRepo.FindByID(field.StepID)
	if err != nil {
		return nil, err
	}
	if step == nil || step.FormID != formID {
		return nil, apperr.NotFound("field not found")
	}
	return field, nil
}

// --- analytics.FormSource ---

// GetStepsOrdered returns a live form's steps in ascending order for the
// funnel aggregator.
func (s *FormService) GetStepsOrdered(formID string) ([]analytics.StepInfo, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, apperr.NotFound("form not found")
	}

	steps, err := s.stepRepo.FindByFormID(formID)
	if err != nil {
		return nil, err
	}

	infos := make([]analytics.StepInfo, 0, len(steps))
	for _, step := range steps {
		infos = append(infos, analytics.StepInfo{Order: step.Order, Title: step.Title})
	}
	return infos, nil
}

// ListOwnedFormIDs returns the ids of a user's non-deleted forms for the
// dashboard aggregator.
func (s *FormService) ListOwnedFormIDs(userID string) ([]string, error) {
	return s.formRepo.ListIDsByUserID(userID)
}

// --- helpers ---

func idsOfSteps(steps []*forms.Step) []string {
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID
	}
	return ids
}

func idsOfFields(fields []*forms.Field) []string {
	ids := make([]string, len(fields))
	for i, field := range fields {
		ids[i] = field.ID
	}
	return ids
}

// validatePermutation checks that proposed is exactly a permutation of
// current, reporting a Validation error on any mismatch.
func validatePermutation(current, proposed []string, noun string) error {
	if len(proposed) != len(current) {
		return apperr.Validation(noun + " id list must contain every " + noun + " exactly once")
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	used := make(map[string]bool, len(proposed))
	for _, id := range proposed {
		if !seen[id] || used[id] {
			return apperr.Validation(noun + " id list must contain every " + noun + " exactly once")
		}
		used[id] = true
	}
	return nil
}
