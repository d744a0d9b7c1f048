package services

import (
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/domain/submissions"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
)

// SubmissionService validates and stores completed form responses, and
// serves the owner-facing read side.
type SubmissionService struct {
	formRepo       forms.Repository
	submissionRepo submissions.Repository
	formService    *FormService
	notifications  *NotificationService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(formRepo forms.Repository, submissionRepo submissions.Repository, formService *FormService, notifications *NotificationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SubmissionService {
	return &SubmissionService{
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
		formService:    formService,
		notifications:  notifications,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// CreateSubmissionInput is one completed response from the public endpoint.
type CreateSubmissionInput struct {
	Data     map[string]any `json:"data" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// SubmissionPage is a paginated submission listing.
type SubmissionPage struct {
	Submissions []*submissions.Submission `json:"submissions"`
	Total       int                       `json:"total"`
	Page        int                       `json:"page"`
	Limit       int                       `json:"limit"`
}

// Create validates a response against the form's current schema and stores
// it. Only PUBLISHED forms accept submissions; the schema is read at
// submission time, so a response can fail validation when the form changed
// after the session started.
func (s *SubmissionService) Create(formID string, input CreateSubmissionInput) (*submissions.Submission, error) {
	marker := s.perfTracker.StartOperation("create_submission")
	defer marker.Complete()

	form, err := s.formRepo.FindDetailByID(formID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if form == nil {
		return nil, apperr.NotFound("form not found")
	}
	if form.Status != forms.StatusPublished {
		return nil, apperr.Validation("form is not accepting submissions")
	}

	if missing := missingRequiredFields(form, input.Data); len(missing) > 0 {
		return nil, apperr.NewWithDetails(apperr.KindValidation, "required fields are missing", map[string]any{"missingFields": missing})
	}

	now := time.Now().UTC()
	submission := &submissions.Submission{
		ID:          security.GenerateULID(),
		FormID:      formID,
		Data:        input.Data,
		Metadata:    input.Metadata,
		CompletedAt: now,
		CreatedAt:   now,
	}
	if err := s.submissionRepo.Store(submission); err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Submission().Info("Submission created", "submissionId", submission.ID, "formId", formID)
	if s.notifications != nil {
		s.notifications.NotifySubmission(form, submission)
	}

	marker.SetSuccess(true)
	return submission, nil
}

// ListByForm returns a page of a form's submissions, newest first,
// owner-checked.
func (s *SubmissionService) ListByForm(formID, userID string, page, limit int) (*SubmissionPage, error) {
	if _, err := s.formService.VerifyOwnership(formID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	items, err := s.submissionRepo.FindByFormID(formID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*submissions.Submission{}
	}
	total, err := s.submissionRepo.CountByFormID(formID)
	if err != nil {
		return nil, err
	}

	return &SubmissionPage{Submissions: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one submission, owner-checked through its form.
func (s *SubmissionService) Get(submissionID, userID string) (*submissions.Submission, error) {
	submission, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, apperr.NotFound("submission not found")
	}
	if _, err := s.formService.VerifyOwnership(submission.FormID, userID); err != nil {
		return nil, err
	}
	return submission, nil
}

// missingRequiredFields checks every required field in the form's current
// step/field definitions against the submitted data. Empty string, nil and
// empty array count as absent; 0 and false are present.
func missingRequiredFields(form *forms.Form, data map[string]any) []string {
	var missing []string
	for _, step := range form.Steps {
		for _, field := range step.Fields {
			if !field.Required {
				continue
			}
			if !valuePresent(data[field.ID]) {
				missing = append(missing, field.ID)
			}
		}
	}
	return missing
}

func valuePresent(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	default:
		return true
	}
}
