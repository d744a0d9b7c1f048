package services

import (
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/domain/events"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
)

// EventService records anonymous interaction events from the public
// tracking endpoint. Events are append-only; nothing here mutates them.
type EventService struct {
	formRepo    forms.Repository
	stepRepo    forms.StepRepository
	eventRepo   events.Repository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEventService creates a new event service.
func NewEventService(formRepo forms.Repository, stepRepo forms.StepRepository, eventRepo events.Repository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventService {
	return &EventService{
		formRepo:    formRepo,
		stepRepo:    stepRepo,
		eventRepo:   eventRepo,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// TrackEventInput is one tracking call from a form-filling client.
type TrackEventInput struct {
	Kind      events.Kind    `json:"type" binding:"required"`
	SessionID string         `json:"sessionId" binding:"required"`
	StepID    string         `json:"stepId"`
	Metadata  map[string]any `json:"metadata"`
}

// Track validates and appends one event for a live form. The optional step
// id is resolved to the step's current order best-effort: when the step no
// longer exists or belongs to another form, the order is omitted rather
// than erroring.
func (s *EventService) Track(formID string, input TrackEventInput) (*events.Event, error) {
	marker := s.perfTracker.StartOperation("track_event")
	defer marker.Complete()

	if !events.ValidKind(input.Kind) {
		return nil, apperr.Validation("unknown event type")
	}

	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if form == nil {
		return nil, apperr.NotFound("form not found")
	}

	event := &events.Event{
		ID:        security.GenerateULID(),
		FormID:    formID,
		Kind:      input.Kind,
		SessionID: input.SessionID,
		Metadata:  input.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	if input.StepID != "" {
		step, err := s.stepRepo.FindByID(input.StepID)
		if err != nil {
			marker.SetError(err)
			return nil, err
		}
		if step != nil && step.FormID == formID {
			order := step.Order
			event.StepOrder = &order
		}
	}

	if err := s.eventRepo.Store(event); err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Analytics().Debug("Event tracked", "eventId", event.ID, "formId", formID, "type", event.Kind)
	marker.SetSuccess(true)
	return event, nil
}
