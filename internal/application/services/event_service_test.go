package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/events"
)

type eventFixture struct {
	*formFixture
	service   *EventService
	eventRepo *fakeEventRepo
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	formFix := newFormFixture(t)
	eventRepo := newFakeEventRepo()
	return &eventFixture{
		formFixture: formFix,
		eventRepo:   eventRepo,
		service: NewEventService(formFix.formRepo, formFix.stepRepo, eventRepo,
			testLogger(t), testTracker()),
	}
}

func TestTrackEventHappyPath(t *testing.T) {
	fixture := newEventFixture(t)
	form := fixture.seedForm("owner")

	event, err := fixture.service.Track(form.ID, TrackEventInput{
		Kind:      events.KindView,
		SessionID: "session-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, events.KindView, event.Kind)
	assert.Nil(t, event.StepOrder)
	assert.Len(t, fixture.eventRepo.stored, 1)
}

func TestTrackEventUnknownKind(t *testing.T) {
	fixture := newEventFixture(t)
	form := fixture.seedForm("owner")

	_, err := fixture.service.Track(form.ID, TrackEventInput{
		Kind:      "CLICKED",
		SessionID: "session-1",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, fixture.eventRepo.stored)
}

func TestTrackEventMissingForm(t *testing.T) {
	fixture := newEventFixture(t)

	_, err := fixture.service.Track("missing", TrackEventInput{
		Kind:      events.KindView,
		SessionID: "session-1",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestTrackEventResolvesStepOrder(t *testing.T) {
	fixture := newEventFixture(t)
	form := fixture.seedForm("owner")
	step := fixture.seedStep(form.ID, 2)

	event, err := fixture.service.Track(form.ID, TrackEventInput{
		Kind:      events.KindStepComplete,
		SessionID: "session-1",
		StepID:    step.ID,
	})
	assert.NoError(t, err)
	assert.NotNil(t, event.StepOrder)
	assert.Equal(t, 2, *event.StepOrder)
}

func TestTrackEventForeignStepOmitsOrder(t *testing.T) {
	fixture := newEventFixture(t)
	form := fixture.seedForm("owner")
	other := fixture.seedForm("owner")
	foreignStep := fixture.seedStep(other.ID, 0)

	// A step from another form is dropped silently; the event still records.
	event, err := fixture.service.Track(form.ID, TrackEventInput{
		Kind:      events.KindStepComplete,
		SessionID: "session-1",
		StepID:    foreignStep.ID,
	})
	assert.NoError(t, err)
	assert.Nil(t, event.StepOrder)

	// Same for a step id that no longer exists.
	event, err = fixture.service.Track(form.ID, TrackEventInput{
		Kind:      events.KindStepComplete,
		SessionID: "session-1",
		StepID:    "deleted-step",
	})
	assert.NoError(t, err)
	assert.Nil(t, event.StepOrder)
}
