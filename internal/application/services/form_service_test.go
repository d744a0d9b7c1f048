package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
)

type formFixture struct {
	service   *FormService
	formRepo  *fakeFormRepo
	stepRepo  *fakeStepRepo
	fieldRepo *fakeFieldRepo
}

func newFormFixture(t *testing.T) *formFixture {
	t.Helper()
	fieldRepo := newFakeFieldRepo()
	stepRepo := newFakeStepRepo(fieldRepo)
	formRepo := newFakeFormRepo(stepRepo)
	return &formFixture{
		service:   NewFormService(formRepo, stepRepo, fieldRepo, testLogger(t), testTracker()),
		formRepo:  formRepo,
		stepRepo:  stepRepo,
		fieldRepo: fieldRepo,
	}
}

func (f *formFixture) seedForm(userID string) *forms.Form {
	now := time.Now().UTC()
	form := &forms.Form{
		ID:        security.GenerateULID(),
		UserID:    userID,
		Title:     "Survey",
		Status:    forms.StatusDraft,
		Settings:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.formRepo.forms[form.ID] = form
	return form
}

func (f *formFixture) seedStep(formID string, order int) *forms.Step {
	step := &forms.Step{ID: security.GenerateULID(), FormID: formID, Title: "Step", Order: order}
	f.stepRepo.steps[step.ID] = step
	return step
}

func (f *formFixture) seedField(stepID string, order int) *forms.Field {
	field := &forms.Field{ID: security.GenerateULID(), StepID: stepID, Type: "text", Label: "Name", Order: order}
	f.fieldRepo.fields[field.ID] = field
	return field
}

func TestCreateFormSeedsDefaultStep(t *testing.T) {
	fixture := newFormFixture(t)

	form, err := fixture.service.CreateForm("user-1", CreateFormInput{Title: "Survey"})
	assert.NoError(t, err)
	assert.Equal(t, forms.StatusDraft, form.Status)
	assert.NotNil(t, form.Settings)
	assert.Len(t, form.Steps, 1)
	assert.Equal(t, "Step 1", form.Steps[0].Title)
	assert.Equal(t, 0, form.Steps[0].Order)
	assert.Empty(t, form.Steps[0].Fields)
}

func TestVerifyOwnershipOrder(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")

	// Missing form reports NotFound even for a wrong caller.
	_, err := fixture.service.VerifyOwnership("missing", "intruder")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = fixture.service.VerifyOwnership(form.ID, "intruder")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	got, err := fixture.service.VerifyOwnership(form.ID, "owner")
	assert.NoError(t, err)
	assert.Equal(t, form.ID, got.ID)
}

func TestVerifyOwnershipSoftDeletedForm(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	assert.NoError(t, fixture.service.DeleteForm(form.ID, "owner"))

	// A soft-deleted form is indistinguishable from a missing one, even for
	// its owner.
	_, err := fixture.service.VerifyOwnership(form.ID, "owner")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPublishFormRequiresField(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	fixture.seedStep(form.ID, 0)

	_, err := fixture.service.PublishForm(form.ID, "owner")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPublishFormLifecycle(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	step := fixture.seedStep(form.ID, 0)
	fixture.seedField(step.ID, 0)

	published, err := fixture.service.PublishForm(form.ID, "owner")
	assert.NoError(t, err)
	assert.Equal(t, forms.StatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)

	_, err = fixture.service.PublishForm(form.ID, "owner")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	archived, err := fixture.service.ArchiveForm(form.ID, "owner")
	assert.NoError(t, err)
	assert.Equal(t, forms.StatusArchived, archived.Status)
}

func TestGetPublicSchemaOnlyPublished(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")

	_, err := fixture.service.GetPublicSchema(form.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	step := fixture.seedStep(form.ID, 0)
	fixture.seedField(step.ID, 0)
	_, err = fixture.service.PublishForm(form.ID, "owner")
	assert.NoError(t, err)

	schema, err := fixture.service.GetPublicSchema(form.ID)
	assert.NoError(t, err)
	assert.Len(t, schema.Steps, 1)
	assert.Len(t, schema.Steps[0].Fields, 1)
}

func TestCreateStepAppendsAtEnd(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	fixture.seedStep(form.ID, 0)
	fixture.seedStep(form.ID, 1)

	step, err := fixture.service.CreateStep(form.ID, "owner", StepInput{Title: "Final"})
	assert.NoError(t, err)
	assert.Equal(t, 2, step.Order)
}

func TestDeleteStepReindexes(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	first := fixture.seedStep(form.ID, 0)
	second := fixture.seedStep(form.ID, 1)
	third := fixture.seedStep(form.ID, 2)

	assert.NoError(t, fixture.service.DeleteStep(form.ID, second.ID, "owner"))

	remaining, err := fixture.stepRepo.FindByFormID(form.ID)
	assert.NoError(t, err)
	assert.Len(t, remaining, 2)
	assert.Equal(t, first.ID, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Order)
	assert.Equal(t, third.ID, remaining[1].ID)
	assert.Equal(t, 1, remaining[1].Order)
}

func TestReorderStepsRejectsBadPermutations(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	first := fixture.seedStep(form.ID, 0)
	second := fixture.seedStep(form.ID, 1)

	cases := map[string][]string{
		"missing id":   {first.ID},
		"duplicate id": {first.ID, first.ID},
		"foreign id":   {first.ID, "not-a-step"},
		"extra id":     {first.ID, second.ID, "extra"},
	}
	for name, ids := range cases {
		_, err := fixture.service.ReorderSteps(form.ID, "owner", ids)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), name)
	}
}

func TestReorderStepsAppliesPositions(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	first := fixture.seedStep(form.ID, 0)
	second := fixture.seedStep(form.ID, 1)

	reordered, err := fixture.service.ReorderSteps(form.ID, "owner", []string{second.ID, first.ID})
	assert.NoError(t, err)
	assert.Equal(t, second.ID, reordered[0].ID)
	assert.Equal(t, 0, reordered[0].Order)
	assert.Equal(t, first.ID, reordered[1].ID)
	assert.Equal(t, 1, reordered[1].Order)
}

func TestUpdateFieldAcrossForms(t *testing.T) {
	fixture := newFormFixture(t)
	mine := fixture.seedForm("owner")
	other := fixture.seedForm("owner")
	otherStep := fixture.seedStep(other.ID, 0)
	otherField := fixture.seedField(otherStep.ID, 0)

	// A field hanging off another form's step is invisible here.
	_, err := fixture.service.UpdateField(mine.ID, otherField.ID, "owner", FieldInput{Type: "text", Label: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestReorderFieldsAppliesPositions(t *testing.T) {
	fixture := newFormFixture(t)
	form := fixture.seedForm("owner")
	step := fixture.seedStep(form.ID, 0)
	first := fixture.seedField(step.ID, 0)
	second := fixture.seedField(step.ID, 1)

	reordered, err := fixture.service.ReorderFields(form.ID, step.ID, "owner", []string{second.ID, first.ID})
	assert.NoError(t, err)
	assert.Equal(t, second.ID, reordered[0].ID)
	assert.Equal(t, first.ID, reordered[1].ID)
}

func TestGetStepsOrderedMissingForm(t *testing.T) {
	fixture := newFormFixture(t)

	_, err := fixture.service.GetStepsOrdered("missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
