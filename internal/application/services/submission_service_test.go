package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
)

type submissionFixture struct {
	*formFixture
	service        *SubmissionService
	submissionRepo *fakeSubmissionRepo
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	formFix := newFormFixture(t)
	submissionRepo := newFakeSubmissionRepo()
	return &submissionFixture{
		formFixture:    formFix,
		submissionRepo: submissionRepo,
		service: NewSubmissionService(formFix.formRepo, submissionRepo, formFix.service,
			nil, testLogger(t), testTracker()),
	}
}

// seedPublishedForm creates a published form with one step holding a
// required text field and an optional one.
func (f *submissionFixture) seedPublishedForm(t *testing.T) (*forms.Form, *forms.Field, *forms.Field) {
	t.Helper()
	form := f.seedForm("owner")
	step := f.seedStep(form.ID, 0)
	required := f.seedField(step.ID, 0)
	required.Required = true
	optional := f.seedField(step.ID, 1)

	_, err := f.formFixture.service.PublishForm(form.ID, "owner")
	assert.NoError(t, err)
	return form, required, optional
}

func TestCreateSubmissionHappyPath(t *testing.T) {
	fixture := newSubmissionFixture(t)
	form, required, _ := fixture.seedPublishedForm(t)

	submission, err := fixture.service.Create(form.ID, CreateSubmissionInput{
		Data: map[string]any{required.ID: "hello"},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.Equal(t, form.ID, submission.FormID)
	assert.False(t, submission.CompletedAt.IsZero())

	stored, err := fixture.submissionRepo.FindByID(submission.ID)
	assert.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestCreateSubmissionRejectsUnpublished(t *testing.T) {
	fixture := newSubmissionFixture(t)
	draft := fixture.seedForm("owner")

	_, err := fixture.service.Create(draft.ID, CreateSubmissionInput{Data: map[string]any{}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = fixture.service.Create("missing", CreateSubmissionInput{Data: map[string]any{}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateSubmissionRequiredFieldPresence(t *testing.T) {
	fixture := newSubmissionFixture(t)
	form, required, _ := fixture.seedPublishedForm(t)

	absent := []any{nil, "", []any{}}
	for _, value := range absent {
		_, err := fixture.service.Create(form.ID, CreateSubmissionInput{
			Data: map[string]any{required.ID: value},
		})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "value %#v should be absent", value)

		var appErr *apperr.Error
		assert.ErrorAs(t, err, &appErr)
		details, ok := appErr.Details.(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, []string{required.ID}, details["missingFields"])
	}

	// Zero and false are real answers, as is a non-empty selection.
	present := []any{0, 0.0, false, "no", []any{"a"}}
	for _, value := range present {
		_, err := fixture.service.Create(form.ID, CreateSubmissionInput{
			Data: map[string]any{required.ID: value},
		})
		assert.NoError(t, err, "value %#v should be present", value)
	}
}

func TestCreateSubmissionMissingKeyCountsAsAbsent(t *testing.T) {
	fixture := newSubmissionFixture(t)
	form, _, optional := fixture.seedPublishedForm(t)

	_, err := fixture.service.Create(form.ID, CreateSubmissionInput{
		Data: map[string]any{optional.ID: "only the optional one"},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListByFormOwnerChecked(t *testing.T) {
	fixture := newSubmissionFixture(t)
	form, required, _ := fixture.seedPublishedForm(t)

	for i := 0; i < 3; i++ {
		_, err := fixture.service.Create(form.ID, CreateSubmissionInput{
			Data: map[string]any{required.ID: "x"},
		})
		assert.NoError(t, err)
	}

	page, err := fixture.service.ListByForm(form.ID, "owner", 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Submissions, 2)

	_, err = fixture.service.ListByForm(form.ID, "intruder", 1, 2)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestGetSubmissionOwnerChecked(t *testing.T) {
	fixture := newSubmissionFixture(t)
	form, required, _ := fixture.seedPublishedForm(t)

	created, err := fixture.service.Create(form.ID, CreateSubmissionInput{
		Data: map[string]any{required.ID: "x"},
	})
	assert.NoError(t, err)

	got, err := fixture.service.Get(created.ID, "owner")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = fixture.service.Get(created.ID, "intruder")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = fixture.service.Get("missing", "owner")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
