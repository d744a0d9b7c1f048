package services

import (
	"testing"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/analytics"
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/domain/events"
	"github.com/formflowhq/formflow-go/internal/domain/submissions"
	"github.com/formflowhq/formflow-go/internal/domain/users"
	"github.com/formflowhq/formflow-go/internal/infrastructure/caching"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.LogDirectory = t.TempDir()
	cfg.OutputToConsole = false
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func testTracker() *performance.Tracker {
	return performance.NewTracker(performance.DefaultTrackerConfig())
}

// uncachedCache has no backend, so every read computes fresh.
func uncachedCache(t *testing.T) *caching.AggregateCache {
	return caching.NewAggregateCache(nil, 5*time.Minute, testLogger(t))
}

// --- event repository fake ---

type fakeEventRepo struct {
	counts        map[events.Kind]int
	countsByForms map[events.Kind]int
	groupByOrder  map[int]int
	timestamps    map[events.Kind][]time.Time
	stored        []*events.Event
	queries       int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		counts:        map[events.Kind]int{},
		countsByForms: map[events.Kind]int{},
		groupByOrder:  map[int]int{},
		timestamps:    map[events.Kind][]time.Time{},
	}
}

func (r *fakeEventRepo) Store(event *events.Event) error {
	r.stored = append(r.stored, event)
	return nil
}

func (r *fakeEventRepo) CountByKind(_ string, kind events.Kind) (int, error) {
	r.queries++
	return r.counts[kind], nil
}

func (r *fakeEventRepo) CountByKindForForms(_ []string, kind events.Kind) (int, error) {
	r.queries++
	return r.countsByForms[kind], nil
}

func (r *fakeEventRepo) GroupCountByStepOrder(_ string, _ events.Kind) (map[int]int, error) {
	r.queries++
	return r.groupByOrder, nil
}

func (r *fakeEventRepo) FindTimestampsInRange(_ string, kind events.Kind, from time.Time) ([]time.Time, error) {
	r.queries++
	var result []time.Time
	for _, ts := range r.timestamps[kind] {
		if !ts.Before(from) {
			result = append(result, ts)
		}
	}
	return result, nil
}

// --- form source fake ---

type fakeFormSource struct {
	steps    []analytics.StepInfo
	stepsErr error
	ownedIDs []string
}

func (f *fakeFormSource) GetStepsOrdered(_ string) ([]analytics.StepInfo, error) {
	if f.stepsErr != nil {
		return nil, f.stepsErr
	}
	return f.steps, nil
}

func (f *fakeFormSource) ListOwnedFormIDs(_ string) ([]string, error) {
	return f.ownedIDs, nil
}

// --- submission repository fake ---

type fakeSubmissionRepo struct {
	byID       map[string]*submissions.Submission
	byForm     map[string][]*submissions.Submission
	totalCount int
	queries    int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		byID:   map[string]*submissions.Submission{},
		byForm: map[string][]*submissions.Submission{},
	}
}

func (r *fakeSubmissionRepo) Store(s *submissions.Submission) error {
	r.byID[s.ID] = s
	r.byForm[s.FormID] = append(r.byForm[s.FormID], s)
	return nil
}

func (r *fakeSubmissionRepo) FindByID(id string) (*submissions.Submission, error) {
	return r.byID[id], nil
}

func (r *fakeSubmissionRepo) FindByFormID(formID string, offset, limit int) ([]*submissions.Submission, error) {
	all := r.byForm[formID]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeSubmissionRepo) CountByFormID(formID string) (int, error) {
	return len(r.byForm[formID]), nil
}

func (r *fakeSubmissionRepo) CountByFormIDs(_ []string) (int, error) {
	r.queries++
	return r.totalCount, nil
}

// --- form/step/field repository fakes ---

type fakeFormRepo struct {
	forms map[string]*forms.Form
	steps *fakeStepRepo
}

func newFakeFormRepo(steps *fakeStepRepo) *fakeFormRepo {
	return &fakeFormRepo{forms: map[string]*forms.Form{}, steps: steps}
}

func (r *fakeFormRepo) FindByID(id string) (*forms.Form, error) {
	form, ok := r.forms[id]
	if !ok || form.DeletedAt != nil {
		return nil, nil
	}
	return form, nil
}

func (r *fakeFormRepo) FindDetailByID(id string) (*forms.Form, error) {
	form, err := r.FindByID(id)
	if err != nil || form == nil {
		return form, err
	}
	steps, err := r.steps.FindByFormID(id)
	if err != nil {
		return nil, err
	}
	form.Steps = steps
	return form, nil
}

func (r *fakeFormRepo) FindByUserID(userID string, offset, limit int) ([]*forms.ListItem, int, error) {
	var items []*forms.ListItem
	for _, form := range r.forms {
		if form.UserID == userID && form.DeletedAt == nil {
			items = append(items, &forms.ListItem{ID: form.ID, Title: form.Title, Status: form.Status})
		}
	}
	return items, len(items), nil
}

func (r *fakeFormRepo) ListIDsByUserID(userID string) ([]string, error) {
	var ids []string
	for _, form := range r.forms {
		if form.UserID == userID && form.DeletedAt == nil {
			ids = append(ids, form.ID)
		}
	}
	return ids, nil
}

func (r *fakeFormRepo) Store(form *forms.Form) error {
	r.forms[form.ID] = form
	return nil
}

func (r *fakeFormRepo) Update(form *forms.Form) error {
	r.forms[form.ID] = form
	return nil
}

func (r *fakeFormRepo) SoftDelete(id string) error {
	if form, ok := r.forms[id]; ok {
		now := time.Now().UTC()
		form.DeletedAt = &now
	}
	return nil
}

type fakeStepRepo struct {
	steps  map[string]*forms.Step
	fields *fakeFieldRepo
}

func newFakeStepRepo(fields *fakeFieldRepo) *fakeStepRepo {
	return &fakeStepRepo{steps: map[string]*forms.Step{}, fields: fields}
}

func (r *fakeStepRepo) FindByID(id string) (*forms.Step, error) {
	return r.steps[id], nil
}

func (r *fakeStepRepo) FindByFormID(formID string) ([]*forms.Step, error) {
	var result []*forms.Step
	for _, step := range r.steps {
		if step.FormID == formID {
			result = append(result, step)
		}
	}
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Order < result[i].Order {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	for _, step := range result {
		fields, _ := r.fields.FindByStepID(step.ID)
		step.Fields = fields
	}
	return result, nil
}

func (r *fakeStepRepo) MaxOrder(formID string) (int, error) {
	max := -1
	for _, step := range r.steps {
		if step.FormID == formID && step.Order > max {
			max = step.Order
		}
	}
	return max, nil
}

func (r *fakeStepRepo) Store(step *forms.Step) error {
	r.steps[step.ID] = step
	return nil
}

func (r *fakeStepRepo) Update(step *forms.Step) error {
	r.steps[step.ID] = step
	return nil
}

func (r *fakeStepRepo) DeleteAndReindex(id, formID string) error {
	delete(r.steps, id)
	remaining, _ := r.FindByFormID(formID)
	for position, step := range remaining {
		step.Order = position
	}
	return nil
}

func (r *fakeStepRepo) ReorderAtomic(formID string, stepIDs []string) error {
	for position, stepID := range stepIDs {
		if step, ok := r.steps[stepID]; ok && step.FormID == formID {
			step.Order = position
		}
	}
	return nil
}

type fakeFieldRepo struct {
	fields map[string]*forms.Field
}

func newFakeFieldRepo() *fakeFieldRepo {
	return &fakeFieldRepo{fields: map[string]*forms.Field{}}
}

func (r *fakeFieldRepo) FindByID(id string) (*forms.Field, error) {
	return r.fields[id], nil
}

func (r *fakeFieldRepo) FindByStepID(stepID string) ([]*forms.Field, error) {
	var result []*forms.Field
	for _, field := range r.fields {
		if field.StepID == stepID {
			result = append(result, field)
		}
	}
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Order < result[i].Order {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (r *fakeFieldRepo) MaxOrder(stepID string) (int, error) {
	max := -1
	for _, field := range r.fields {
		if field.StepID == stepID && field.Order > max {
			max = field.Order
		}
	}
	return max, nil
}

func (r *fakeFieldRepo) Store(field *forms.Field) error {
	r.fields[field.ID] = field
	return nil
}

func (r *fakeFieldRepo) Update(field *forms.Field) error {
	r.fields[field.ID] = field
	return nil
}

func (r *fakeFieldRepo) DeleteAndReindex(id, stepID string) error {
	delete(r.fields, id)
	remaining, _ := r.FindByStepID(stepID)
	for position, field := range remaining {
		field.Order = position
	}
	return nil
}

func (r *fakeFieldRepo) ReorderAtomic(stepID string, fieldIDs []string) error {
	for position, fieldID := range fieldIDs {
		if field, ok := r.fields[fieldID]; ok && field.StepID == stepID {
			field.Order = position
		}
	}
	return nil
}

// --- user repository fakes ---

type fakeUserRepo struct {
	byID    map[string]*users.User
	byEmail map[string]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*users.User{}, byEmail: map[string]*users.User{}}
}

func (r *fakeUserRepo) FindByID(id string) (*users.User, error) {
	return r.byID[id], nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*users.User, error) {
	return r.byEmail[email], nil
}

func (r *fakeUserRepo) Store(user *users.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

type fakeTokenRepo struct {
	byToken map[string]*users.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byToken: map[string]*users.RefreshToken{}}
}

func (r *fakeTokenRepo) Store(token *users.RefreshToken) error {
	r.byToken[token.Token] = token
	return nil
}

func (r *fakeTokenRepo) FindByToken(token string) (*users.RefreshToken, error) {
	return r.byToken[token], nil
}

func (r *fakeTokenRepo) Revoke(id string) error {
	for _, row := range r.byToken {
		if row.ID == id && row.RevokedAt == nil {
			now := time.Now().UTC()
			row.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeByToken(token string) error {
	if row, ok := r.byToken[token]; ok && row.RevokedAt == nil {
		now := time.Now().UTC()
		row.RevokedAt = &now
	}
	return nil
}
