package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/domain/analytics"
	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/events"
)

func newAnalyticsService(t *testing.T, source *fakeFormSource, repo *fakeEventRepo) *AnalyticsService {
	t.Helper()
	return NewAnalyticsService(source, repo, uncachedCache(t), testLogger(t), testTracker())
}

func TestGetFormOverviewRates(t *testing.T) {
	repo := newFakeEventRepo()
	repo.counts[events.KindView] = 200
	repo.counts[events.KindStart] = 140
	repo.counts[events.KindSubmit] = 119

	service := newAnalyticsService(t, &fakeFormSource{}, repo)

	result, err := service.GetFormOverview(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Equal(t, 200, result.TotalViews)
	assert.Equal(t, 140, result.TotalStarts)
	assert.Equal(t, 119, result.TotalSubmissions)
	assert.Equal(t, 59.5, result.ConversionRate)
	assert.Equal(t, 70.0, result.StartRate)
	assert.Equal(t, 85.0, result.CompletionRate)
}

func TestGetFormOverviewZeroViews(t *testing.T) {
	repo := newFakeEventRepo()
	service := newAnalyticsService(t, &fakeFormSource{}, repo)

	result, err := service.GetFormOverview(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.ConversionRate)
	assert.Equal(t, 0.0, result.StartRate)
	assert.Equal(t, 0.0, result.CompletionRate)
}

func TestGetFormFunnelChainsByPosition(t *testing.T) {
	source := &fakeFormSource{steps: []analytics.StepInfo{
		{Order: 0, Title: "About you"},
		{Order: 1, Title: "Details"},
		{Order: 2, Title: "Review"},
	}}
	repo := newFakeEventRepo()
	repo.counts[events.KindStart] = 100
	repo.groupByOrder = map[int]int{0: 80, 1: 60, 2: 51}

	service := newAnalyticsService(t, source, repo)

	funnel, err := service.GetFormFunnel(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Len(t, funnel, 3)

	assert.Equal(t, 80, funnel[0].Completions)
	assert.Equal(t, 20.0, funnel[0].DropOffRate)
	assert.Equal(t, 60, funnel[1].Completions)
	assert.Equal(t, 25.0, funnel[1].DropOffRate)
	assert.Equal(t, 51, funnel[2].Completions)
	assert.Equal(t, 15.0, funnel[2].DropOffRate)
}

func TestGetFormFunnelNoEvents(t *testing.T) {
	source := &fakeFormSource{steps: []analytics.StepInfo{
		{Order: 0, Title: "One"},
		{Order: 1, Title: "Two"},
	}}
	service := newAnalyticsService(t, source, newFakeEventRepo())

	funnel, err := service.GetFormFunnel(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Len(t, funnel, 2)
	for _, entry := range funnel {
		assert.Equal(t, 0, entry.Completions)
		assert.Equal(t, 0.0, entry.DropOffRate)
	}
}

func TestGetFormFunnelNegativeDropOff(t *testing.T) {
	source := &fakeFormSource{steps: []analytics.StepInfo{
		{Order: 0, Title: "One"},
		{Order: 1, Title: "Two"},
	}}
	repo := newFakeEventRepo()
	repo.counts[events.KindStart] = 10
	// Duplicate step completions can exceed the previous count.
	repo.groupByOrder = map[int]int{0: 10, 1: 12}

	service := newAnalyticsService(t, source, repo)

	funnel, err := service.GetFormFunnel(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Equal(t, -20.0, funnel[1].DropOffRate)
}

func TestGetFormFunnelMissingForm(t *testing.T) {
	source := &fakeFormSource{stepsErr: apperr.NotFound("form not found")}
	service := newAnalyticsService(t, source, newFakeEventRepo())

	_, err := service.GetFormFunnel(context.Background(), "missing")
	assert.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGetFormTimelineWindow(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	repo := newFakeEventRepo()
	repo.timestamps[events.KindView] = []time.Time{
		today.Add(3 * time.Hour),
		today.AddDate(0, 0, -29).Add(time.Hour),
		today.AddDate(0, 0, -30), // exactly one day before the window
	}
	repo.timestamps[events.KindSubmit] = []time.Time{
		today.Add(5 * time.Hour),
	}

	service := newAnalyticsService(t, &fakeFormSource{}, repo)

	timeline, err := service.GetFormTimeline(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Len(t, timeline, 30)

	assert.Equal(t, today.AddDate(0, 0, -29).Format("2006-01-02"), timeline[0].Date)
	assert.Equal(t, today.Format("2006-01-02"), timeline[29].Date)

	assert.Equal(t, 1, timeline[0].Views)
	assert.Equal(t, 1, timeline[29].Views)
	assert.Equal(t, 1, timeline[29].Submissions)

	totalViews := 0
	for _, entry := range timeline {
		totalViews += entry.Views
	}
	// The day-minus-30 view never lands in any bucket.
	assert.Equal(t, 2, totalViews)
}

func TestGetFormTimelineZeroFilled(t *testing.T) {
	service := newAnalyticsService(t, &fakeFormSource{}, newFakeEventRepo())

	timeline, err := service.GetFormTimeline(context.Background(), "form-1")
	assert.NoError(t, err)
	assert.Len(t, timeline, 30)
	for i, entry := range timeline {
		assert.Equal(t, 0, entry.Views, "entry %d", i)
		assert.Equal(t, 0, entry.Submissions, "entry %d", i)
		assert.NotEmpty(t, entry.Date)
	}
	// Ascending dates.
	for i := 1; i < len(timeline); i++ {
		assert.Less(t, timeline[i-1].Date, timeline[i].Date)
	}
}
