package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/domain/events"
)

func TestGetDashboardStatsNoForms(t *testing.T) {
	eventRepo := newFakeEventRepo()
	submissionRepo := newFakeSubmissionRepo()
	service := NewDashboardAnalyticsService(&fakeFormSource{}, eventRepo, submissionRepo,
		uncachedCache(t), testLogger(t), testTracker())

	result, err := service.GetDashboardStats(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, result.TotalForms)
	assert.Equal(t, 0, result.TotalSubmissions)
	assert.Equal(t, 0, result.TotalViews)
	assert.Equal(t, 0.0, result.AverageConversionRate)

	// No store queries fire when the user owns nothing.
	assert.Equal(t, 0, eventRepo.queries)
	assert.Equal(t, 0, submissionRepo.queries)
}

func TestGetDashboardStatsPooledRate(t *testing.T) {
	source := &fakeFormSource{ownedIDs: []string{"form-1", "form-2", "form-3"}}
	eventRepo := newFakeEventRepo()
	eventRepo.countsByForms[events.KindView] = 400
	eventRepo.countsByForms[events.KindSubmit] = 90
	submissionRepo := newFakeSubmissionRepo()
	submissionRepo.totalCount = 87

	service := NewDashboardAnalyticsService(source, eventRepo, submissionRepo,
		uncachedCache(t), testLogger(t), testTracker())

	result, err := service.GetDashboardStats(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalForms)
	// Submission rows, not SUBMIT events.
	assert.Equal(t, 87, result.TotalSubmissions)
	assert.Equal(t, 400, result.TotalViews)
	// Rate uses SUBMIT events over pooled views: 90/400.
	assert.Equal(t, 22.5, result.AverageConversionRate)
}

func TestGetDashboardStatsZeroViews(t *testing.T) {
	source := &fakeFormSource{ownedIDs: []string{"form-1"}}
	submissionRepo := newFakeSubmissionRepo()
	submissionRepo.totalCount = 5

	service := NewDashboardAnalyticsService(source, newFakeEventRepo(), submissionRepo,
		uncachedCache(t), testLogger(t), testTracker())

	result, err := service.GetDashboardStats(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, result.TotalSubmissions)
	assert.Equal(t, 0.0, result.AverageConversionRate)
}
