package services

import (
	"context"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/analytics"
	"github.com/formflowhq/formflow-go/internal/domain/events"
	"github.com/formflowhq/formflow-go/internal/domain/submissions"
	"github.com/formflowhq/formflow-go/internal/infrastructure/caching"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
)

// DashboardAnalyticsService sums activity across all of a user's non-deleted
// forms. Note the metric-source asymmetry with the per-form overview:
// totalSubmissions here counts submission rows, while the overview counts
// SUBMIT events. Both behaviors are kept per component.
type DashboardAnalyticsService struct {
	forms       analytics.FormSource
	events      events.Repository
	submissions submissions.Repository
	cache       *caching.AggregateCache
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDashboardAnalyticsService creates a new dashboard analytics service.
func NewDashboardAnalyticsService(forms analytics.FormSource, events events.Repository, submissions submissions.Repository, cache *caching.AggregateCache, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DashboardAnalyticsService {
	return &DashboardAnalyticsService{
		forms:       forms,
		events:      events,
		submissions: submissions,
		cache:       cache,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetDashboardStats returns the per-user aggregate, cached per user id.
func (s *DashboardAnalyticsService) GetDashboardStats(ctx context.Context, userID string) (*analytics.DashboardResult, error) {
	marker := s.perfTracker.StartOperation("compute_dashboard")
	defer marker.Complete()

	result, err := caching.GetOrCompute(s.cache, ctx, caching.DashboardKey(userID), func() (*analytics.DashboardResult, error) {
		return s.computeDashboard(userID)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return result, nil
}

func (s *DashboardAnalyticsService) computeDashboard(userID string) (*analytics.DashboardResult, error) {
	start := time.Now()

	formIDs, err := s.forms.ListOwnedFormIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(formIDs) == 0 {
		// Zero owned forms short-circuits; no store queries.
		return &analytics.DashboardResult{}, nil
	}

	totalSubmissions, err := s.submissions.CountByFormIDs(formIDs)
	if err != nil {
		return nil, err
	}
	totalViews, err := s.events.CountByKindForForms(formIDs, events.KindView)
	if err != nil {
		return nil, err
	}
	submitEvents, err := s.events.CountByKindForForms(formIDs, events.KindSubmit)
	if err != nil {
		return nil, err
	}

	result := &analytics.DashboardResult{
		TotalForms:       len(formIDs),
		TotalSubmissions: totalSubmissions,
		TotalViews:       totalViews,
	}
	if totalViews > 0 {
		// Pooled rate: total SUBMIT events over total views, not a mean of
		// per-form rates.
		result.AverageConversionRate = roundRate(float64(submitEvents) / float64(totalViews) * 100)
	}

	s.logger.Analytics().Info("Computed dashboard stats",
		"userId", userID,
		"forms", len(formIDs),
		"submissions", totalSubmissions,
		"views", totalViews,
		"duration", time.Since(start))
	return result, nil
}
