// Package services provides application-level orchestration services
package services

import (
	"context"
	"math"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/analytics"
	"github.com/formflowhq/formflow-go/internal/domain/events"
	"github.com/formflowhq/formflow-go/internal/infrastructure/caching"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// AnalyticsService computes the per-form aggregates: overview, funnel and
// timeline. Each read goes through the aggregate cache; a cache outage
// degrades to computing fresh on every call.
type AnalyticsService struct {
	forms       analytics.FormSource
	events      events.Repository
	cache       *caching.AggregateCache
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(forms analytics.FormSource, events events.Repository, cache *caching.AggregateCache, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsService {
	return &AnalyticsService{
		forms:       forms,
		events:      events,
		cache:       cache,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetFormOverview returns whole-form conversion metrics. Ownership is
// verified by the caller before invocation, never here.
func (s *AnalyticsService) GetFormOverview(ctx context.Context, formID string) (*analytics.OverviewResult, error) {
	marker := s.perfTracker.StartOperation("compute_overview")
	defer marker.Complete()

	result, err := caching.GetOrCompute(s.cache, ctx, caching.OverviewKey(formID), func() (*analytics.OverviewResult, error) {
		return s.computeOverview(formID)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return result, nil
}

func (s *AnalyticsService) computeOverview(formID string) (*analytics.OverviewResult, error) {
	start := time.Now()

	totalViews, err := s.events.CountByKind(formID, events.KindView)
	if err != nil {
		return nil, err
	}
	totalStarts, err := s.events.CountByKind(formID, events.KindStart)
	if err != nil {
		return nil, err
	}
	// SUBMIT events, not submission rows. The two can diverge when one of
	// the writes fails; this metric stays event-sourced on purpose.
	totalSubmissions, err := s.events.CountByKind(formID, events.KindSubmit)
	if err != nil {
		return nil, err
	}

	result := &analytics.OverviewResult{
		TotalViews:       totalViews,
		TotalStarts:      totalStarts,
		TotalSubmissions: totalSubmissions,
	}
	if totalViews > 0 {
		result.ConversionRate = roundRate(float64(totalSubmissions) / float64(totalViews) * 100)
		result.StartRate = roundRate(float64(totalStarts) / float64(totalViews) * 100)
	}
	if totalStarts > 0 {
		result.CompletionRate = roundRate(float64(totalSubmissions) / float64(totalStarts) * 100)
	}

	s.logger.Analytics().Info("Computed form overview",
		"formId", formID,
		"views", totalViews,
		"starts", totalStarts,
		"submissions", totalSubmissions,
		"duration", time.Since(start))
	return result, nil
}

// GetFormFunnel returns one entry per step in ascending order with drop-off
// rates chained by step position.
func (s *AnalyticsService) GetFormFunnel(ctx context.Context, formID string) ([]analytics.FunnelEntry, error) {
	marker := s.perfTracker.StartOperation("compute_funnel")
	defer marker.Complete()

	result, err := caching.GetOrCompute(s.cache, ctx, caching.FunnelKey(formID), func() ([]analytics.FunnelEntry, error) {
		return s.computeFunnel(formID)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return result, nil
}

func (s *AnalyticsService) computeFunnel(formID string) ([]analytics.FunnelEntry, error) {
	start := time.Now()

	steps, err := s.forms.GetStepsOrdered(formID)
	if err != nil {
		return nil, err
	}

	totalStarts, err := s.events.CountByKind(formID, events.KindStart)
	if err != nil {
		return nil, err
	}
	completionsByOrder, err := s.events.GroupCountByStepOrder(formID, events.KindStepComplete)
	if err != nil {
		return nil, err
	}

	funnel := make([]analytics.FunnelEntry, 0, len(steps))
	previousCount := totalStarts
	for _, step := range steps {
		completions := completionsByOrder[step.Order]

		// Chained by position through the ordered step list, not by raw
		// order value. Unclamped: late or duplicate events can push the
		// rate negative and that is reported as-is.
		var dropOff float64
		if previousCount > 0 {
			dropOff = roundRate(float64(previousCount-completions) / float64(previousCount) * 100)
		}

		funnel = append(funnel, analytics.FunnelEntry{
			StepOrder:   step.Order,
			StepTitle:   step.Title,
			Completions: completions,
			DropOffRate: dropOff,
		})

		previousCount = completions
	}

	s.logger.Analytics().Info("Computed form funnel",
		"formId", formID,
		"steps", len(steps),
		"starts", totalStarts,
		"duration", time.Since(start))
	return funnel, nil
}

// GetFormTimeline returns exactly 30 calendar-day entries covering
// [today-29, today] inclusive, oldest first.
func (s *AnalyticsService) GetFormTimeline(ctx context.Context, formID string) ([]analytics.TimelineEntry, error) {
	marker := s.perfTracker.StartOperation("compute_timeline")
	defer marker.Complete()

	result, err := caching.GetOrCompute(s.cache, ctx, caching.TimelineKey(formID), func() ([]analytics.TimelineEntry, error) {
		return s.computeTimeline(formID)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return result, nil
}

func (s *AnalyticsService) computeTimeline(formID string) ([]analytics.TimelineEntry, error) {
	start := time.Now()

	windowDays := config.TimelineWindowDays
	today := time.Now().UTC().Truncate(24 * time.Hour)

	// Zero-fill every bucket before scanning so quiet days still appear.
	buckets := make(map[string]*analytics.TimelineEntry, windowDays)
	dates := make([]string, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		buckets[date] = &analytics.TimelineEntry{Date: date}
		dates = append(dates, date)
	}

	// The scan cutoff is one day wider than the bucket window; events whose
	// UTC day falls outside the initialized buckets are silently dropped.
	cutoff := today.AddDate(0, 0, -windowDays)

	viewTimes, err := s.events.FindTimestampsInRange(formID, events.KindView, cutoff)
	if err != nil {
		return nil, err
	}
	for _, ts := range viewTimes {
		if bucket, ok := buckets[ts.UTC().Format("2006-01-02")]; ok {
			bucket.Views++
		}
	}

	submitTimes, err := s.events.FindTimestampsInRange(formID, events.KindSubmit, cutoff)
	if err != nil {
		return nil, err
	}
	for _, ts := range submitTimes {
		if bucket, ok := buckets[ts.UTC().Format("2006-01-02")]; ok {
			bucket.Submissions++
		}
	}

	timeline := make([]analytics.TimelineEntry, 0, windowDays)
	for _, date := range dates {
		timeline = append(timeline, *buckets[date])
	}

	s.logger.Analytics().Info("Computed form timeline",
		"formId", formID,
		"views", len(viewTimes),
		"submissions", len(submitTimes),
		"duration", time.Since(start))
	return timeline, nil
}

// roundRate rounds a percentage to one decimal place.
func roundRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}
