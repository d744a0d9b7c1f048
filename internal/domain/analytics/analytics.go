// Package analytics defines the aggregation result shapes and the narrow
// read capabilities the aggregators consume.
package analytics

// OverviewResult reports whole-form conversion metrics. All counts come from
// the event log (including totalSubmissions, which counts SUBMIT events and
// can diverge from the submission row count).
type OverviewResult struct {
	TotalViews       int     `json:"totalViews"`
	TotalStarts      int     `json:"totalStarts"`
	TotalSubmissions int     `json:"totalSubmissions"`
	ConversionRate   float64 `json:"conversionRate"`
	StartRate        float64 `json:"startRate"`
	CompletionRate   float64 `json:"completionRate"`
}

// FunnelEntry is one step of the drop-off funnel, in ascending step order.
type FunnelEntry struct {
	StepOrder   int     `json:"stepOrder"`
	StepTitle   string  `json:"stepTitle"`
	Completions int     `json:"completions"`
	DropOffRate float64 `json:"dropOffRate"`
}

// TimelineEntry is one calendar day of the trailing 30-day activity window.
type TimelineEntry struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
	Views       int    `json:"views"`
}

// DashboardResult sums activity across all of a user's non-deleted forms.
// AverageConversionRate is a pooled rate (total SUBMIT events over total
// views), not an arithmetic mean of per-form rates.
type DashboardResult struct {
	TotalForms            int     `json:"totalForms"`
	TotalSubmissions      int     `json:"totalSubmissions"`
	TotalViews            int     `json:"totalViews"`
	AverageConversionRate float64 `json:"averageConversionRate"`
}

// StepInfo is the minimal step shape the funnel needs.
type StepInfo struct {
	Order int
	Title string
}

// FormSource is the slice of form data the aggregators read. Implementations
// must exclude soft-deleted forms.
type FormSource interface {
	// GetStepsOrdered returns a form's steps in ascending order, or a
	// NotFound error when the form is missing or soft-deleted.
	GetStepsOrdered(formID string) ([]StepInfo, error)

	// ListOwnedFormIDs returns the ids of a user's non-deleted forms.
	ListOwnedFormIDs(userID string) ([]string, error)
}
