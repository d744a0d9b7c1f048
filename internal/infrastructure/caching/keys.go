package caching

import "fmt"

// Key builders for the analytics aggregates. Form-scoped aggregates key by
// form id, the dashboard keys by user id.
func OverviewKey(formID string) string {
	return fmt.Sprintf("analytics:overview:%s", formID)
}

func FunnelKey(formID string) string {
	return fmt.Sprintf("analytics:funnel:%s", formID)
}

func TimelineKey(formID string) string {
	return fmt.Sprintf("analytics:timeline:%s", formID)
}

func DashboardKey(userID string) string {
	return fmt.Sprintf("analytics:dashboard:%s", userID)
}
