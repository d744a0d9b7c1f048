// Package database provides database helper functions
package database

import (
	"strings"
	"time"

	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// GetSlowQueryThreshold returns the configured slow query threshold
// Default is 100ms, configurable via environment variable
func GetSlowQueryThreshold() time.Duration {
	return config.SlowQueryThreshold
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	threshold := GetSlowQueryThreshold()

	// Bulk scans over the events table are allowed a longer threshold.
	if strings.HasPrefix(query, "SCAN_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration)
	}
}
