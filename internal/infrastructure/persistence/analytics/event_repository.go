// Package analytics provides the concrete SQL-based implementations
// for interaction event persistence.
//
// PURPOSE: Store tracking events to database as they happen and serve
// the aggregate count queries the analytics services are built on.
package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/events"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// SQLEventRepository handles interaction event persistence to database.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:     db,
		logger: logger,
	}
}

// Store appends an interaction event to the events table.
func (r *SQLEventRepository) Store(event *events.Event) error {
	const query = `
		INSERT INTO events (id, form_id, event_type, session_id, step_order, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var metadataJSON any
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	start := time.Now()
	r.logger.Database().Debug("Executing event insert",
		"eventId", event.ID,
		"formId", event.FormID,
		"type", event.Kind,
		"sessionId", event.SessionID)

	_, err := r.db.Exec(
		query,
		event.ID,
		event.FormID,
		string(event.Kind),
		event.SessionID,
		event.StepOrder, // NULL except for STEP_COMPLETE
		metadataJSON,
		event.CreatedAt.Format("2006-01-02 15:04:05"), // SQLite format
	)
	if err != nil {
		r.logger.Database().Error("Event insert failed",
			"error", err.Error(),
			"eventId", event.ID,
			"formId", event.FormID,
			"type", event.Kind)
		return fmt.Errorf("failed to store event: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Event insert completed",
		"eventId", event.ID,
		"formId", event.FormID,
		"type", event.Kind,
		"duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// CountByKind counts events of one kind for a form.
func (r *SQLEventRepository) CountByKind(formID string, kind events.Kind) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE form_id = ? AND event_type = ?`

	start := time.Now()

	var count int
	err := r.db.QueryRow(query, formID, string(kind)).Scan(&count)
	if err != nil {
		r.logger.Database().Error("Failed to count events", "error", err.Error(), "formId", formID, "type", kind)
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return count, nil
}

// CountByKindForForms counts events of one kind across a set of forms.
func (r *SQLEventRepository) CountByKindForForms(formIDs []string, kind events.Kind) (int, error) {
	if len(formIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(formIDs))
	args := make([]any, 0, len(formIDs)+1)
	for i, id := range formIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, string(kind))

	query := `SELECT COUNT(*) FROM events WHERE form_id IN (` + strings.Join(placeholders, ",") + `) AND event_type = ?`

	start := time.Now()

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		r.logger.Database().Error("Failed to count events for forms", "error", err.Error(), "formCount", len(formIDs), "type", kind)
		return 0, fmt.Errorf("failed to count events for forms: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return count, nil
}

// GroupCountByStepOrder counts events of one kind grouped by step order.
// Rows with a NULL step_order are excluded.
func (r *SQLEventRepository) GroupCountByStepOrder(formID string, kind events.Kind) (map[int]int, error) {
	const query = `
		SELECT step_order, COUNT(*)
		FROM events
		WHERE form_id = ? AND event_type = ? AND step_order IS NOT NULL
		GROUP BY step_order`

	start := time.Now()
	r.logger.Database().Debug("Grouping events by step order", "formId", formID, "type", kind)

	rows, err := r.db.Query(query, formID, string(kind))
	if err != nil {
		r.logger.Database().Error("Failed to group events by step order", "error", err.Error(), "formId", formID, "type", kind)
		return nil, fmt.Errorf("failed to group events by step order: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var stepOrder, count int
		if err := rows.Scan(&stepOrder, &count); err != nil {
			r.logger.Database().Error("Failed to scan step order count row", "error", err.Error(), "formId", formID)
			continue
		}
		counts[stepOrder] = count
	}

	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for step order counts", "error", err.Error(), "formId", formID)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "SCAN_"+query, time.Since(start))
	return counts, nil
}

// FindTimestampsInRange returns creation timestamps of events of one kind
// for a form, restricted to created_at >= from.
func (r *SQLEventRepository) FindTimestampsInRange(formID string, kind events.Kind, from time.Time) ([]time.Time, error) {
	const query = `
		SELECT created_at
		FROM events
		WHERE form_id = ? AND event_type = ? AND created_at >= ?
		ORDER BY created_at`

	start := time.Now()
	r.logger.Database().Debug("Loading event timestamps in range", "formId", formID, "type", kind, "from", from)

	rows, err := r.db.Query(query, formID, string(kind), from.Format("2006-01-02 15:04:05"))
	if err != nil {
		r.logger.Database().Error("Failed to query event timestamps", "error", err.Error(), "formId", formID, "type", kind)
		return nil, fmt.Errorf("failed to query event timestamps: %w", err)
	}
	defer rows.Close()

	var timestamps []time.Time
	for rows.Next() {
		var createdAtStr string
		if err := rows.Scan(&createdAtStr); err != nil {
			// Log warning but continue
			r.logger.Database().Error("Failed to scan event timestamp row", "error", err.Error())
			continue
		}

		createdAt, err := parseTimestamp(createdAtStr)
		if err != nil {
			// Log warning but continue
			r.logger.Database().Error("Failed to parse event timestamp", "error", err.Error(), "timestamp", createdAtStr)
			continue
		}

		timestamps = append(timestamps, createdAt)
	}

	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for event timestamps", "error", err.Error(), "formId", formID)
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Event timestamps loaded in range",
		"formId", formID,
		"type", kind,
		"count", len(timestamps),
		"duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "SCAN_"+query, duration)
	return timestamps, nil
}

// parseTimestamp handles multiple timestamp formats
func parseTimestamp(timestampStr string) (time.Time, error) {
	// Try RFC3339 first
	if t, err := time.Parse(time.RFC3339, timestampStr); err == nil {
		return t, nil
	}

	// Try SQLite format
	if t, err := time.Parse("2006-01-02 15:04:05", timestampStr); err == nil {
		return t, nil
	}

	// Try ISO format with milliseconds
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", timestampStr); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp format: %s", timestampStr)
}
