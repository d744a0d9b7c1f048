// Package submissions provides the SQL-based submission repository.
package submissions

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/submissions"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// SQLSubmissionRepository handles submission persistence to database.
type SQLSubmissionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSubmissionRepository creates a new instance of the repository.
func NewSQLSubmissionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSubmissionRepository {
	return &SQLSubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// Store saves a completed submission.
func (r *SQLSubmissionRepository) Store(submission *submissions.Submission) error {
	const query = `
		INSERT INTO submissions (id, form_id, data, metadata, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	dataJSON, err := json.Marshal(submission.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal submission data: %w", err)
	}

	var metadataJSON any
	if submission.Metadata != nil {
		raw, err := json.Marshal(submission.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal submission metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	start := time.Now()
	r.logger.Database().Debug("Executing submission insert", "submissionId", submission.ID, "formId", submission.FormID)

	_, err = r.db.Exec(
		query,
		submission.ID,
		submission.FormID,
		string(dataJSON),
		metadataJSON,
		submission.CompletedAt.Format("2006-01-02 15:04:05"),
		submission.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("Submission insert failed", "error", err.Error(), "submissionId", submission.ID, "formId", submission.FormID)
		return fmt.Errorf("failed to store submission: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Submission insert completed",
		"submissionId", submission.ID,
		"formId", submission.FormID,
		"duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// FindByID retrieves a single submission. Returns nil when not found.
func (r *SQLSubmissionRepository) FindByID(id string) (*submissions.Submission, error) {
	const query = `SELECT id, form_id, data, metadata, completed_at, created_at FROM submissions WHERE id = ?`

	start := time.Now()

	row := r.db.QueryRow(query, id)
	submission, err := r.scanSubmission(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan submission", "error", err.Error(), "submissionId", id)
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return submission, nil
}

// FindByFormID retrieves a page of submissions for a form, newest first.
func (r *SQLSubmissionRepository) FindByFormID(formID string, offset, limit int) ([]*submissions.Submission, error) {
	const query = `
		SELECT id, form_id, data, metadata, completed_at, created_at
		FROM submissions
		WHERE form_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	start := time.Now()
	r.logger.Database().Debug("Loading submissions for form", "formId", formID, "offset", offset, "limit", limit)

	rows, err := r.db.Query(query, formID, limit, offset)
	if err != nil {
		r.logger.Database().Error("Failed to query submissions", "error", err.Error(), "formId", formID)
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var result []*submissions.Submission
	for rows.Next() {
		submission, err := r.scanSubmission(rows.Scan)
		if err != nil {
			r.logger.Database().Error("Failed to scan submission row", "error", err.Error(), "formId", formID)
			continue
		}
		result = append(result, submission)
	}

	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for submissions", "error", err.Error(), "formId", formID)
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Submissions loaded for form", "formId", formID, "count", len(result), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return result, nil
}

// CountByFormID counts the submission rows for one form.
func (r *SQLSubmissionRepository) CountByFormID(formID string) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions WHERE form_id = ?`

	start := time.Now()

	var count int
	err := r.db.QueryRow(query, formID).Scan(&count)
	if err != nil {
		r.logger.Database().Error("Failed to count submissions", "error", err.Error(), "formId", formID)
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return count, nil
}

// CountByFormIDs counts submission rows across a set of forms.
func (r *SQLSubmissionRepository) CountByFormIDs(formIDs []string) (int, error) {
	if len(formIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(formIDs))
	args := make([]any, len(formIDs))
	for i, id := range formIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT COUNT(*) FROM submissions WHERE form_id IN (` + strings.Join(placeholders, ",") + `)`

	start := time.Now()

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		r.logger.Database().Error("Failed to count submissions for forms", "error", err.Error(), "formCount", len(formIDs))
		return 0, fmt.Errorf("failed to count submissions for forms: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return count, nil
}

func (r *SQLSubmissionRepository) scanSubmission(scan func(dest ...any) error) (*submissions.Submission, error) {
	var submission submissions.Submission
	var dataStr string
	var metadataStr sql.NullString
	var completedAtStr, createdAtStr string

	if err := scan(&submission.ID, &submission.FormID, &dataStr, &metadataStr, &completedAtStr, &createdAtStr); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(dataStr), &submission.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission data: %w", err)
	}
	if metadataStr.Valid && metadataStr.String != "" {
		if err := json.Unmarshal([]byte(metadataStr.String), &submission.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission metadata: %w", err)
		}
	}

	completedAt, err := parseTimestamp(completedAtStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTimestamp(createdAtStr)
	if err != nil {
		return nil, err
	}
	submission.CompletedAt = completedAt
	submission.CreatedAt = createdAt

	return &submission, nil
}

// parseTimestamp handles multiple timestamp formats
func parseTimestamp(timestampStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, timestampStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", timestampStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", timestampStr); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp format: %s", timestampStr)
}
