// Package forms provides the SQL-based repositories for forms, steps and fields.
package forms

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// SQLFormRepository handles form persistence to database. Every read
// excludes soft-deleted rows.
type SQLFormRepository struct {
	db     *database.DB
	steps  *SQLStepRepository
	logger *logging.ChanneledLogger
}

// NewSQLFormRepository creates a new instance of the repository.
func NewSQLFormRepository(db *database.DB, steps *SQLStepRepository, logger *logging.ChanneledLogger) *SQLFormRepository {
	return &SQLFormRepository{
		db:     db,
		steps:  steps,
		logger: logger,
	}
}

// FindByID returns a form without its steps, or nil when no live row matches.
func (r *SQLFormRepository) FindByID(id string) (*forms.Form, error) {
	const query = `
		SELECT id, user_id, title, description, status, settings, created_at, updated_at, published_at
		FROM forms
		WHERE id = ? AND deleted_at IS NULL`

	start := time.Now()

	row := r.db.QueryRow(query, id)
	form, err := scanForm(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan form", "error", err.Error(), "formId", id)
		return nil, fmt.Errorf("failed to scan form: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return form, nil
}

// FindDetailByID returns a form with ordered steps and fields, or nil.
func (r *SQLFormRepository) FindDetailByID(id string) (*forms.Form, error) {
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

// FindByUserID returns a page of a user's forms, newest first, with step
// counts, plus the total count for pagination.
func (r *SQLFormRepository) FindByUserID(userID string, offset, limit int) ([]*forms.ListItem, int, error) {
	const countQuery = `SELECT COUNT(*) FROM forms WHERE user_id = ? AND deleted_at IS NULL`
	const query = `
		SELECT f.id, f.title, f.description, f.status, f.settings, f.created_at, f.updated_at, f.published_at,
		       (SELECT COUNT(*) FROM form_steps s WHERE s.form_id = f.id) AS step_count
		FROM forms f
		WHERE f.user_id = ? AND f.deleted_at IS NULL
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`

	start := time.Now()
	r.logger.Database().Debug("Loading forms for user", "userId", userID, "offset", offset, "limit", limit)

	var total int
	if err := r.db.QueryRow(countQuery, userID).Scan(&total); err != nil {
		r.logger.Database().Error("Failed to count forms for user", "error", err.Error(), "userId", userID)
		return nil, 0, fmt.Errorf("failed to count forms: %w", err)
	}

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		r.logger.Database().Error("Failed to query forms for user", "error", err.Error(), "userId", userID)
		return nil, 0, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	var items []*forms.ListItem
	for rows.Next() {
		var item forms.ListItem
		var description sql.NullString
		var settingsStr sql.NullString
		var createdAtStr, updatedAtStr string
		var publishedAtStr sql.NullString

		err := rows.Scan(&item.ID, &item.Title, &description, &item.Status, &settingsStr,
			&createdAtStr, &updatedAtStr, &publishedAtStr, &item.StepCount)
		if err != nil {
			r.logger.Database().Error("Failed to scan form list row", "error", err.Error(), "userId", userID)
			continue
		}

		if description.Valid {
			item.Description = &description.String
		}
		if settingsStr.Valid && settingsStr.String != "" {
			if err := json.Unmarshal([]byte(settingsStr.String), &item.Settings); err != nil {
				r.logger.Database().Error("Failed to unmarshal form settings", "error", err.Error(), "formId", item.ID)
			}
		}
		if item.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			r.logger.Database().Error("Failed to parse form timestamp", "error", err.Error(), "formId", item.ID)
			continue
		}
		if item.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
			r.logger.Database().Error("Failed to parse form timestamp", "error", err.Error(), "formId", item.ID)
			continue
		}
		if publishedAtStr.Valid && publishedAtStr.String != "" {
			if t, err := parseTimestamp(publishedAtStr.String); err == nil {
				item.PublishedAt = &t
			}
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for forms", "error", err.Error(), "userId", userID)
		return nil, 0, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Forms loaded for user", "userId", userID, "count", len(items), "total", total, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return items, total, nil
}

// ListIDsByUserID returns the ids of a user's non-deleted forms.
func (r *SQLFormRepository) ListIDsByUserID(userID string) ([]string, error) {
	const query = `SELECT id FROM forms WHERE user_id = ? AND deleted_at IS NULL`

	start := time.Now()

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Database().Error("Failed to query form IDs for user", "error", err.Error(), "userId", userID)
		return nil, fmt.Errorf("failed to query form IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan form ID: %w", err)
		}
		ids = append(ids, id)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return ids, rows.Err()
}

// Store inserts a form row.
func (r *SQLFormRepository) Store(form *forms.Form) error {
	const query = `
		INSERT INTO forms (id, user_id, title, description, status, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	settingsJSON, err := json.Marshal(form.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal form settings: %w", err)
	}

	start := time.Now()
	r.logger.Database().Debug("Executing form insert", "formId", form.ID, "userId", form.UserID)

	_, err = r.db.Exec(
		query,
		form.ID,
		form.UserID,
		form.Title,
		form.Description,
		string(form.Status),
		string(settingsJSON),
		form.CreatedAt.Format("2006-01-02 15:04:05"),
		form.UpdatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("Form insert failed", "error", err.Error(), "formId", form.ID)
		return fmt.Errorf("failed to insert form: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Form insert completed", "formId", form.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// Update writes the mutable columns for an existing row.
func (r *SQLFormRepository) Update(form *forms.Form) error {
	const query = `
		UPDATE forms
		SET title = ?, description = ?, status = ?, settings = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`

	settingsJSON, err := json.Marshal(form.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal form settings: %w", err)
	}

	var publishedAt any
	if form.PublishedAt != nil {
		publishedAt = form.PublishedAt.Format("2006-01-02 15:04:05")
	}

	start := time.Now()
	r.logger.Database().Debug("Executing form update", "formId", form.ID)

	_, err = r.db.Exec(
		query,
		form.Title,
		form.Description,
		string(form.Status),
		string(settingsJSON),
		publishedAt,
		form.UpdatedAt.Format("2006-01-02 15:04:05"),
		form.ID,
	)
	if err != nil {
		r.logger.Database().Error("Form update failed", "error", err.Error(), "formId", form.ID)
		return fmt.Errorf("failed to update form: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Form update completed", "formId", form.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// SoftDelete stamps deleted_at on a form. The row and its events stay in
// place for historical queries that do not exclude deleted forms.
func (r *SQLFormRepository) SoftDelete(id string) error {
	const query = `UPDATE forms SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	start := time.Now()
	r.logger.Database().Debug("Executing form soft delete", "formId", id)

	_, err := r.db.Exec(query, now, now, id)
	if err != nil {
		r.logger.Database().Error("Form soft delete failed", "error", err.Error(), "formId", id)
		return fmt.Errorf("failed to soft delete form: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Form soft delete completed", "formId", id, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

func scanForm(scan func(dest ...any) error) (*forms.Form, error) {
	var form forms.Form
	var description sql.NullString
	var settingsStr sql.NullString
	var createdAtStr, updatedAtStr string
	var publishedAtStr sql.NullString

	err := scan(&form.ID, &form.UserID, &form.Title, &description, &form.Status, &settingsStr,
		&createdAtStr, &updatedAtStr, &publishedAtStr)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		form.Description = &description.String
	}
	if settingsStr.Valid && settingsStr.String != "" {
		if err := json.Unmarshal([]byte(settingsStr.String), &form.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal form settings: %w", err)
		}
	}
	if form.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if form.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}
	if publishedAtStr.Valid && publishedAtStr.String != "" {
		if t, err := parseTimestamp(publishedAtStr.String); err == nil {
			form.PublishedAt = &t
		}
	}

	return &form, nil
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
