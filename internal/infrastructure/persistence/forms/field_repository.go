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

// SQLFieldRepository handles form field persistence to database. Field
// orders follow the same dense 0..n-1 invariant as steps.
type SQLFieldRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLFieldRepository creates a new instance of the repository.
func NewSQLFieldRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLFieldRepository {
	return &SQLFieldRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID returns a field, or nil.
func (r *SQLFieldRepository) FindByID(id string) (*forms.Field, error) {
	const query = `
		SELECT id, step_id, type, label, placeholder, required, field_order, options, validation, config, created_at, updated_at
		FROM form_fields
		WHERE id = ?`

	start := time.Now()

	row := r.db.QueryRow(query, id)
	field, err := scanField(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan field", "error", err.Error(), "fieldId", id)
		return nil, fmt.Errorf("failed to scan field: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return field, nil
}

// FindByStepID returns a step's fields in ascending order.
func (r *SQLFieldRepository) FindByStepID(stepID string) ([]*forms.Field, error) {
	const query = `
		SELECT id, step_id, type, label, placeholder, required, field_order, options, validation, config, created_at, updated_at
		FROM form_fields
		WHERE step_id = ?
		ORDER BY field_order ASC`

	start := time.Now()

	rows, err := r.db.Query(query, stepID)
	if err != nil {
		r.logger.Database().Error("Failed to query fields", "error", err.Error(), "stepId", stepID)
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	var fields []*forms.Field
	for rows.Next() {
		field, err := scanField(rows.Scan)
		if err != nil {
			r.logger.Database().Error("Failed to scan field row", "error", err.Error(), "stepId", stepID)
			continue
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for fields", "error", err.Error(), "stepId", stepID)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return fields, nil
}

// MaxOrder returns the highest order value for a step, or -1 when the step
// has no fields.
func (r *SQLFieldRepository) MaxOrder(stepID string) (int, error) {
	const query = `SELECT COALESCE(MAX(field_order), -1) FROM form_fields WHERE step_id = ?`

	var max int
	if err := r.db.QueryRow(query, stepID).Scan(&max); err != nil {
		r.logger.Database().Error("Failed to query max field order", "error", err.Error(), "stepId", stepID)
		return 0, fmt.Errorf("failed to query max field order: %w", err)
	}
	return max, nil
}

// Store inserts a field row.
func (r *SQLFieldRepository) Store(field *forms.Field) error {
	const query = `
		INSERT INTO form_fields (id, step_id, type, label, placeholder, required, field_order, options, validation, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	optionsJSON, validationJSON, configJSON, err := marshalFieldBlobs(field)
	if err != nil {
		return err
	}

	start := time.Now()
	r.logger.Database().Debug("Executing field insert", "fieldId", field.ID, "stepId", field.StepID, "order", field.Order)

	_, err = r.db.Exec(
		query,
		field.ID,
		field.StepID,
		field.Type,
		field.Label,
		field.Placeholder,
		field.Required,
		field.Order,
		optionsJSON,
		validationJSON,
		configJSON,
		field.CreatedAt.Format("2006-01-02 15:04:05"),
		field.UpdatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("Field insert failed", "error", err.Error(), "fieldId", field.ID)
		return fmt.Errorf("failed to insert field: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Field insert completed", "fieldId", field.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// Update writes the mutable attributes and updated_at for an existing row.
func (r *SQLFieldRepository) Update(field *forms.Field) error {
	const query = `
		UPDATE form_fields
		SET type = ?, label = ?, placeholder = ?, required = ?, options = ?, validation = ?, config = ?, updated_at = ?
		WHERE id = ?`

	optionsJSON, validationJSON, configJSON, err := marshalFieldBlobs(field)
	if err != nil {
		return err
	}

	start := time.Now()
	r.logger.Database().Debug("Executing field update", "fieldId", field.ID)

	_, err = r.db.Exec(
		query,
		field.Type,
		field.Label,
		field.Placeholder,
		field.Required,
		optionsJSON,
		validationJSON,
		configJSON,
		field.UpdatedAt.Format("2006-01-02 15:04:05"),
		field.ID,
	)
	if err != nil {
		r.logger.Database().Error("Field update failed", "error", err.Error(), "fieldId", field.ID)
		return fmt.Errorf("failed to update field: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Field update completed", "fieldId", field.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// DeleteAndReindex removes a field and re-densifies the remaining orders to
// 0..n-1 inside a single transaction.
func (r *SQLFieldRepository) DeleteAndReindex(id, stepID string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing field delete with reindex", "fieldId", id, "stepId", stepID)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin field delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM form_fields WHERE id = ?`, id); err != nil {
		r.logger.Database().Error("Field delete failed", "error", err.Error(), "fieldId", id)
		return fmt.Errorf("failed to delete field: %w", err)
	}

	rows, err := tx.Query(`SELECT id FROM form_fields WHERE step_id = ? ORDER BY field_order ASC`, stepID)
	if err != nil {
		return fmt.Errorf("failed to query fields for reindex: %w", err)
	}

	var ids []string
	for rows.Next() {
		var fieldID string
		if err := rows.Scan(&fieldID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan field ID for reindex: %w", err)
		}
		ids = append(ids, fieldID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for position, fieldID := range ids {
		if _, err := tx.Exec(`UPDATE form_fields SET field_order = ? WHERE id = ?`, position, fieldID); err != nil {
			return fmt.Errorf("failed to reindex field: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit field delete transaction: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Field delete completed", "fieldId", id, "stepId", stepID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery("DELETE_REINDEX form_fields", duration)
	}
	return nil
}

// ReorderAtomic applies order = position for each id inside a single
// transaction.
func (r *SQLFieldRepository) ReorderAtomic(stepID string, fieldIDs []string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing field reorder", "stepId", stepID, "count", len(fieldIDs))

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin field reorder transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	for position, fieldID := range fieldIDs {
		if _, err := tx.Exec(`UPDATE form_fields SET field_order = ?, updated_at = ? WHERE id = ? AND step_id = ?`,
			position, now, fieldID, stepID); err != nil {
			r.logger.Database().Error("Field reorder failed", "error", err.Error(), "fieldId", fieldID, "stepId", stepID)
			return fmt.Errorf("failed to reorder field: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit field reorder transaction: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Field reorder completed", "stepId", stepID, "count", len(fieldIDs), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery("REORDER form_fields", duration)
	}
	return nil
}

func marshalFieldBlobs(field *forms.Field) (options, validation, config any, err error) {
	if field.Options != nil {
		raw, err := json.Marshal(field.Options)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal field options: %w", err)
		}
		options = string(raw)
	}
	if field.Validation != nil {
		raw, err := json.Marshal(field.Validation)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal field validation: %w", err)
		}
		validation = string(raw)
	}
	if field.Config != nil {
		raw, err := json.Marshal(field.Config)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal field config: %w", err)
		}
		config = string(raw)
	}
	return options, validation, config, nil
}

func scanField(scan func(dest ...any) error) (*forms.Field, error) {
	var field forms.Field
	var placeholder sql.NullString
	var optionsStr, validationStr, configStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(&field.ID, &field.StepID, &field.Type, &field.Label, &placeholder, &field.Required,
		&field.Order, &optionsStr, &validationStr, &configStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if placeholder.Valid {
		field.Placeholder = &placeholder.String
	}
	if optionsStr.Valid && optionsStr.String != "" {
		if err := json.Unmarshal([]byte(optionsStr.String), &field.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field options: %w", err)
		}
	}
	if validationStr.Valid && validationStr.String != "" {
		if err := json.Unmarshal([]byte(validationStr.String), &field.Validation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field validation: %w", err)
		}
	}
	if configStr.Valid && configStr.String != "" {
		if err := json.Unmarshal([]byte(configStr.String), &field.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field config: %w", err)
		}
	}
	if field.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if field.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &field, nil
}
