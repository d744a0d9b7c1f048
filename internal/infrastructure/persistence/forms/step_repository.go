package forms

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// SQLStepRepository handles form step persistence to database. Step orders
// are kept dense (0..n-1) per form; the delete and reorder operations run
// inside transactions so the invariant holds under concurrent writes.
type SQLStepRepository struct {
	db     *database.DB
	fields *SQLFieldRepository
	logger *logging.ChanneledLogger
}

// NewSQLStepRepository creates a new instance of the repository.
func NewSQLStepRepository(db *database.DB, fields *SQLFieldRepository, logger *logging.ChanneledLogger) *SQLStepRepository {
	return &SQLStepRepository{
		db:     db,
		fields: fields,
		logger: logger,
	}
}

// FindByID returns a step without its fields, or nil.
func (r *SQLStepRepository) FindByID(id string) (*forms.Step, error) {
	const query = `
		SELECT id, form_id, title, description, step_order, created_at, updated_at
		FROM form_steps
		WHERE id = ?`

	start := time.Now()

	row := r.db.QueryRow(query, id)
	step, err := scanStep(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan step", "error", err.Error(), "stepId", id)
		return nil, fmt.Errorf("failed to scan step: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return step, nil
}

// FindByFormID returns a form's steps in ascending order, fields included.
func (r *SQLStepRepository) FindByFormID(formID string) ([]*forms.Step, error) {
	const query = `
		SELECT id, form_id, title, description, step_order, created_at, updated_at
		FROM form_steps
		WHERE form_id = ?
		ORDER BY step_order ASC`

	start := time.Now()
	r.logger.Database().Debug("Loading steps for form", "formId", formID)

	rows, err := r.db.Query(query, formID)
	if err != nil {
		r.logger.Database().Error("Failed to query steps", "error", err.Error(), "formId", formID)
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []*forms.Step
	for rows.Next() {
		step, err := scanStep(rows.Scan)
		if err != nil {
			r.logger.Database().Error("Failed to scan step row", "error", err.Error(), "formId", formID)
			continue
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		r.logger.Database().Error("Row iteration error for steps", "error", err.Error(), "formId", formID)
		return nil, err
	}

	for _, step := range steps {
		fields, err := r.fields.FindByStepID(step.ID)
		if err != nil {
			return nil, err
		}
		step.Fields = fields
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return steps, nil
}

// MaxOrder returns the highest order value for a form, or -1 when the form
// has no steps.
func (r *SQLStepRepository) MaxOrder(formID string) (int, error) {
	const query = `SELECT COALESCE(MAX(step_order), -1) FROM form_steps WHERE form_id = ?`

	var max int
	if err := r.db.QueryRow(query, formID).Scan(&max); err != nil {
		r.logger.Database().Error("Failed to query max step order", "error", err.Error(), "formId", formID)
		return 0, fmt.Errorf("failed to query max step order: %w", err)
	}
	return max, nil
}

// Store inserts a step row.
func (r *SQLStepRepository) Store(step *forms.Step) error {
	const query = `
		INSERT INTO form_steps (id, form_id, title, description, step_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing step insert", "stepId", step.ID, "formId", step.FormID, "order", step.Order)

	_, err := r.db.Exec(
		query,
		step.ID,
		step.FormID,
		step.Title,
		step.Description,
		step.Order,
		step.CreatedAt.Format("2006-01-02 15:04:05"),
		step.UpdatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("Step insert failed", "error", err.Error(), "stepId", step.ID)
		return fmt.Errorf("failed to insert step: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Step insert completed", "stepId", step.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// Update writes title, description and updated_at for an existing row.
func (r *SQLStepRepository) Update(step *forms.Step) error {
	const query = `UPDATE form_steps SET title = ?, description = ?, updated_at = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing step update", "stepId", step.ID)

	_, err := r.db.Exec(query, step.Title, step.Description, step.UpdatedAt.Format("2006-01-02 15:04:05"), step.ID)
	if err != nil {
		r.logger.Database().Error("Step update failed", "error", err.Error(), "stepId", step.ID)
		return fmt.Errorf("failed to update step: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Step update completed", "stepId", step.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// DeleteAndReindex removes a step and its fields, then re-densifies the
// remaining step orders to 0..n-1, all inside a single transaction.
func (r *SQLStepRepository) DeleteAndReindex(id, formID string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing step delete with reindex", "stepId", id, "formId", formID)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin step delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM form_fields WHERE step_id = ?`, id); err != nil {
		r.logger.Database().Error("Step field delete failed", "error", err.Error(), "stepId", id)
		return fmt.Errorf("failed to delete step fields: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM form_steps WHERE id = ?`, id); err != nil {
		r.logger.Database().Error("Step delete failed", "error", err.Error(), "stepId", id)
		return fmt.Errorf("failed to delete step: %w", err)
	}

	if err := reindexSteps(tx, formID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit step delete transaction: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Step delete completed", "stepId", id, "formId", formID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery("DELETE_REINDEX form_steps", duration)
	}
	return nil
}

// ReorderAtomic applies order = position for each id inside a single
// transaction, so concurrent reorders never interleave.
func (r *SQLStepRepository) ReorderAtomic(formID string, stepIDs []string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing step reorder", "formId", formID, "count", len(stepIDs))

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin step reorder transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	for position, stepID := range stepIDs {
		if _, err := tx.Exec(`UPDATE form_steps SET step_order = ?, updated_at = ? WHERE id = ? AND form_id = ?`,
			position, now, stepID, formID); err != nil {
			r.logger.Database().Error("Step reorder failed", "error", err.Error(), "stepId", stepID, "formId", formID)
			return fmt.Errorf("failed to reorder step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit step reorder transaction: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Step reorder completed", "formId", formID, "count", len(stepIDs), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery("REORDER form_steps", duration)
	}
	return nil
}

func reindexSteps(tx *sql.Tx, formID string) error {
	rows, err := tx.Query(`SELECT id FROM form_steps WHERE form_id = ? ORDER BY step_order ASC`, formID)
	if err != nil {
		return fmt.Errorf("failed to query steps for reindex: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan step ID for reindex: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for position, id := range ids {
		if _, err := tx.Exec(`UPDATE form_steps SET step_order = ? WHERE id = ?`, position, id); err != nil {
			return fmt.Errorf("failed to reindex step: %w", err)
		}
	}
	return nil
}

func scanStep(scan func(dest ...any) error) (*forms.Step, error) {
	var step forms.Step
	var description sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(&step.ID, &step.FormID, &step.Title, &description, &step.Order, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		step.Description = &description.String
	}
	if step.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if step.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &step, nil
}
