// Package user provides the SQL-based repositories for accounts and
// refresh tokens.
package user

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/users"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// SQLUserRepository handles user account persistence to database.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLUserRepository creates a new instance of the repository.
func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID returns a user, or nil when no live row matches.
func (r *SQLUserRepository) FindByID(id string) (*users.User, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, role, created_at, updated_at
		FROM users
		WHERE id = ? AND deleted_at IS NULL`

	start := time.Now()

	row := r.db.QueryRow(query, id)
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan user", "error", err.Error(), "userId", id)
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return user, nil
}

// FindByEmail returns a user by email, or nil.
func (r *SQLUserRepository) FindByEmail(email string) (*users.User, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, role, created_at, updated_at
		FROM users
		WHERE email = ? AND deleted_at IS NULL`

	start := time.Now()

	row := r.db.QueryRow(query, email)
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan user by email", "error", err.Error())
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return user, nil
}

// Store inserts a user row.
func (r *SQLUserRepository) Store(user *users.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing user insert", "userId", user.ID)

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.CreatedAt.Format("2006-01-02 15:04:05"),
		user.UpdatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("User insert failed", "error", err.Error(), "userId", user.ID)
		return fmt.Errorf("failed to insert user: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("User insert completed", "userId", user.ID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

func scanUser(scan func(dest ...any) error) (*users.User, error) {
	var user users.User
	var firstName, lastName sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(&user.ID, &user.Email, &user.PasswordHash, &firstName, &lastName, &user.Role,
		&createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if firstName.Valid {
		user.FirstName = &firstName.String
	}
	if lastName.Valid {
		user.LastName = &lastName.String
	}
	if user.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &user, nil
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
