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

// SQLRefreshTokenRepository handles refresh token persistence to database.
// Tokens are never deleted; rotation and logout stamp revoked_at instead so
// reuse of an old token is detectable.
type SQLRefreshTokenRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRefreshTokenRepository creates a new instance of the repository.
func NewSQLRefreshTokenRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRefreshTokenRepository {
	return &SQLRefreshTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Store inserts a refresh token row.
func (r *SQLRefreshTokenRepository) Store(token *users.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing refresh token insert", "tokenId", token.ID, "userId", token.UserID)

	_, err := r.db.Exec(
		query,
		token.ID,
		token.Token,
		token.UserID,
		token.ExpiresAt.Format("2006-01-02 15:04:05"),
		token.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		r.logger.Database().Error("Refresh token insert failed", "error", err.Error(), "tokenId", token.ID, "userId", token.UserID)
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// FindByToken returns a refresh token row by its opaque value, or nil.
func (r *SQLRefreshTokenRepository) FindByToken(token string) (*users.RefreshToken, error) {
	const query = `
		SELECT id, token, user_id, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token = ?`

	start := time.Now()

	var row users.RefreshToken
	var expiresAtStr, createdAtStr string
	var revokedAtStr sql.NullString

	err := r.db.QueryRow(query, token).Scan(&row.ID, &row.Token, &row.UserID, &expiresAtStr, &revokedAtStr, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan refresh token", "error", err.Error())
		return nil, fmt.Errorf("failed to scan refresh token: %w", err)
	}

	if row.ExpiresAt, err = parseTimestamp(expiresAtStr); err != nil {
		return nil, err
	}
	if row.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if revokedAtStr.Valid && revokedAtStr.String != "" {
		if t, err := parseTimestamp(revokedAtStr.String); err == nil {
			row.RevokedAt = &t
		}
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return &row, nil
}

// Revoke stamps revoked_at on a token row by id.
func (r *SQLRefreshTokenRepository) Revoke(id string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`

	start := time.Now()

	_, err := r.db.Exec(query, time.Now().UTC().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		r.logger.Database().Error("Refresh token revoke failed", "error", err.Error(), "tokenId", id)
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// RevokeByToken stamps revoked_at on a token row by its opaque value.
func (r *SQLRefreshTokenRepository) RevokeByToken(token string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`

	start := time.Now()

	_, err := r.db.Exec(query, time.Now().UTC().Format("2006-01-02 15:04:05"), token)
	if err != nil {
		r.logger.Database().Error("Refresh token revoke failed", "error", err.Error())
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}
