// Package users defines the account entities for form owners and the
// refresh token rows backing session rotation.
package users

import "time"

// User is an authenticated form owner.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    *string    `json:"firstName"`
	LastName     *string    `json:"lastName"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// RefreshToken is one issued refresh token. RevokedAt is set on rotation or
// logout; a revoked or expired row can never be exchanged again.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Repository defines the operations for persisting User entities.
type Repository interface {
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	Store(user *User) error
}

// RefreshTokenRepository defines the operations for refresh token rotation.
type RefreshTokenRepository interface {
	Store(token *RefreshToken) error
	FindByToken(token string) (*RefreshToken, error)
	Revoke(id string) error
	RevokeByToken(token string) error
}
