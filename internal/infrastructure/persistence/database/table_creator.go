// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the database tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, first_name TEXT, last_name TEXT, role TEXT NOT NULL DEFAULT 'USER', created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, deleted_at TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (id TEXT PRIMARY KEY, token TEXT NOT NULL UNIQUE, user_id TEXT NOT NULL REFERENCES users(id), expires_at TIMESTAMP NOT NULL, revoked_at TIMESTAMP, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS forms (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id), title TEXT NOT NULL, description TEXT, status TEXT NOT NULL DEFAULT 'DRAFT', settings TEXT, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, published_at TIMESTAMP, deleted_at TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS form_steps (id TEXT PRIMARY KEY, form_id TEXT NOT NULL REFERENCES forms(id), title TEXT NOT NULL, description TEXT, step_order INTEGER NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS form_fields (id TEXT PRIMARY KEY, step_id TEXT NOT NULL REFERENCES form_steps(id), type TEXT NOT NULL, label TEXT NOT NULL, placeholder TEXT, required BOOLEAN NOT NULL DEFAULT 0, field_order INTEGER NOT NULL, options TEXT, validation TEXT, config TEXT, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS events (id TEXT PRIMARY KEY, form_id TEXT NOT NULL REFERENCES forms(id), event_type TEXT NOT NULL, session_id TEXT NOT NULL, step_order INTEGER, metadata TEXT, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS submissions (id TEXT PRIMARY KEY, form_id TEXT NOT NULL REFERENCES forms(id), data TEXT NOT NULL, metadata TEXT, completed_at TIMESTAMP NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token ON refresh_tokens(token)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_forms_user_id ON forms(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status)`,
	`CREATE INDEX IF NOT EXISTS idx_form_steps_form_id ON form_steps(form_id)`,
	`CREATE INDEX IF NOT EXISTS idx_form_steps_order ON form_steps(form_id, step_order)`,
	`CREATE INDEX IF NOT EXISTS idx_form_fields_step_id ON form_fields(step_id)`,
	`CREATE INDEX IF NOT EXISTS idx_form_fields_order ON form_fields(step_id, field_order)`,
	`CREATE INDEX IF NOT EXISTS idx_events_form_id ON events(form_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_form_type ON events(form_id, event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_form_id ON submissions(form_id)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
}
