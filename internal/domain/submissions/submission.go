// Package submissions defines the completed form response entities.
package submissions

import "time"

// Submission is one completed response to a published form. Data maps field
// ids to the submitted values as they were at submission time; it is not
// re-validated against later schema changes. Submissions are immutable.
type Submission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	Data        map[string]any `json:"data"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CompletedAt time.Time      `json:"completedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Repository defines the contract for persisting and reading submissions.
type Repository interface {
	// Store inserts a new submission row.
	Store(submission *Submission) error

	// FindByID returns a submission or nil when no row matches.
	FindByID(id string) (*Submission, error)

	// FindByFormID returns a page of submissions, newest first.
	FindByFormID(formID string, offset, limit int) ([]*Submission, error)

	// CountByFormID counts submissions for one form.
	CountByFormID(formID string) (int, error)

	// CountByFormIDs counts submissions across a set of forms.
	CountByFormIDs(formIDs []string) (int, error)
}
