// Package forms defines the form builder entities: forms, their ordered
// steps, and the ordered fields inside each step.
package forms

import "time"

// Status is the lifecycle state of a form.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// Form is a multi-step form owned by a user. DeletedAt marks a soft delete;
// soft-deleted forms are excluded from every query in the system.
type Form struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      Status         `json:"status"`
	Settings    map[string]any `json:"settings"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt"`
	DeletedAt   *time.Time     `json:"-"`
	Steps       []*Step        `json:"steps,omitempty"`
}

// ListItem is the trimmed shape returned by paginated form listings.
type ListItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      Status         `json:"status"`
	Settings    map[string]any `json:"settings"`
	StepCount   int            `json:"stepCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt"`
}

// Step is one page of a form. Order is a dense zero-based integer within the
// parent form, re-densified whenever a step is removed or reordered.
type Step struct {
	ID          string    `json:"id"`
	FormID      string    `json:"-"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Fields      []*Field  `json:"fields"`
}

// Field is a single input inside a step. Options, Validation and Config are
// opaque JSON blobs interpreted by the form renderer, not by the server.
type Field struct {
	ID          string         `json:"id"`
	StepID      string         `json:"-"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Placeholder *string        `json:"placeholder"`
	Required    bool           `json:"required"`
	Order       int            `json:"order"`
	Options     map[string]any `json:"options"`
	Validation  map[string]any `json:"validation"`
	Config      map[string]any `json:"config"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
