package forms

// Repository defines the persistence operations for forms. All reads exclude
// soft-deleted rows unless noted otherwise.
type Repository interface {
	// FindByID returns a form without its steps, or nil when no live row matches.
	FindByID(id string) (*Form, error)

	// FindDetailByID returns a form with ordered steps and fields, or nil.
	FindDetailByID(id string) (*Form, error)

	// FindByUserID returns a page of a user's forms, newest first, with step
	// counts, plus the total count for pagination.
	FindByUserID(userID string, offset, limit int) ([]*ListItem, int, error)

	// ListIDsByUserID returns the ids of a user's non-deleted forms.
	ListIDsByUserID(userID string) ([]string, error)

	// Store inserts a form row.
	Store(form *Form) error

	// Update writes title, description, settings, status, published_at and
	// updated_at for an existing row.
	Update(form *Form) error

	// SoftDelete stamps deleted_at on a form.
	SoftDelete(id string) error
}

// StepRepository defines the persistence operations for form steps.
type StepRepository interface {
	// FindByID returns a step without its fields, or nil.
	FindByID(id string) (*Step, error)

	// FindByFormID returns a form's steps in ascending order, fields included.
	FindByFormID(formID string) ([]*Step, error)

	// MaxOrder returns the highest order value for a form, or -1 when the
	// form has no steps.
	MaxOrder(formID string) (int, error)

	// Store inserts a step row.
	Store(step *Step) error

	// Update writes title, description and updated_at for an existing row.
	Update(step *Step) error

	// DeleteAndReindex removes a step and re-densifies the remaining orders
	// to 0..n-1 inside a single transaction.
	DeleteAndReindex(id, formID string) error

	// ReorderAtomic applies order = position for each id inside a single
	// transaction, so concurrent reorders never interleave.
	ReorderAtomic(formID string, stepIDs []string) error
}

// FieldRepository defines the persistence operations for form fields.
type FieldRepository interface {
	// FindByID returns a field, or nil.
	FindByID(id string) (*Field, error)

	// FindByStepID returns a step's fields in ascending order.
	FindByStepID(stepID string) ([]*Field, error)

	// MaxOrder returns the highest order value for a step, or -1 when the
	// step has no fields.
	MaxOrder(stepID string) (int, error)

	// Store inserts a field row.
	Store(field *Field) error

	// Update writes the mutable attributes and updated_at for an existing row.
	Update(field *Field) error

	// DeleteAndReindex removes a field and re-densifies the remaining orders
	// to 0..n-1 inside a single transaction.
	DeleteAndReindex(id, stepID string) error

	// ReorderAtomic applies order = position for each id inside a single
	// transaction.
	ReorderAtomic(stepID string, fieldIDs []string) error
}
