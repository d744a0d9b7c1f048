// Package events defines the append-only interaction event log entities.
package events

import "time"

// Kind is the type of a tracked interaction event.
type Kind string

const (
	KindView         Kind = "VIEW"
	KindStart        Kind = "START"
	KindStepComplete Kind = "STEP_COMPLETE"
	KindSubmit       Kind = "SUBMIT"
	KindAbandon      Kind = "ABANDON"
)

// ValidKind reports whether k is one of the tracked event kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindView, KindStart, KindStepComplete, KindSubmit, KindAbandon:
		return true
	}
	return false
}

// Event is one anonymous interaction with a form. SessionID is an opaque
// client-generated string, not tied to any user account. StepOrder is set
// only for STEP_COMPLETE events and is resolved best-effort from the step
// referenced at recording time. Events are never mutated or deleted.
type Event struct {
	ID        string         `json:"id"`
	FormID    string         `json:"formId"`
	Kind      Kind           `json:"type"`
	SessionID string         `json:"sessionId"`
	StepOrder *int           `json:"stepOrder"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Repository defines the contract for storing and counting interaction events.
type Repository interface {
	// Store appends an event to the log.
	Store(event *Event) error

	// CountByKind counts events of one kind for a form.
	CountByKind(formID string, kind Kind) (int, error)

	// CountByKindForForms counts events of one kind across a set of forms.
	CountByKindForForms(formIDs []string, kind Kind) (int, error)

	// GroupCountByStepOrder counts events of one kind grouped by step order.
	// Events with a null step order are excluded from every group.
	GroupCountByStepOrder(formID string, kind Kind) (map[int]int, error)

	// FindTimestampsInRange returns the creation timestamps of events of one
	// kind for a form, restricted to created_at >= from.
	FindTimestampsInRange(formID string, kind Kind, from time.Time) ([]time.Time, error)
}
