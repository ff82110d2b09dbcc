package moderation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the resource id does not exist for the given kind.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidTransition means the resource was not PENDING when a
	// decision was attempted — including the second call of a
	// double-moderation race.
	ErrInvalidTransition = errors.New("resource has already been processed")

	// ErrForbidden means the reviewer lacks scope for the resource's
	// community, or is not a reviewer at all.
	ErrForbidden = errors.New("not authorized to moderate this resource")

	// ErrCapacityExhausted means an event registration could not be
	// approved because no slot remained; the registration stays PENDING.
	ErrCapacityExhausted = errors.New("event has no available slots")
)

// ValidationError reports a correctable input problem, e.g. a missing
// rejection reason. The caller can retry after supplying the field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SideEffectError reports a committed transition whose side effect did not
// complete. The decision stands; the consequence must be reconciled
// out-of-band rather than by retrying approve/reject, which is no longer
// idempotent once the status left PENDING.
type SideEffectError struct {
	Kind       Kind
	ResourceID uuid.UUID
	Err        error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s %s: decision recorded but side effect failed: %v", e.Kind, e.ResourceID, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }
