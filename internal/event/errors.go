package event

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
)

var (
	// ErrMalformedEvent is matched by every MalformedEventError.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrDuplicateEvent is returned when the state already reflects the event.
	ErrDuplicateEvent = errors.New("duplicate event")
)

// MalformedEventError describes a raw payload that failed validation.
type MalformedEventError struct {
	Kind   hal.EventKind
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Kind, e.Reason)
}

// Is reports whether target is ErrMalformedEvent.
func (e *MalformedEventError) Is(target error) bool {
	return target == ErrMalformedEvent
}

func malformed(kind hal.EventKind, format string, args ...interface{}) error {
	return &MalformedEventError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
