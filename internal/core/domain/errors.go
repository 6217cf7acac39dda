package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds surfaced by the control plane. Adapters map runtime failures
// onto these so the HTTP layer can translate them without knowing the SDK.
var (
	ErrNotFound           = errors.New("service not found")
	ErrNameConflict       = errors.New("a service with that name already exists")
	ErrImageNotFound      = errors.New("image not found")
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	ErrActionInFlight     = errors.New("another action for this service is already in flight")
)

// InvalidSpecError reports a user-correctable problem with a create request.
type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InvalidSpec builds an InvalidSpecError for the given field.
func InvalidSpec(field, format string, args ...interface{}) error {
	return &InvalidSpecError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidSpec reports whether err is (or wraps) an InvalidSpecError.
func IsInvalidSpec(err error) bool {
	var spec *InvalidSpecError
	return errors.As(err, &spec)
}
