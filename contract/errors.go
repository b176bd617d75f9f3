package contract

import (
	"errors"
	"fmt"
)

// Rejection kinds. Every rejected call wraps exactly one of these so callers
// can classify failures with errors.Is; the wrapped message is the reason
// returned to the submitting client.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyGranted = errors.New("role already granted")
	ErrRoleNotHeld    = errors.New("role not held")
	ErrNotFound       = errors.New("not found")
)

func rejectf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
