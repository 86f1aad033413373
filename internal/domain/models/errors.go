package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrIllegalTransition    = errors.New("illegal lifecycle transition")
	ErrNotFound             = errors.New("model not found")
	ErrMalformedResponse    = errors.New("malformed backend response")
	ErrConfirmationRequired = errors.New("destructive operation requires confirmation")
)

// FieldViolation names one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Tag     string `json:"code"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError is raised before any network I/O when caller input is rejected.
type ValidationError struct {
	Violations []FieldViolation
}

func NewValidationError(field, tag, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Tag: tag, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// IllegalTransitionError is raised when an operation does not fit the model's current status.
type IllegalTransitionError struct {
	ModelID string
	Op      string
	From    Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s model %s in status %q", e.Op, e.ModelID, e.From)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// RemoteKind classifies a failed gateway call.
type RemoteKind int

const (
	RemoteServerError RemoteKind = iota
	RemoteUnauthorized
	RemoteNotFound
	RemoteUnreachable
)

func (k RemoteKind) String() string {
	switch k {
	case RemoteUnauthorized:
		return "unauthorized"
	case RemoteNotFound:
		return "not_found"
	case RemoteUnreachable:
		return "unreachable"
	default:
		return "server_error"
	}
}

// RemoteError is surfaced from a failed gateway call. The core never retries it.
type RemoteError struct {
	Kind   RemoteKind
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets a remote 404 satisfy errors.Is(err, ErrNotFound).
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == RemoteNotFound
}

// RemoteKindOf extracts the remote kind, if err came from the gateway.
func RemoteKindOf(err error) (RemoteKind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// NotFoundError reports a model id absent from the registry.
func NotFoundError(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
