package commission

import (
	"errors"
	"strings"
)

var (
	ErrNoMetrics        = errors.New("no metrics found for period")
	ErrUnauthorized     = errors.New("not authorized")
	ErrPeriodClosed     = errors.New("period is closed for this group")
	ErrEmployeeNotFound = errors.New("employee not found")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports malformed input. It is returned before any store access.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Reason: reason})
}

func (e *ValidationError) merge(err error) {
	var other *ValidationError
	if errors.As(err, &other) {
		e.Issues = append(e.Issues, other.Issues...)
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

func forbidden(reason string) error {
	return &AuthorizationError{Reason: reason}
}
