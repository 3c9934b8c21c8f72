package router

import (
	"errors"
	"fmt"
)

// RegistrationErrorKind classifies startup failures
type RegistrationErrorKind string

// Registration error kinds
const (
	ErrDuplicateRoute  RegistrationErrorKind = "duplicate route"
	ErrInvalidSpec     RegistrationErrorKind = "invalid route spec"
	ErrInvalidMethod   RegistrationErrorKind = "invalid method"
	ErrInvalidHandler  RegistrationErrorKind = "invalid handler"
	ErrUnresolvableDep RegistrationErrorKind = "unresolvable dependency"
	ErrRouterFrozen    RegistrationErrorKind = "router frozen"
	ErrInvalidManifest RegistrationErrorKind = "invalid manifest entry"
)

// ErrUnresolvable is wrapped by every dependency resolution failure
var ErrUnresolvable = errors.New("dependency cannot be resolved")

// RegistrationError is returned (or panicked by the Sign helpers) when a route
// cannot be registered. It signals a programming mistake and must abort startup.
type RegistrationError struct {
	Kind   RegistrationErrorKind
	Method Method
	Path   string
	Spec   string
	Err    error
}

// Error implements the error interface
func (e *RegistrationError) Error() string {
	msg := "router: " + string(e.Kind)
	switch {
	case e.Method != "" && e.Path != "":
		msg += fmt.Sprintf(": %s %s", e.Method, e.Path)
	case e.Method != "":
		msg += fmt.Sprintf(": %s", e.Method)
	case e.Path != "":
		msg += fmt.Sprintf(": %s", e.Path)
	}
	if e.Spec != "" {
		msg += fmt.Sprintf(" (spec %q)", e.Spec)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a RegistrationError of the given kind
func IsKind(err error, kind RegistrationErrorKind) bool {
	var regErr *RegistrationError
	return errors.As(err, &regErr) && regErr.Kind == kind
}
