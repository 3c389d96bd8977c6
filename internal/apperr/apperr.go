// Package apperr defines the tagged error-kind vocabulary shared across
// every manager boundary in the runtime.
package apperr

import "fmt"

// Kind identifies the category of a runtime error without requiring callers
// to type-switch on a concrete error type.
type Kind string

const (
	KindConfiguration           Kind = "configuration_error"
	KindDependency              Kind = "dependency_error"
	KindManagerInitialization   Kind = "manager_initialization_error"
	KindManagerShutdown         Kind = "manager_shutdown_error"
	KindApplication             Kind = "application_error"
	KindSecurity                Kind = "security_error"
	KindAPI                     Kind = "api_error"
	KindPluginIsolation         Kind = "plugin_isolation_error"
	KindThreadManager           Kind = "thread_manager_error"
	KindValidation              Kind = "validation_error"
)

// Error is the single concrete error type used at every component boundary.
// It carries a Kind for programmatic handling plus a human message and
// optional structured details for logging.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, apperr.New(apperr.KindValidation, "")) as a kind test,
// or more idiomatically apperr.HasKind(err, apperr.KindValidation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error of the given kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails returns a copy of e with Details set.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// HasKind reports whether err is (or wraps) an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
