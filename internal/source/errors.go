package source

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes why a strategy, or the whole resolution, produced
// no data.
type ErrorKind string

const (
	// KindConfigurationMissing means the prerequisites of a strategy (or of
	// every strategy) were absent. Reported as "not configured".
	KindConfigurationMissing ErrorKind = "configuration_missing"

	// KindTransportFailure is a network, HTTP status or auth error.
	KindTransportFailure ErrorKind = "transport_failure"

	// KindShapeMismatch means the response was not tabular data, e.g. an
	// HTML login page.
	KindShapeMismatch ErrorKind = "shape_mismatch"

	// KindNoMatch means every strategy ran out without usable rows.
	KindNoMatch ErrorKind = "no_match"

	// KindCanceled means the caller's context ended the resolution.
	KindCanceled ErrorKind = "canceled"
)

// FetchError describes one failed strategy or a failed resolution.
type FetchError struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Strategy is the strategy that failed. Empty for resolution-level errors.
	Strategy Tag

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	prefix := string(e.Kind)
	if e.Strategy != "" {
		prefix = fmt.Sprintf("%s (%s)", e.Kind, e.Strategy)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *FetchError of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not a *FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func missing(strategy Tag, format string, args ...interface{}) *FetchError {
	return &FetchError{Kind: KindConfigurationMissing, Strategy: strategy, Message: fmt.Sprintf(format, args...)}
}

func transport(strategy Tag, message string, err error) *FetchError {
	return &FetchError{Kind: KindTransportFailure, Strategy: strategy, Message: message, Err: err}
}

func shape(strategy Tag, format string, args ...interface{}) *FetchError {
	return &FetchError{Kind: KindShapeMismatch, Strategy: strategy, Message: fmt.Sprintf(format, args...)}
}
