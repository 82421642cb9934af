package downloader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass separates download failures that are worth retrying from
// those that are not
type ErrorClass string

const (
	// ClassTransient marks failures eligible for a bounded retry
	ClassTransient ErrorClass = "transient"
	// ClassPermanent marks failures that retrying cannot fix
	ClassPermanent ErrorClass = "permanent"
)

// Error is a classified download failure
type Error struct {
	Class ErrorClass
	Msg   string
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransient builds a transient download error
func NewTransient(msg string, err error) *Error {
	return &Error{Class: ClassTransient, Msg: msg, Err: err}
}

// NewPermanent builds a permanent download error
func NewPermanent(msg string, err error) *Error {
	return &Error{Class: ClassPermanent, Msg: msg, Err: err}
}

// IsPermanent reports whether err is a download error that must not be
// retried. Unclassified errors count as transient.
func IsPermanent(err error) bool {
	var dErr *Error
	return errors.As(err, &dErr) && dErr.Class == ClassPermanent
}

// permanentMarkers are extractor messages that identify unretryable
// failures: unsupported, restricted or missing resources.
var permanentMarkers = []string{
	"Unsupported URL",
	"is not a valid URL",
	"Video unavailable",
	"This video is not available",
	"has been removed",
	"Private video",
	"members-only",
	"Sign in to confirm",
	"HTTP Error 404",
	"HTTP Error 410",
}

// classify maps extractor output to an error class
func classify(output string) ErrorClass {
	for _, marker := range permanentMarkers {
		if strings.Contains(output, marker) {
			return ClassPermanent
		}
	}
	return ClassTransient
}
