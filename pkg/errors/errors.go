// Package errors provides structured error types for chaski.
//
// Every failure that aborts a sync carries a machine-readable [Code] so the
// CLI can report it consistently and tests can assert on the failure class
// without matching message text.
//
// # Error Codes
//
// The pipeline distinguishes these fatal classes:
//   - RESOLUTION_FAILED: a commit-ish could not be resolved to a commit SHA
//   - DOWNLOAD_FAILED: a source or crate archive could not be fetched
//   - MALFORMED_ARCHIVE: an archive is not a single top-level directory
//   - UNTRUSTED_ORIGIN: a lockfile package comes from an unknown registry
//   - VENDOR_STEP_FAILED: cargo vendor (or the tarball write) failed
//   - UPLOAD_FAILED: the lookaside upload exited non-zero
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedArchive, "%s has %d top-level entries", name, n)
//	if errors.Is(err, errors.ErrCodeMalformedArchive) {
//	    // refuse to cache it
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDownload, origErr, "download %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pipeline failures. All of these abort the sync.
	ErrCodeResolution        Code = "RESOLUTION_FAILED"
	ErrCodeDownload          Code = "DOWNLOAD_FAILED"
	ErrCodeMalformedArchive  Code = "MALFORMED_ARCHIVE"
	ErrCodeUntrustedOrigin   Code = "UNTRUSTED_ORIGIN"
	ErrCodeVendorStep        Code = "VENDOR_STEP_FAILED"
	ErrCodeUpload            Code = "UPLOAD_FAILED"
	ErrCodeMissingDependency Code = "MISSING_DEPENDENCY"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidVersion  Code = "INVALID_VERSION"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeSourceNotFound  Code = "SOURCE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix, followed by
// the cause when there is one.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err belongs to one of the classes that abort a sync.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeResolution, ErrCodeDownload, ErrCodeMalformedArchive,
		ErrCodeUntrustedOrigin, ErrCodeVendorStep, ErrCodeUpload:
		return true
	}
	return false
}
