package cache

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes ingest failures.
type ErrorKind string

const (
	// ErrKindEmptyPath indicates no input path was given.
	ErrKindEmptyPath ErrorKind = "EMPTY_PATH"

	// ErrKindInputNotFound indicates the input file does not exist.
	ErrKindInputNotFound ErrorKind = "INPUT_NOT_FOUND"

	// ErrKindInputOpen indicates the input exists but cannot be read.
	ErrKindInputOpen ErrorKind = "INPUT_OPEN_FAILED"

	// ErrKindStore indicates the store file could not be created or
	// prepared for the bulk load.
	ErrKindStore ErrorKind = "STORE_FAILED"

	// ErrKindRead indicates the input failed part way through.
	ErrKindRead ErrorKind = "READ_FAILED"

	// ErrKindInsert indicates a row could not be inserted.
	ErrKindInsert ErrorKind = "INSERT_FAILED"

	// ErrKindCommit indicates the bulk transaction failed to commit.
	ErrKindCommit ErrorKind = "COMMIT_FAILED"

	// ErrKindCanceled indicates the context ended before the load finished.
	ErrKindCanceled ErrorKind = "CANCELED"
)

// IngestError is returned by Cache.Ingest. Whatever was inserted before an
// IngestError has been discarded.
type IngestError struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Path is the input file.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *IngestError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an IngestError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// IsInputError reports whether err is a problem with the input file that
// was detected before any row was written.
func IsInputError(err error) bool {
	switch KindOf(err) {
	case ErrKindEmptyPath, ErrKindInputNotFound, ErrKindInputOpen:
		return true
	}
	return false
}

// IsIngestError reports whether err happened while the store was being
// filled.
func IsIngestError(err error) bool {
	switch KindOf(err) {
	case ErrKindStore, ErrKindRead, ErrKindInsert, ErrKindCommit, ErrKindCanceled:
		return true
	}
	return false
}
