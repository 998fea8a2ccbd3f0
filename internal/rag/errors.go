package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrievalUnavailable is matched by every retrieval failure, as opposed
	// to a valid empty result.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrIndexNotReady is returned when a corpus is searched before it was loaded.
	ErrIndexNotReady = errors.New("index not loaded")
)

// RetrievalError describes a failed FAQ or terms lookup.
type RetrievalError struct {
	Source SourceType
	Op     string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap exposes both ErrRetrievalUnavailable and the underlying cause.
func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalUnavailable, e.Err}
}
