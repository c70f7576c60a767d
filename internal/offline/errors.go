package offline

import (
	"errors"
	"fmt"
)

var (
	// ErrContentUnavailable means the network could not serve the content
	// and nothing is cached locally.
	ErrContentUnavailable = errors.New("content unavailable offline")
	// ErrAuthExpired is returned when the server rejects the bearer token.
	// It is never retried or recovered locally.
	ErrAuthExpired = errors.New("authentication expired")
	ErrOffline     = errors.New("client is offline")
	ErrNotFound    = errors.New("not found in local store")
)

// StorageError reports a failed operation on the local durable store.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SubmissionError reports a submission the server did not accept: a transport
// failure, a timeout or a non-2xx response other than 401.
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submission failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
