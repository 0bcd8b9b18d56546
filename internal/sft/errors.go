package sft

import (
	"errors"
	"fmt"
)

// Sentinel errors for session preconditions.
var (
	// ErrWalletNotConnected is returned when no signed-in wallet session
	// is available for a change call.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrNoAccountSelected is returned when a session exists but carries
	// no account ID.
	ErrNoAccountSelected = errors.New("no account selected")

	// ErrUploadFailed wraps pinning failures. A failed upload aborts the
	// mint before any transaction is submitted.
	ErrUploadFailed = errors.New("upload failed")
)

// ValidationError reports a request rejected before any network I/O.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ChainError reports a change call rejected by the contract or the node.
type ChainError struct {
	Method string
	Err    error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain call %s: %v", e.Method, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

func uploadError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUploadFailed, stage, err)
}
