// Package common defines shared constants and sentinel errors used across
// the claim system. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Workflow guard errors.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCommentsRequired  = errors.New("comments required")

	// ErrStatusConflict is returned when a conditional status update loses
	// a race: the claim row no longer carries the status the transition
	// was validated against.
	ErrStatusConflict = errors.New("status conflict")

	// Blob errors.
	ErrCorruptBlob = errors.New("corrupt or undecryptable blob")
)
