package egnyte

import "errors"

// Folder operation errors.
var (
	// ErrCopyTimeout is returned when a copy still times out after the
	// per-operation attempt bound.
	ErrCopyTimeout = errors.New("egnyte: copy timed out")
	// ErrRequestFailed is returned for non-timeout HTTP failures; these
	// are never retried.
	ErrRequestFailed = errors.New("egnyte: request failed")
)
