// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package match

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactUnavailable indicates no trained artifact exists for the
	// requested (owner, model type), or the stored artifact failed to load.
	// The serving path resolves this to the neutral prediction; it is logged
	// but never surfaced to scoring callers.
	ErrArtifactUnavailable = errors.New("model artifact unavailable")

	// ErrTrainingFailed wraps an underlying fit or optimization failure.
	// Surfaced to the caller; the prior artifact remains active.
	ErrTrainingFailed = errors.New("training failed")
)

// ValidationError reports a request that cannot be honestly fulfilled,
// such as an insufficient or single-class labeled dataset. It is surfaced
// to the caller before any computation and is never retried.
type ValidationError struct {
	// Reason is a human-readable rejection reason.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
