package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks against the typed errors below
var (
	ErrData            = errors.New("data error")
	ErrFeatureMismatch = errors.New("feature mismatch")
	ErrModelNotReady   = errors.New("model not ready")
	ErrStaleQuote      = errors.New("stale quote")
	ErrTraining        = errors.New("training failed")
)

// DataError reports a missing or unknown team, an invalid record or insufficient history
type DataError struct {
	Team   string
	Reason string
}

func (e *DataError) Error() string {
	if e.Team == "" {
		return fmt.Sprintf("data error: %s", e.Reason)
	}
	return fmt.Sprintf("data error for %s: %s", e.Team, e.Reason)
}

// Is matches ErrData
func (e *DataError) Is(target error) bool {
	return target == ErrData
}

// NewDataError creates a DataError
func NewDataError(team, format string, args ...interface{}) error {
	return &DataError{Team: team, Reason: fmt.Sprintf(format, args...)}
}

// FeatureMismatchError reports a prediction-time feature set that does not match the training schema
type FeatureMismatchError struct {
	Missing []string
	Unknown []string
}

func (e *FeatureMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing ["+strings.Join(e.Missing, ", ")+"]")
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown ["+strings.Join(e.Unknown, ", ")+"]")
	}
	return "feature mismatch: " + strings.Join(parts, "; ")
}

// Is matches ErrFeatureMismatch
func (e *FeatureMismatchError) Is(target error) bool {
	return target == ErrFeatureMismatch
}

// ModelNotReadyError reports a prediction against a model with no artifact loaded
type ModelNotReadyError struct {
	Model string
}

func (e *ModelNotReadyError) Error() string {
	return fmt.Sprintf("%s model not ready: no artifact loaded", e.Model)
}

// Is matches ErrModelNotReady
func (e *ModelNotReadyError) Is(target error) bool {
	return target == ErrModelNotReady
}

// StaleQuoteError reports a market quote outside the freshness or sanity bounds.
// It disqualifies one side of a matchup, never the whole matchup.
type StaleQuoteError struct {
	Team        string
	Probability float64
	Reason      string
}

func (e *StaleQuoteError) Error() string {
	return fmt.Sprintf("stale quote for %s (%.3f): %s", e.Team, e.Probability, e.Reason)
}

// Is matches ErrStaleQuote
func (e *StaleQuoteError) Is(target error) bool {
	return target == ErrStaleQuote
}

// TrainingError is fatal to a training job
type TrainingError struct {
	Model  string
	Reason string
	Err    error
}

func (e *TrainingError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("%s training failed: %s: %v", e.Model, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s training failed: %v", e.Model, e.Err)
	default:
		return fmt.Sprintf("%s training failed: %s", e.Model, e.Reason)
	}
}

// Is matches ErrTraining
func (e *TrainingError) Is(target error) bool {
	return target == ErrTraining
}

// Unwrap exposes the underlying cause
func (e *TrainingError) Unwrap() error {
	return e.Err
}
