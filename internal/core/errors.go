package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTask is returned when a correction names a task with no open correction channel
	ErrUnknownTask = errors.New("unknown or expired scan task")
	// ErrInvalidJudgment is returned for a judgment other than correct/incorrect
	ErrInvalidJudgment = errors.New("judgment must be \"correct\" or \"incorrect\"")
)

// ModelLoadError means the model artifact could not be fetched or is malformed.
// It fails every classification until a later load succeeds.
type ModelLoadError struct {
	Source string
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model from %s: %v", e.Source, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ScoringError means a feature vector did not fit the model
type ScoringError struct {
	Reason string
}

func (e *ScoringError) Error() string {
	return "scoring failed: " + e.Reason
}

// ScanError wraps any failure that moved a single task to ERROR
type ScanError struct {
	TaskID string
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s failed: %v", e.TaskID, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
