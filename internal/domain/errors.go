// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrTrackNotFound is returned when a requested track cannot be found.
	ErrTrackNotFound = errors.New("track not found")

	// ErrQueueEmpty is returned when queue operations are attempted on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrNoNextTrack is reported when a skip forward hits the end of the queue.
	// It is a user-facing no-op, not a failure.
	ErrNoNextTrack = errors.New("no next track")

	// ErrNoPreviousTrack is reported when a skip back hits the start of the queue.
	ErrNoPreviousTrack = errors.New("no previous track")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrInvalidMode is returned for an undefined playback mode.
	ErrInvalidMode = errors.New("invalid playback mode")

	// ErrNoTrackLoaded is returned when a transport action needs a loaded track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidTrackHandle is returned when an engine handle is not the loaded one.
	ErrInvalidTrackHandle = errors.New("invalid track handle")

	// ErrServiceClosed is returned when a command reaches a service after shutdown.
	ErrServiceClosed = errors.New("service closed")

	// ErrDurationUnknown is returned when a percentage needs an unknown duration.
	ErrDurationUnknown = errors.New("track duration unknown")
)

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "append")
	Type    string // Repository type (e.g., "queue", "playcount", "history")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("repository %s.%s failed: %s: %v", e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService", "QueueService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s.%s failed: %s: %v", e.Service, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ImportError is returned when an import payload is rejected.
// Nothing from a rejected payload is applied.
type ImportError struct {
	Kind   string // "history" or "playcounts"
	Reason string // Human-readable rejection reason
	Err    error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("%s import rejected: %s", e.Kind, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(kind, reason string, err error) *ImportError {
	return &ImportError{
		Kind:   kind,
		Reason: reason,
		Err:    err,
	}
}
