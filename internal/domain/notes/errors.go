package notes

import (
	"errors"
	"fmt"
)

// ValidationError is a local precondition failure. It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(msg string) *ValidationError { return &ValidationError{Message: msg} }

// GenerationError is an AI gateway failure. Message is user-facing; Err is the cause.
type GenerationError struct {
	Op      string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError is a read or write failure against the persistent store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

var (
	ErrEmptyTitle         = NewValidationError("Lesson title is required")
	ErrLessonNotFound     = NewValidationError("Lesson not found")
	ErrGenerationInFlight = NewValidationError("A generation request for this lesson is already running")
	ErrNoPendingDelete    = NewValidationError("No lesson is awaiting delete confirmation")

	ErrNotesRequiredForMCQs     = NewValidationError("Cannot generate questions without lesson notes")
	ErrNotesRequiredForFeedback = NewValidationError("Cannot generate feedback without lesson notes")
	ErrTopicRequired            = NewValidationError("Cannot generate notes without a topic")
)

// User-facing generation messages.
const (
	MsgNotesFailed    = "Failed to generate lesson notes."
	MsgMCQsFailed     = "Failed to generate multiple-choice questions."
	MsgFeedbackFailed = "Failed to generate improvement feedback."
)

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// UserMessage returns the text to show next to the control that failed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Message + " Please try again."
	}
	return "Something went wrong. Please try again."
}
