package domain

import (
	"github.com/yungbote/studynotes-backend/internal/domain/notes"
)

type Lesson = notes.Lesson
type LessonDraft = notes.LessonDraft
type LessonEdit = notes.LessonEdit
type MCQ = notes.MCQ
type KVEntry = notes.KVEntry

type ValidationError = notes.ValidationError
type GenerationError = notes.GenerationError
type StorageError = notes.StorageError

const MCQOptionCount = notes.MCQOptionCount

var (
	ErrEmptyTitle               = notes.ErrEmptyTitle
	ErrLessonNotFound           = notes.ErrLessonNotFound
	ErrGenerationInFlight       = notes.ErrGenerationInFlight
	ErrNoPendingDelete          = notes.ErrNoPendingDelete
	ErrNotesRequiredForMCQs     = notes.ErrNotesRequiredForMCQs
	ErrNotesRequiredForFeedback = notes.ErrNotesRequiredForFeedback
	ErrTopicRequired            = notes.ErrTopicRequired
)

const (
	MsgNotesFailed    = notes.MsgNotesFailed
	MsgMCQsFailed     = notes.MsgMCQsFailed
	MsgFeedbackFailed = notes.MsgFeedbackFailed
)

func NewValidationError(msg string) *ValidationError { return notes.NewValidationError(msg) }

func IsValidation(err error) bool { return notes.IsValidation(err) }
func IsGeneration(err error) bool { return notes.IsGeneration(err) }
func IsStorage(err error) bool    { return notes.IsStorage(err) }

func UserMessage(err error) string { return notes.UserMessage(err) }
