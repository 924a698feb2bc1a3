package prompts

type PromptName string

const (
	PromptLessonNotes   PromptName = "lesson_notes"
	PromptMCQSet        PromptName = "mcq_set"
	PromptNotesFeedback PromptName = "notes_feedback"
)
