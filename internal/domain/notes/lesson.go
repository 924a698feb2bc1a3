package notes

import (
	"encoding/json"
	"strings"
	"time"
)

// Lesson is a user's study unit. The JSON shape is the persisted shape.
type Lesson struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	ImageURLs []string  `json:"imageUrls"`
	Course    string    `json:"course,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	MCQs      []MCQ     `json:"mcqs"`
	Feedback  *string   `json:"feedback,omitempty"`
}

// LessonDraft is what the create form submits.
type LessonDraft struct {
	Title     string   `json:"title"`
	Notes     string   `json:"notes"`
	Course    string   `json:"course,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// LessonEdit carries the fields a user may change after creation. Nil means unchanged.
type LessonEdit struct {
	Title     *string   `json:"title,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Course    *string   `json:"course,omitempty"`
	ImageURLs *[]string `json:"imageUrls,omitempty"`
}

func (d LessonDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (e LessonEdit) Validate() error {
	if e.Title != nil && strings.TrimSpace(*e.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (e LessonEdit) IsZero() bool {
	return e.Title == nil && e.Notes == nil && e.Course == nil && e.ImageURLs == nil
}

// Apply returns a copy of l with the edit merged in.
func (e LessonEdit) Apply(l Lesson) Lesson {
	out := l.Clone()
	if e.Title != nil {
		out.Title = strings.TrimSpace(*e.Title)
	}
	if e.Notes != nil {
		out.Notes = *e.Notes
	}
	if e.Course != nil {
		out.Course = strings.TrimSpace(*e.Course)
	}
	if e.ImageURLs != nil {
		out.ImageURLs = cloneStrings(*e.ImageURLs)
	}
	return out
}

func (l Lesson) HasNotes() bool { return strings.TrimSpace(l.Notes) != "" }

func (l Lesson) HasFeedback() bool { return l.Feedback != nil }

// Clone deep-copies the slices so callers never share backing arrays.
func (l Lesson) Clone() Lesson {
	out := l
	out.ImageURLs = cloneStrings(l.ImageURLs)
	out.MCQs = make([]MCQ, len(l.MCQs))
	for i, q := range l.MCQs {
		out.MCQs[i] = q.Clone()
	}
	if l.Feedback != nil {
		fb := *l.Feedback
		out.Feedback = &fb
	}
	return out
}

// WithMCQs returns a copy carrying the given questions.
func (l Lesson) WithMCQs(qs []MCQ) Lesson {
	out := l.Clone()
	out.MCQs = make([]MCQ, len(qs))
	for i, q := range qs {
		out.MCQs[i] = q.Clone()
	}
	return out
}

func (l Lesson) WithFeedback(text string) Lesson {
	out := l.Clone()
	out.Feedback = &text
	return out
}

// MarshalJSON keeps imageUrls and mcqs as arrays even when nil.
func (l Lesson) MarshalJSON() ([]byte, error) {
	type alias Lesson
	a := alias(l)
	if a.ImageURLs == nil {
		a.ImageURLs = []string{}
	}
	if a.MCQs == nil {
		a.MCQs = []MCQ{}
	}
	return json.Marshal(a)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
