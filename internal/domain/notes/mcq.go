package notes

import (
	"fmt"
	"strings"
)

const MCQOptionCount = 4

type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (q MCQ) Clone() MCQ {
	out := q
	out.Options = cloneStrings(q.Options)
	return out
}

// Normalized trims every field.
func (q MCQ) Normalized() MCQ {
	out := MCQ{
		Question:      strings.TrimSpace(q.Question),
		CorrectAnswer: strings.TrimSpace(q.CorrectAnswer),
		Options:       make([]string, len(q.Options)),
	}
	for i, o := range q.Options {
		out.Options[i] = strings.TrimSpace(o)
	}
	return out
}

// Validate checks the question shape: non-empty question, exactly four distinct
// non-empty options, and a correct answer that is one of them.
func (q MCQ) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) != MCQOptionCount {
		return fmt.Errorf("want %d options, got %d", MCQOptionCount, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		if o == "" {
			return fmt.Errorf("option %d is empty", i)
		}
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
	if !seen[q.CorrectAnswer] {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}

func (q MCQ) IsCorrect(option string) bool {
	return strings.TrimSpace(option) == q.CorrectAnswer
}
