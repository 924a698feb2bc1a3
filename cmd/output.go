package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	types "github.com/yungbote/studynotes-backend/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isJSON() bool {
	return strings.EqualFold(strings.TrimSpace(outputFormat), "json")
}

func printLessons(w io.Writer, ls []types.Lesson) error {
	if isJSON() {
		return printJSON(w, map[string]any{"lessons": ls})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOURSE\tCREATED\tMCQS\tFEEDBACK")
	for _, l := range ls {
		fb := "no"
		if l.HasFeedback() {
			fb = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", l.ID, l.Title, l.Course, l.CreatedAt.Local().Format(time.DateTime), len(l.MCQs), fb)
	}
	return tw.Flush()
}

func printLesson(w io.Writer, l types.Lesson, reveal bool) error {
	if isJSON() {
		return printJSON(w, map[string]any{"lesson": l})
	}
	fmt.Fprintf(w, "%s\n%s\n", l.Title, strings.Repeat("=", len(l.Title)))
	fmt.Fprintf(w, "id: %s\ncreated: %s\n", l.ID, l.CreatedAt.Local().Format(time.DateTime))
	if l.Course != "" {
		fmt.Fprintf(w, "course: %s\n", l.Course)
	}
	for _, u := range l.ImageURLs {
		fmt.Fprintf(w, "image: %s\n", u)
	}
	if l.HasNotes() {
		fmt.Fprintf(w, "\n%s\n", l.Notes)
	}
	if len(l.MCQs) > 0 {
		fmt.Fprintln(w)
		printMCQs(w, l.MCQs, reveal)
	}
	if l.Feedback != nil {
		fmt.Fprintf(w, "\nFeedback:\n%s\n", *l.Feedback)
	}
	return nil
}

// printMCQs lists each question with lettered options. With reveal the correct
// option is starred and repeated as the answer.
func printMCQs(w io.Writer, qs []types.MCQ, reveal bool) {
	for i, q := range qs {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		answer := ""
		for j, opt := range q.Options {
			mark := " "
			if reveal && q.IsCorrect(opt) {
				mark = "*"
				answer = fmt.Sprintf("%c) %s", 'A'+rune(j), opt)
			}
			fmt.Fprintf(w, "  %s%c) %s\n", mark, 'A'+rune(j), opt)
		}
		if reveal {
			fmt.Fprintf(w, "   Answer: %s\n", answer)
		}
	}
}
