package prompts

import (
	"strings"
	"testing"
)

func TestBuildLessonNotesEmbedsTopicVerbatim(t *testing.T) {
	p, err := Build(PromptLessonNotes, Input{Topic: `Photosynthesis "light" & <dark>`})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, `Photosynthesis "light" & <dark>`) {
		t.Fatalf("topic not embedded verbatim: %q", p.User)
	}
	if p.IsJSON() {
		t.Fatalf("notes prompt should be text")
	}
	if !strings.Contains(p.User, "uppercase") || !strings.Contains(p.User, "double line breaks") {
		t.Fatalf("formatting rules missing")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := Input{Notes: "Mitochondria is the powerhouse of the cell.", MinQuestions: 3, MaxQuestions: 5, OptionCount: 4}
	a, _ := Build(PromptMCQSet, in)
	b, _ := Build(PromptMCQSet, in)
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("same input rendered differently")
	}
	if !strings.Contains(a.User, "3-5 multiple-choice questions") || !strings.Contains(a.User, "provide 4 options") {
		t.Fatalf("unexpected mcq prompt: %q", a.User)
	}
	if a.SchemaName != "mcq_set" || a.Schema == nil {
		t.Fatalf("mcq prompt must carry its schema")
	}
}

func TestBuildValidatesInput(t *testing.T) {
	cases := []struct {
		name PromptName
		in   Input
	}{
		{PromptLessonNotes, Input{Topic: "  "}},
		{PromptMCQSet, Input{Notes: "", MinQuestions: 3, MaxQuestions: 5, OptionCount: 4}},
		{PromptMCQSet, Input{Notes: "n", MinQuestions: 5, MaxQuestions: 3, OptionCount: 4}},
		{PromptNotesFeedback, Input{}},
	}
	for _, tc := range cases {
		if _, err := Build(tc.name, tc.in); err == nil {
			t.Fatalf("%s: want validation error for %+v", tc.name, tc.in)
		}
	}
	if _, err := Build("nope", Input{}); err == nil {
		t.Fatalf("unknown prompt should fail")
	}
}

func TestMCQSetSchemaShape(t *testing.T) {
	s := MCQSetSchema()
	props := s["properties"].(map[string]any)
	mcqs := props["mcqs"].(map[string]any)
	item := mcqs["items"].(map[string]any)
	req := item["required"].([]any)
	if len(req) != 3 || item["additionalProperties"] != false {
		t.Fatalf("unexpected item schema: %v", item)
	}
}

func TestMakeTemplateRejectsHalfSchema(t *testing.T) {
	_, err := MakeTemplate(Spec{Name: "x", Version: 1, SchemaName: "x"})
	if err == nil {
		t.Fatalf("schema name without schema func should fail")
	}
}
