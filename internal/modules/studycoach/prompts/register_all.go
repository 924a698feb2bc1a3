package prompts

// RegisterAll registers every studycoach prompt. Build calls it once on first use.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:    PromptLessonNotes,
		Version: 1,
		System: `
You write study notes for students.
The notes should be well-organized, engaging, and easy for a student to read.`,
		User: `
Create study notes on the topic: "{{.Topic}}".

Formatting Instructions:
- Do NOT use any Markdown formatting (like # for headers, * or - for bullet points, or underscores for italics).
- Structure the notes with clear, descriptive headings for each section. Use uppercase for main headings.
- Use double line breaks to separate paragraphs and sections.
- The final output must be clean, plain text suitable for direct display.`,
		Validators: []Validator{
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptMCQSet,
		Version:    1,
		SchemaName: "mcq_set",
		Schema:     MCQSetSchema,
		System: `
You write multiple-choice questions that test understanding of a student's notes.
Every question must be answerable from the notes.
Each question has exactly {{.OptionCount}} distinct options and correctAnswer repeats one option verbatim.
Return JSON only.`,
		User: `
Based on the following notes, generate {{.MinQuestions}}-{{.MaxQuestions}} multiple-choice questions to test understanding. For each question, provide {{.OptionCount}} options, and clearly indicate the correct answer. The notes are: "{{.Notes}}"`,
		Validators: []Validator{
			RequireNonEmpty("Notes", func(in Input) string { return in.Notes }),
			RequireRange("MinQuestions..MaxQuestions", func(in Input) (int, int) { return in.MinQuestions, in.MaxQuestions }),
			RequireRange("OptionCount", func(in Input) (int, int) { return in.OptionCount, in.OptionCount }),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptNotesFeedback,
		Version: 1,
		System: `
Act as a helpful study coach.
Keep the feedback encouraging, actionable, and formatted in clean, readable paragraphs. Do not use markdown.`,
		User: `
Analyze the following student notes and provide constructive feedback. Focus on areas for improvement such as clarity, organization, adding more detail, and potential gaps in the information. The notes are: "{{.Notes}}"`,
		Validators: []Validator{
			RequireNonEmpty("Notes", func(in Input) string { return in.Notes }),
		},
	})
}
