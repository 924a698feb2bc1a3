package prompts

func StringSchema(description string) map[string]any {
	s := map[string]any{"type": "string"}
	if description != "" {
		s["description"] = description
	}
	return s
}

func StringArraySchema(description string) map[string]any {
	s := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	if description != "" {
		s["description"] = description
	}
	return s
}

func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

// MCQSetSchema is {mcqs: [{question, options, correctAnswer}]}. Option count is checked
// after parsing; strict mode does not support minItems/maxItems everywhere.
func MCQSetSchema() map[string]any {
	mcq := ObjectSchema(map[string]any{
		"question":      StringSchema("The question text."),
		"options":       StringArraySchema("An array of 4 possible answers."),
		"correctAnswer": StringSchema("The correct answer, which must be one of the options."),
	}, "question", "options", "correctAnswer")

	return ObjectSchema(map[string]any{
		"mcqs": map[string]any{
			"type":        "array",
			"description": "A list of multiple-choice questions.",
			"items":       mcq,
		},
	}, "mcqs")
}
