package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Notes drafting
	Topic string
	// Quiz + feedback
	Notes string
	// Quiz sizing
	MinQuestions int
	MaxQuestions int
	OptionCount  int
}
