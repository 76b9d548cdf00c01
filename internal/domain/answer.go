package domain

// AnswerKind discriminates the answer variants.
type AnswerKind string

const (
	AnswerText    AnswerKind = "text"
	AnswerOptions AnswerKind = "options"
)

// Answer is a single collected answer: free text for open questions,
// an option id list for select (one element) and multi-select questions.
type Answer struct {
	Kind    AnswerKind `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Options []string   `json:"options,omitempty"`
}

// TextAnswer builds a free-text answer.
func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

// OptionsAnswer builds an option-list answer.
func OptionsAnswer(options ...string) Answer {
	return Answer{Kind: AnswerOptions, Options: options}
}

// Option returns the single selected option id, or "" if none.
func (a Answer) Option() string {
	if len(a.Options) == 0 {
		return ""
	}
	return a.Options[0]
}
