package model

import "strconv"

// AnswerValue holds what a respondent submitted for one question
type AnswerValue struct {
	Text       string   `json:"text,omitempty" bson:"text,omitempty"`             // Typed responses and numeric entry
	Selections []string `json:"selections,omitempty" bson:"selections,omitempty"` // Chosen option values
}

// Values returns every submitted value as strings: selections for choice
// answers, the raw text otherwise.
func (v AnswerValue) Values() []string {
	if len(v.Selections) > 0 {
		return v.Selections
	}
	if v.Text != "" {
		return []string{v.Text}
	}
	return nil
}

// Numeric parses the answer as a number. The second return is false for
// empty, multi-select, or non-numeric answers.
func (v AnswerValue) Numeric() (float64, bool) {
	raw := v.Text
	if raw == "" && len(v.Selections) == 1 {
		raw = v.Selections[0]
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEmpty reports whether the answer carries no value at all
func (v AnswerValue) IsEmpty() bool {
	return v.Text == "" && len(v.Selections) == 0
}

// AnswerSet maps question ID to the submitted value. It accumulates
// incrementally within one response session; keys are overwritten on
// resubmission but never removed.
type AnswerSet map[string]AnswerValue

// Answered reports whether the question has a non-empty value, treating
// questions in the hidden set as unanswered.
func (s AnswerSet) Answered(questionID string, hidden map[string]bool) bool {
	if hidden[questionID] {
		return false
	}
	v, ok := s[questionID]
	return ok && !v.IsEmpty()
}
