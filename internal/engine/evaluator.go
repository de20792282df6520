// Package engine holds the pure parts of the response flow engine: condition
// evaluation, logic resolution, and quota matching. Nothing here performs I/O
// or touches shared state.
package engine

import (
	"strconv"
	"strings"

	"surveyflow/internal/model"
)

// Evaluate checks one condition against the accumulated answer set. hidden is
// the session's visibility overlay; answers for hidden questions are retained
// but invisible to the answered-ness operators. Malformed or missing answers
// evaluate to false, never to an error: a condition on an unanswered question
// is false for every operator except IS_NOT_ANSWERED.
func Evaluate(c model.Condition, answers model.AnswerSet, hidden map[string]bool) bool {
	answered := answers.Answered(c.QuestionID, hidden)

	switch c.Operator {
	case model.OpIsAnswered:
		return answered
	case model.OpIsNotAnswered:
		return !answered
	}

	value, ok := answers[c.QuestionID]
	if !ok || value.IsEmpty() {
		return false
	}

	switch c.Operator {
	case model.OpEquals:
		return containsValue(value.Values(), c.Value)
	case model.OpNotEquals:
		return !containsValue(value.Values(), c.Value)
	case model.OpContains:
		return answerContains(value, c.Value)
	case model.OpNotContains:
		return !answerContains(value, c.Value)
	case model.OpGreaterThan:
		n, ok := value.Numeric()
		bound, bok := parseNumber(c.Value)
		return ok && bok && n > bound
	case model.OpLessThan:
		n, ok := value.Numeric()
		bound, bok := parseNumber(c.Value)
		return ok && bok && n < bound
	case model.OpBetween:
		if len(c.Values) < 2 {
			return false
		}
		n, ok := value.Numeric()
		low, lok := parseNumber(c.Values[0])
		high, hok := parseNumber(c.Values[1])
		return ok && lok && hok && n >= low && n <= high
	case model.OpIn:
		return anyIn(value.Values(), c.Values)
	case model.OpNotIn:
		return !anyIn(value.Values(), c.Values)
	}

	// Unknown operator: treated as a failed condition, not an error
	return false
}

// EvaluateAll AND-s a condition list. An empty list is vacuously true.
func EvaluateAll(conds []model.Condition, answers model.AnswerSet, hidden map[string]bool) bool {
	for _, c := range conds {
		if !Evaluate(c, answers, hidden) {
			return false
		}
	}
	return true
}

// answerContains is substring match for text answers and set membership for
// multi-select answers.
func answerContains(v model.AnswerValue, target string) bool {
	if len(v.Selections) > 0 {
		return containsValue(v.Selections, target)
	}
	return strings.Contains(v.Text, target)
}

func containsValue(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func anyIn(values, set []string) bool {
	for _, v := range values {
		if containsValue(set, v) {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
