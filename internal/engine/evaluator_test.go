package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"surveyflow/internal/model"
)

func TestEvaluate(t *testing.T) {
	answers := model.AnswerSet{
		"q-region":  {Selections: []string{"West"}},
		"q-age":     {Text: "25"},
		"q-comment": {Text: "very helpful support team"},
		"q-multi":   {Selections: []string{"A", "C"}},
	}

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{"equals match", model.Condition{QuestionID: "q-region", Operator: model.OpEquals, Value: "West"}, true},
		{"equals mismatch", model.Condition{QuestionID: "q-region", Operator: model.OpEquals, Value: "East"}, false},
		{"not equals", model.Condition{QuestionID: "q-region", Operator: model.OpNotEquals, Value: "East"}, true},
		{"contains substring", model.Condition{QuestionID: "q-comment", Operator: model.OpContains, Value: "support"}, true},
		{"contains selection", model.Condition{QuestionID: "q-multi", Operator: model.OpContains, Value: "C"}, true},
		{"not contains", model.Condition{QuestionID: "q-multi", Operator: model.OpNotContains, Value: "B"}, true},
		{"greater than", model.Condition{QuestionID: "q-age", Operator: model.OpGreaterThan, Value: "18"}, true},
		{"greater than boundary", model.Condition{QuestionID: "q-age", Operator: model.OpGreaterThan, Value: "25"}, false},
		{"less than", model.Condition{QuestionID: "q-age", Operator: model.OpLessThan, Value: "30"}, true},
		{"between inclusive", model.Condition{QuestionID: "q-age", Operator: model.OpBetween, Values: []string{"25", "30"}}, true},
		{"between outside", model.Condition{QuestionID: "q-age", Operator: model.OpBetween, Values: []string{"30", "40"}}, false},
		{"in set", model.Condition{QuestionID: "q-region", Operator: model.OpIn, Values: []string{"West", "East"}}, true},
		{"not in set", model.Condition{QuestionID: "q-region", Operator: model.OpNotIn, Values: []string{"North", "South"}}, true},
		{"is answered", model.Condition{QuestionID: "q-age", Operator: model.OpIsAnswered}, true},
		{"is not answered missing", model.Condition{QuestionID: "q-gone", Operator: model.OpIsNotAnswered}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, answers, nil))
		})
	}
}

func TestEvaluateUnansweredIsFalse(t *testing.T) {
	// Every value operator on a missing answer evaluates false, never errors.
	answers := model.AnswerSet{}
	for _, op := range []model.Operator{
		model.OpEquals, model.OpNotEquals, model.OpContains, model.OpNotContains,
		model.OpGreaterThan, model.OpLessThan, model.OpBetween, model.OpIn, model.OpNotIn,
	} {
		t.Run(string(op), func(t *testing.T) {
			cond := model.Condition{QuestionID: "q-missing", Operator: op, Value: "x", Values: []string{"1", "2"}}
			assert.False(t, Evaluate(cond, answers, nil))
		})
	}
}

func TestEvaluateMalformedData(t *testing.T) {
	answers := model.AnswerSet{
		"q-text":  {Text: "not a number"},
		"q-empty": {},
	}

	t.Run("non numeric answer fails numeric compare", func(t *testing.T) {
		cond := model.Condition{QuestionID: "q-text", Operator: model.OpGreaterThan, Value: "10"}
		assert.False(t, Evaluate(cond, answers, nil))
	})
	t.Run("non numeric bound fails numeric compare", func(t *testing.T) {
		cond := model.Condition{QuestionID: "q-text", Operator: model.OpLessThan, Value: "ten"}
		assert.False(t, Evaluate(cond, answers, nil))
	})
	t.Run("between with one bound", func(t *testing.T) {
		cond := model.Condition{QuestionID: "q-text", Operator: model.OpBetween, Values: []string{"1"}}
		assert.False(t, Evaluate(cond, answers, nil))
	})
	t.Run("empty answer is unanswered", func(t *testing.T) {
		cond := model.Condition{QuestionID: "q-empty", Operator: model.OpIsAnswered}
		assert.False(t, Evaluate(cond, answers, nil))
	})
	t.Run("unknown operator", func(t *testing.T) {
		cond := model.Condition{QuestionID: "q-text", Operator: "REGEX_MATCH", Value: ".*"}
		assert.False(t, Evaluate(cond, answers, nil))
	})
}

func TestEvaluateHiddenOverlay(t *testing.T) {
	answers := model.AnswerSet{"q-hidden": {Text: "kept"}}
	hidden := map[string]bool{"q-hidden": true}

	t.Run("hidden question reads as unanswered", func(t *testing.T) {
		assert.False(t, Evaluate(model.Condition{QuestionID: "q-hidden", Operator: model.OpIsAnswered}, answers, hidden))
		assert.True(t, Evaluate(model.Condition{QuestionID: "q-hidden", Operator: model.OpIsNotAnswered}, answers, hidden))
	})
	t.Run("stored value still visible to value operators", func(t *testing.T) {
		assert.True(t, Evaluate(model.Condition{QuestionID: "q-hidden", Operator: model.OpEquals, Value: "kept"}, answers, hidden))
	})
}

func TestEvaluateAll(t *testing.T) {
	answers := model.AnswerSet{
		"q-region": {Selections: []string{"West"}},
		"q-age":    {Text: "40"},
	}

	t.Run("all conditions must hold", func(t *testing.T) {
		conds := []model.Condition{
			{QuestionID: "q-region", Operator: model.OpEquals, Value: "West"},
			{QuestionID: "q-age", Operator: model.OpGreaterThan, Value: "30"},
		}
		assert.True(t, EvaluateAll(conds, answers, nil))

		conds[1].Value = "50"
		assert.False(t, EvaluateAll(conds, answers, nil))
	})
	t.Run("empty list is vacuously true", func(t *testing.T) {
		assert.True(t, EvaluateAll(nil, answers, nil))
	})
}
