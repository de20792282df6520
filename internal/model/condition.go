package model

// Operator is a condition comparison operator
type Operator string

const (
	OpEquals        Operator = "EQUALS"
	OpNotEquals     Operator = "NOT_EQUALS"
	OpContains      Operator = "CONTAINS"
	OpNotContains   Operator = "NOT_CONTAINS"
	OpGreaterThan   Operator = "GREATER_THAN"
	OpLessThan      Operator = "LESS_THAN"
	OpBetween       Operator = "BETWEEN"
	OpIn            Operator = "IN"
	OpNotIn         Operator = "NOT_IN"
	OpIsAnswered    Operator = "IS_ANSWERED"
	OpIsNotAnswered Operator = "IS_NOT_ANSWERED"
)

// KnownOperator reports whether op is part of the condition language
func KnownOperator(op Operator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpBetween, OpIn, OpNotIn,
		OpIsAnswered, OpIsNotAnswered:
		return true
	}
	return false
}

// Condition references a question's answer and compares it to a value or
// value set. Conditions are pure and order-independent; lists of conditions
// are AND-ed.
type Condition struct {
	QuestionID string   `json:"questionId" bson:"questionId" validate:"required"`
	Operator   Operator `json:"operator" bson:"operator" validate:"required"`
	Value      string   `json:"value,omitempty" bson:"value,omitempty"`   // EQUALS, CONTAINS, GREATER_THAN, LESS_THAN
	Values     []string `json:"values,omitempty" bson:"values,omitempty"` // IN, NOT_IN, BETWEEN (low, high)
}
