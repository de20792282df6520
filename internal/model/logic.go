package model

// RuleType classifies a logic rule. Only skip/branch and display rules affect
// response flow; piping is resolved at render time by the caller.
type RuleType string

const (
	RuleTypeSkip    RuleType = "SKIP"
	RuleTypeDisplay RuleType = "DISPLAY"
	RuleTypePiping  RuleType = "PIPING"
)

// ActionType is what a matched rule does
type ActionType string

const (
	ActionSkipTo       ActionType = "SKIP_TO"
	ActionEndSurvey    ActionType = "END_SURVEY"
	ActionShowQuestion ActionType = "SHOW_QUESTION"
	ActionHideQuestion ActionType = "HIDE_QUESTION"
)

// RuleAction is the single action a logic rule carries. TargetID must refer
// to a question strictly after the rule's source question; END_SURVEY has no
// target.
type RuleAction struct {
	Type     ActionType `json:"type" bson:"type" validate:"required"`
	TargetID string     `json:"targetId,omitempty" bson:"targetId,omitempty"`
}

// LogicRule belongs to exactly one source question. Its conditions are AND-ed
// and evaluated in stored order; the first matching rule on a question wins.
type LogicRule struct {
	ID         string      `json:"id" bson:"id"`
	Type       RuleType    `json:"type" bson:"type" validate:"required"`
	Conditions []Condition `json:"conditions" bson:"conditions" validate:"dive"`
	Action     RuleAction  `json:"action" bson:"action" validate:"required"`
}

// DecisionKind is the navigation outcome of resolving a question's rules
type DecisionKind string

const (
	DecisionContinue  DecisionKind = "CONTINUE"   // Next question in natural order
	DecisionSkipTo    DecisionKind = "SKIP_TO"    // Jump forward to NextQuestionID
	DecisionEndSurvey DecisionKind = "END_SURVEY" // Terminate the response
)

// Decision is the result of logic resolution for one submitted answer.
// Show/Hide collect visibility overlay changes; they do not alter navigation
// by themselves. Warnings carry configuration errors for disabled rules.
type Decision struct {
	Kind           DecisionKind `json:"kind"`
	NextQuestionID string       `json:"nextQuestionId,omitempty"`
	Show           []string     `json:"show,omitempty"`
	Hide           []string     `json:"hide,omitempty"`
	Warnings       []string     `json:"warnings,omitempty"`
}
