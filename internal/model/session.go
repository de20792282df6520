package model

import "time"

// SessionStatus is the per-response quota state machine:
// collecting -> evaluating -> accepted | blocked. Terminal once evaluating
// resolves; never re-entered for the same response.
type SessionStatus string

const (
	SessionCollecting SessionStatus = "collecting"
	SessionEvaluating SessionStatus = "evaluating"
	SessionAccepted   SessionStatus = "accepted"
	SessionBlocked    SessionStatus = "blocked"
)

// Session is one respondent's in-progress response
type Session struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	SurveyID  string        `json:"surveyId" bson:"surveyId"`
	Status    SessionStatus `json:"status" bson:"status"`
	StartedAt time.Time     `json:"startedAt" bson:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// CompletionResult is the coordinator's combined decision for one completed
// response: the highest-priority rejecting action across all matched quotas,
// plus every per-quota outcome.
type CompletionResult struct {
	ResponseID    string         `json:"responseId"`
	FinalAction   QuotaAction    `json:"finalAction"`
	ActionMessage string         `json:"actionMessage,omitempty"`
	ActionURL     string         `json:"actionUrl,omitempty"`
	MatchedQuotas []QuotaOutcome `json:"matchedQuotas"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Response is the durable record of a completed response
type Response struct {
	ID          string         `json:"id" bson:"_id,omitempty"`
	SessionID   string         `json:"sessionId" bson:"sessionId"`
	SurveyID    string         `json:"surveyId" bson:"surveyId"`
	Answers     AnswerSet      `json:"answers" bson:"answers"`
	FinalAction QuotaAction    `json:"finalAction" bson:"finalAction"`
	Outcomes    []QuotaOutcome `json:"outcomes,omitempty" bson:"outcomes,omitempty"`
	CompletedAt time.Time      `json:"completedAt" bson:"completedAt"`
}
