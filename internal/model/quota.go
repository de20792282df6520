package model

import (
	"fmt"
	"time"
)

// QuotaAction is what happens to a response once its quota is full.
// ActionContinue is a real variant: the quota keeps counting up to its limit
// but a rejection has no blocking effect.
type QuotaAction string

const (
	QuotaActionEndSurvey     QuotaAction = "END_SURVEY"
	QuotaActionRedirect      QuotaAction = "REDIRECT"
	QuotaActionHideQuestions QuotaAction = "HIDE_QUESTIONS"
	QuotaActionContinue      QuotaAction = "CONTINUE"
)

// Quota caps the number of responses matching its conditions. Count is
// mutated only by the quota counter during collection and by Reset.
type Quota struct {
	ID       string      `json:"id" bson:"_id,omitempty"`
	SurveyID string      `json:"surveyId" bson:"surveyId" validate:"required"`
	Name     string      `json:"name" bson:"name" validate:"required"`
	Limit    int         `json:"limit" bson:"limit" validate:"gt=0"`
	Action   QuotaAction `json:"action" bson:"action" validate:"required"`
	// ActionMessage is shown on END_SURVEY/HIDE_QUESTIONS; ActionURL is the
	// REDIRECT target.
	ActionMessage string      `json:"actionMessage,omitempty" bson:"actionMessage,omitempty"`
	ActionURL     string      `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	Conditions    []Condition `json:"conditions" bson:"conditions" validate:"dive"`
	// HiddenQuestionIDs are hidden from later respondents when Action is
	// HIDE_QUESTIONS and the quota is full.
	HiddenQuestionIDs []string `json:"hiddenQuestionIds,omitempty" bson:"hiddenQuestionIds,omitempty"`
	Count             int      `json:"count" bson:"count"`
	IsActive          bool     `json:"isActive" bson:"isActive"`
	// MatrixID ties cell quotas expanded from the same interlocked matrix
	MatrixID  string    `json:"matrixId,omitempty" bson:"matrixId,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// InterlockedQuota is a limit matrix over two questions' option values. It is
// an authoring-time construct only: Expand flattens it into ordinary cell
// quotas and nothing downstream ever sees the matrix itself.
type InterlockedQuota struct {
	ID            string      `json:"id" bson:"_id,omitempty"`
	SurveyID      string      `json:"surveyId" bson:"surveyId" validate:"required"`
	Name          string      `json:"name" bson:"name" validate:"required"`
	Question1ID   string      `json:"question1Id" bson:"question1Id" validate:"required"`
	Question2ID   string      `json:"question2Id" bson:"question2Id" validate:"required"`
	Values1       []string    `json:"values1" bson:"values1" validate:"min=1"`
	Values2       []string    `json:"values2" bson:"values2" validate:"min=1"`
	Limits        [][]int     `json:"limits" bson:"limits"` // Limits[i][j] caps Values1[i] x Values2[j]
	Action        QuotaAction `json:"action" bson:"action" validate:"required"`
	ActionMessage string      `json:"actionMessage,omitempty" bson:"actionMessage,omitempty"`
	ActionURL     string      `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	IsActive      bool        `json:"isActive" bson:"isActive"`
}

// Expand flattens the matrix into one quota per cell, each conditioned on
// "question1 = value_i AND question2 = value_j". Cells with a zero or
// negative limit are omitted.
func (iq *InterlockedQuota) Expand() []Quota {
	quotas := make([]Quota, 0, len(iq.Values1)*len(iq.Values2))
	for i, v1 := range iq.Values1 {
		if i >= len(iq.Limits) {
			break
		}
		for j, v2 := range iq.Values2 {
			if j >= len(iq.Limits[i]) {
				break
			}
			limit := iq.Limits[i][j]
			if limit <= 0 {
				continue
			}
			quotas = append(quotas, Quota{
				ID:            fmt.Sprintf("%s:%d:%d", iq.ID, i, j),
				SurveyID:      iq.SurveyID,
				Name:          fmt.Sprintf("%s [%s x %s]", iq.Name, v1, v2),
				Limit:         limit,
				Action:        iq.Action,
				ActionMessage: iq.ActionMessage,
				ActionURL:     iq.ActionURL,
				Conditions: []Condition{
					{QuestionID: iq.Question1ID, Operator: OpEquals, Value: v1},
					{QuestionID: iq.Question2ID, Operator: OpEquals, Value: v2},
				},
				IsActive: iq.IsActive,
				MatrixID: iq.ID,
			})
		}
	}
	return quotas
}

// QuotaResponse links a completed response to a quota it was counted against.
// The link is what makes counting idempotent and what a reset discards.
type QuotaResponse struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	QuotaID    string    `json:"quotaId" bson:"quotaId"`
	ResponseID string    `json:"responseId" bson:"responseId"`
	CountedAt  time.Time `json:"countedAt" bson:"countedAt"`
}

// QuotaOutcome is the per-quota result of counting one completed response
type QuotaOutcome struct {
	QuotaID  string      `json:"quotaId" bson:"quotaId"`
	Accepted bool        `json:"accepted" bson:"accepted"`
	Action   QuotaAction `json:"action" bson:"action"`
	// ActionMessage/ActionURL accompany a rejecting action
	ActionMessage string `json:"actionMessage,omitempty" bson:"actionMessage,omitempty"`
	ActionURL     string `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
}
