package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyflow/internal/model"
)

func TestSurveyServiceCreate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSurveyRepo()
	svc := NewSurveyService(repo)

	t.Run("assigns ids and positions", func(t *testing.T) {
		survey := &model.Survey{
			Title: "Demo",
			Questions: []model.Question{
				{Type: model.QuestionTypeText, Prompt: "First?"},
				{Type: model.QuestionTypeText, Prompt: "Second?"},
			},
		}
		require.NoError(t, svc.Create(ctx, survey))
		assert.NotEmpty(t, survey.ID)
		assert.NotEmpty(t, survey.Questions[0].ID)
		assert.Equal(t, 0, survey.Questions[0].Position)
		assert.Equal(t, 1, survey.Questions[1].Position)
	})

	t.Run("unknown rule operator is rejected", func(t *testing.T) {
		survey := &model.Survey{
			Title: "Broken",
			Questions: []model.Question{
				{
					ID:     "q1",
					Type:   model.QuestionTypeText,
					Prompt: "First?",
					Rules: []model.LogicRule{
						{
							Type: model.RuleTypeSkip,
							Conditions: []model.Condition{
								{QuestionID: "q1", Operator: "SOUNDS_LIKE", Value: "x"},
							},
							Action: model.RuleAction{Type: model.ActionEndSurvey},
						},
					},
				},
			},
		}
		err := svc.Create(ctx, survey)
		assert.ErrorIs(t, err, ErrInvalidSurvey)
	})
}

func TestSurveyServiceGetByID(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSurveyRepo()
	svc := NewSurveyService(repo)

	require.NoError(t, repo.Create(ctx, &model.Survey{ID: "s1", Title: "Demo"}))

	t.Run("found", func(t *testing.T) {
		survey, err := svc.GetByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "Demo", survey.Title)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrSurveyNotFound)
	})
}
