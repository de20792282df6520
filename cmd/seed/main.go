// Seeds a demo survey with skip/display logic and quotas, including an
// interlocked region-by-age matrix, for local development.
package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyflow/internal/config"
	"surveyflow/internal/model"
	"surveyflow/internal/repository"
	"surveyflow/internal/service"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}

	db := mongoClient.Database(cfg.MongoDB)

	surveyRepo := repository.NewSurveyRepo(db)
	quotaRepo, err := repository.NewQuotaRepo(db)
	if err != nil {
		log.Fatal("Failed to initialize quota repository:", err)
	}

	surveySvc := service.NewSurveyService(surveyRepo)

	survey := &model.Survey{
		ID:     "demo-survey",
		Title:  "Customer Feedback Demo",
		IsOpen: true,
		Questions: []model.Question{
			{
				ID:     "q-consent",
				Type:   model.QuestionTypeChoice,
				Prompt: "Do you agree to participate?",
				Options: []model.Option{
					{ID: "o-yes", Value: "Yes"},
					{ID: "o-no", Value: "No"},
				},
				Rules: []model.LogicRule{
					{
						ID:   "r-consent-end",
						Type: model.RuleTypeSkip,
						Conditions: []model.Condition{
							{QuestionID: "q-consent", Operator: model.OpEquals, Value: "No"},
						},
						Action: model.RuleAction{Type: model.ActionEndSurvey},
					},
				},
			},
			{
				ID:     "q-region",
				Type:   model.QuestionTypeChoice,
				Prompt: "Which region do you live in?",
				Options: []model.Option{
					{ID: "o-west", Value: "West"},
					{ID: "o-east", Value: "East"},
				},
			},
			{
				ID:     "q-age",
				Type:   model.QuestionTypeNumber,
				Prompt: "How old are you?",
				Rules: []model.LogicRule{
					{
						ID:   "r-age-skip",
						Type: model.RuleTypeSkip,
						Conditions: []model.Condition{
							{QuestionID: "q-age", Operator: model.OpLessThan, Value: "18"},
						},
						Action: model.RuleAction{Type: model.ActionSkipTo, TargetID: "q-final"},
					},
				},
			},
			{
				ID:     "q-employment",
				Type:   model.QuestionTypeChoice,
				Prompt: "What is your employment status?",
				Options: []model.Option{
					{ID: "o-employed", Value: "Employed"},
					{ID: "o-other", Value: "Other"},
				},
			},
			{
				ID:     "q-final",
				Type:   model.QuestionTypeText,
				Prompt: "Any final comments?",
			},
		},
	}

	if err := surveySvc.Create(ctx, survey); err != nil {
		log.Fatal("Failed to create survey:", err)
	}
	log.Printf("Created survey %s", survey.ID)

	quota := &model.Quota{
		ID:            "demo-quota-west",
		SurveyID:      survey.ID,
		Name:          "West region cap",
		Limit:         100,
		Action:        model.QuotaActionEndSurvey,
		ActionMessage: "We have enough responses from your region. Thank you!",
		Conditions: []model.Condition{
			{QuestionID: "q-region", Operator: model.OpEquals, Value: "West"},
		},
		IsActive: true,
	}
	if err := quotaRepo.Create(ctx, quota); err != nil {
		log.Fatal("Failed to create quota:", err)
	}
	log.Printf("Created quota %s", quota.ID)

	matrix := &model.InterlockedQuota{
		ID:          "demo-matrix",
		SurveyID:    survey.ID,
		Name:        "Region x Age band",
		Question1ID: "q-region",
		Question2ID: "q-employment",
		Values1:     []string{"West", "East"},
		Values2:     []string{"Employed", "Other"},
		Limits:      [][]int{{50, 30}, {20, 40}},
		Action:      model.QuotaActionRedirect,
		ActionURL:   "https://example.com/quota-full",
		IsActive:    true,
	}
	cells := matrix.Expand()
	if err := quotaRepo.CreateMany(ctx, cells); err != nil {
		log.Fatal("Failed to create interlocked quotas:", err)
	}
	log.Printf("Created %d interlocked cell quotas", len(cells))
}
