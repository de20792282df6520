package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"surveyflow/internal/model"
	"surveyflow/internal/repository"
)

var (
	ErrSurveyNotFound = errors.New("survey not found")
	ErrInvalidSurvey  = errors.New("invalid survey definition")
)

// SurveyService owns the survey definition boundary: creation with
// validation, and the read-through lookup the flow engine performs on every
// call. It holds no cache, so definition edits between responses take effect
// immediately.
type SurveyService struct {
	surveyRepo repository.SurveyRepo
	validate   *validator.Validate
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
		validate:   validator.New(),
	}
}

// Create validates and stores a survey definition. Question IDs and
// positions are assigned when missing.
func (s *SurveyService) Create(ctx context.Context, survey *model.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.New().String()
	}
	for i := range survey.Questions {
		if survey.Questions[i].ID == "" {
			survey.Questions[i].ID = uuid.New().String()
		}
		survey.Questions[i].Position = i
		for j := range survey.Questions[i].Rules {
			if survey.Questions[i].Rules[j].ID == "" {
				survey.Questions[i].Rules[j].ID = uuid.New().String()
			}
		}
	}

	if err := s.validate.Struct(survey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}
	if err := validateRuleOperators(survey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}

	return s.surveyRepo.Create(ctx, survey)
}

// GetByID returns the survey definition or ErrSurveyNotFound
func (s *SurveyService) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// Update replaces a survey definition after validation
func (s *SurveyService) Update(ctx context.Context, survey *model.Survey) error {
	if err := s.validate.Struct(survey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}
	return s.surveyRepo.Update(ctx, survey)
}

// validateRuleOperators rejects definitions with operators outside the
// condition language. Target ordering is deliberately not checked here: the
// resolver re-validates it at rule-application time (authoring-time checks
// cannot be trusted once questions are reordered).
func validateRuleOperators(survey *model.Survey) error {
	for _, q := range survey.Questions {
		for _, rule := range q.Rules {
			for _, cond := range rule.Conditions {
				if !model.KnownOperator(cond.Operator) {
					return fmt.Errorf("question %s rule %s: unknown operator %q", q.ID, rule.ID, cond.Operator)
				}
			}
		}
	}
	return nil
}
