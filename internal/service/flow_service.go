package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"surveyflow/internal/cache"
	"surveyflow/internal/engine"
	"surveyflow/internal/logger"
	"surveyflow/internal/model"
	"surveyflow/internal/repository"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionTerminal      = errors.New("session already completed")
	ErrSurveyClosed         = errors.New("survey is not open for responses")
	ErrCompletionInProgress = errors.New("completion already in progress")
)

// FlowService is the flow coordinator: it orchestrates logic resolution on
// every answer and quota matching plus counting on completion, and combines
// the per-quota outcomes into one terminal decision.
type FlowService struct {
	surveySvc   *SurveyService
	quotaSvc    *QuotaService
	sessions    cache.SessionCache
	responses   repository.ResponseRepo
	priority    ActionPriority
	log         *logger.Logger
	broadcaster Broadcaster
}

// NewFlowService creates a new flow service. priority configures the
// tie-break among rejecting quota actions; nil selects the default order.
func NewFlowService(
	surveySvc *SurveyService,
	quotaSvc *QuotaService,
	sessions cache.SessionCache,
	responses repository.ResponseRepo,
	priority ActionPriority,
	log *logger.Logger,
) *FlowService {
	if priority == nil {
		priority = DefaultActionPriority
	}
	return &FlowService{
		surveySvc: surveySvc,
		quotaSvc:  quotaSvc,
		sessions:  sessions,
		responses: responses,
		priority:  priority,
		log:       log,
	}
}

// SetBroadcaster sets the broadcaster for monitor events
func (s *FlowService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSession opens a response session for an open survey. Abandoned
// sessions expire from the cache without ever touching a quota: counting
// happens only at completion.
func (s *FlowService) StartSession(ctx context.Context, surveyID string) (*model.Session, error) {
	survey, err := s.surveySvc.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.IsOpen {
		return nil, ErrSurveyClosed
	}

	session := &model.Session{
		ID:        uuid.New().String(),
		SurveyID:  surveyID,
		Status:    model.SessionCollecting,
		StartedAt: time.Now(),
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, err
	}

	// Quotas with a full HIDE_QUESTIONS bucket hide their questions from the
	// start of every later session.
	if hidden := s.initialHidden(ctx, surveyID); len(hidden) > 0 {
		if err := s.sessions.HideQuestions(ctx, session.ID, hidden); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// OnAnswer applies one submitted answer: it is stored (idempotent overwrite
// for a repeated question), logic is re-resolved against the updated answer
// set, and the resulting navigation decision is returned. A respondent never
// sees an error from a broken rule; the safe default is natural order.
func (s *FlowService) OnAnswer(ctx context.Context, sessionID, questionID string, value model.AnswerValue) (model.Decision, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return model.Decision{}, err
	}
	if session == nil {
		return model.Decision{}, ErrSessionNotFound
	}
	if session.Status != model.SessionCollecting {
		return model.Decision{}, ErrSessionTerminal
	}

	survey, err := s.surveySvc.GetByID(ctx, session.SurveyID)
	if err != nil {
		return model.Decision{}, err
	}

	question := survey.QuestionByID(questionID)
	if question == nil {
		// Configuration error: answer for a question the definition no
		// longer has. Flow continues; nothing is stored.
		return model.Decision{
			Kind:     model.DecisionContinue,
			Warnings: []string{fmt.Sprintf("question %s not found in survey", questionID)},
		}, nil
	}

	if err := s.sessions.SetAnswer(ctx, sessionID, questionID, &value); err != nil {
		return model.Decision{}, err
	}

	answers, err := s.sessions.GetAnswers(ctx, sessionID)
	if err != nil {
		return model.Decision{}, err
	}
	hidden, err := s.sessions.GetHidden(ctx, sessionID)
	if err != nil {
		return model.Decision{}, err
	}

	decision := engine.Resolve(question, answers, hidden, survey.QuestionOrder())

	for _, w := range decision.Warnings {
		s.log.WithSession(sessionID).Warn(w)
	}
	if err := s.sessions.HideQuestions(ctx, sessionID, decision.Hide); err != nil {
		return model.Decision{}, err
	}
	if err := s.sessions.ShowQuestions(ctx, sessionID, decision.Show); err != nil {
		return model.Decision{}, err
	}

	return decision, nil
}

// OnComplete finishes a response: all active quotas are matched against the
// final answer set, each matched quota is counted independently, and the
// rejecting actions are combined by priority into the final decision. The
// completion is exactly-once per session; replays return the stored result.
func (s *FlowService) OnComplete(ctx context.Context, sessionID string) (*model.CompletionResult, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.Status == model.SessionAccepted || session.Status == model.SessionBlocked {
		result, err := s.sessions.GetResult(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		return nil, ErrSessionTerminal
	}

	ok, err := s.sessions.TransitionStatus(ctx, sessionID, model.SessionCollecting, model.SessionEvaluating)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another call holds the evaluating state; its result may already be
		// stored.
		result, rerr := s.sessions.GetResult(ctx, sessionID)
		if rerr == nil && result != nil {
			return result, nil
		}
		return nil, ErrCompletionInProgress
	}

	answers, err := s.sessions.GetAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	hidden, err := s.sessions.GetHidden(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	quotas, warnings, err := s.quotaSvc.ActiveQuotas(ctx, session.SurveyID)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.log.WithSession(sessionID).Warn(w)
	}

	// One response per session, so the session ID doubles as the response ID
	// and retried completions replay idempotently in the counter.
	responseID := sessionID

	matched := engine.Match(answers, hidden, quotas)

	result := &model.CompletionResult{
		ResponseID:  responseID,
		FinalAction: model.QuotaActionContinue,
		Warnings:    warnings,
	}

	var rejecting []model.QuotaOutcome
	for _, quota := range matched {
		outcome, err := s.quotaSvc.TryCount(ctx, quota, responseID)
		if err != nil {
			// Counting must not half-complete silently: surface the error and
			// hand the session back to collecting so a later complete can run
			// the whole evaluation again. Quotas counted before the failure
			// replay idempotently on that retry.
			if _, terr := s.sessions.TransitionStatus(ctx, sessionID, model.SessionEvaluating, model.SessionCollecting); terr != nil {
				s.log.WithSession(sessionID).WithError(terr).Error("failed to return session to collecting")
			}
			return nil, err
		}
		result.MatchedQuotas = append(result.MatchedQuotas, outcome)
		if !outcome.Accepted && outcome.Action != model.QuotaActionContinue {
			rejecting = append(rejecting, outcome)
		}
	}

	if len(rejecting) > 0 {
		actions := make([]model.QuotaAction, len(rejecting))
		for i, o := range rejecting {
			actions[i] = o.Action
		}
		result.FinalAction = s.priority.Pick(actions)
		for _, o := range rejecting {
			if o.Action == result.FinalAction {
				result.ActionMessage = o.ActionMessage
				result.ActionURL = o.ActionURL
				break
			}
		}
	}

	terminal := model.SessionAccepted
	if result.FinalAction != model.QuotaActionContinue {
		terminal = model.SessionBlocked
	}

	if err := s.sessions.SetResult(ctx, sessionID, result); err != nil {
		return nil, err
	}
	if _, err := s.sessions.TransitionStatus(ctx, sessionID, model.SessionEvaluating, terminal); err != nil {
		return nil, err
	}

	response := &model.Response{
		ID:          responseID,
		SessionID:   sessionID,
		SurveyID:    session.SurveyID,
		Answers:     answers,
		FinalAction: result.FinalAction,
		Outcomes:    result.MatchedQuotas,
		CompletedAt: time.Now(),
	}
	if err := s.responses.Create(ctx, response); err != nil {
		s.log.WithSession(sessionID).WithError(err).Error("failed to persist response record")
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSurvey(session.SurveyID, "session_completed", map[string]interface{}{
			"sessionId":   sessionID,
			"finalAction": string(result.FinalAction),
			"quotas":      len(result.MatchedQuotas),
		})
	}

	return result, nil
}

// initialHidden collects the questions hidden by already-exhausted
// HIDE_QUESTIONS quotas.
func (s *FlowService) initialHidden(ctx context.Context, surveyID string) []string {
	quotas, err := s.quotaSvc.Status(ctx, surveyID)
	if err != nil {
		s.log.WithError(err).Warn("failed to load quotas for initial visibility")
		return nil
	}
	var hidden []string
	for _, q := range quotas {
		if q.IsActive && q.Action == model.QuotaActionHideQuestions && q.Count >= q.Limit && q.Limit > 0 {
			hidden = append(hidden, q.HiddenQuestionIDs...)
		}
	}
	return hidden
}
