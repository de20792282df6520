package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"surveyflow/internal/cache"
	"surveyflow/internal/logger"
	"surveyflow/internal/model"
	"surveyflow/internal/repository"
)

var (
	ErrQuotaNotFound = errors.New("quota not found")
	ErrInvalidQuota  = errors.New("invalid quota definition")
)

// ActionPriority orders quota actions for the coordinator's tie-break when a
// response is rejected by several quotas at once. Earlier entries win.
type ActionPriority []model.QuotaAction

// DefaultActionPriority: end-survey > redirect > hide-questions > continue
var DefaultActionPriority = ActionPriority{
	model.QuotaActionEndSurvey,
	model.QuotaActionRedirect,
	model.QuotaActionHideQuestions,
	model.QuotaActionContinue,
}

// Pick returns the highest-priority action among the given ones. With no
// candidates the response proceeds, so the result is CONTINUE.
func (p ActionPriority) Pick(actions []model.QuotaAction) model.QuotaAction {
	for _, want := range p {
		for _, a := range actions {
			if a == want {
				return a
			}
		}
	}
	return model.QuotaActionContinue
}

// QuotaService owns quota definitions and the counting path. Limit
// enforcement happens in the QuotaCounter; this service adds bounded retry,
// durable bookkeeping, and monitor events around it.
type QuotaService struct {
	quotaRepo   repository.QuotaRepo
	counter     QuotaCounter
	validate    *validator.Validate
	log         *logger.Logger
	maxRetries  int
	broadcaster Broadcaster
}

// NewQuotaService creates a new quota service
func NewQuotaService(quotaRepo repository.QuotaRepo, counter QuotaCounter, log *logger.Logger, maxRetries int) *QuotaService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &QuotaService{
		quotaRepo:  quotaRepo,
		counter:    counter,
		validate:   validator.New(),
		log:        log,
		maxRetries: maxRetries,
	}
}

// SetBroadcaster sets the broadcaster for monitor events
func (s *QuotaService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create validates and stores one quota definition
func (s *QuotaService) Create(ctx context.Context, quota *model.Quota) error {
	if quota.ID == "" {
		quota.ID = uuid.New().String()
	}
	if err := s.validate.Struct(quota); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuota, err)
	}
	for _, cond := range quota.Conditions {
		if !model.KnownOperator(cond.Operator) {
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuota, cond.Operator)
		}
	}
	return s.quotaRepo.Create(ctx, quota)
}

// CreateInterlocked expands a quota matrix into its cell quotas and stores
// them. From here on the cells are ordinary quotas; the counter and matcher
// never see the matrix.
func (s *QuotaService) CreateInterlocked(ctx context.Context, iq *model.InterlockedQuota) ([]model.Quota, error) {
	if iq.ID == "" {
		iq.ID = uuid.New().String()
	}
	if err := s.validate.Struct(iq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuota, err)
	}
	if len(iq.Limits) != len(iq.Values1) {
		return nil, fmt.Errorf("%w: limits rows do not match values1", ErrInvalidQuota)
	}
	for i, row := range iq.Limits {
		if len(row) != len(iq.Values2) {
			return nil, fmt.Errorf("%w: limits row %d does not match values2", ErrInvalidQuota, i)
		}
	}

	cells := iq.Expand()
	if err := s.quotaRepo.CreateMany(ctx, cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// ActiveQuotas returns the survey's quotas eligible for matching. Quotas
// with configuration errors (non-positive limit, unknown operator) are
// treated as inactive and reported as warnings, never as failures: a broken
// definition must not block respondents.
func (s *QuotaService) ActiveQuotas(ctx context.Context, surveyID string) ([]model.Quota, []string, error) {
	quotas, err := s.quotaRepo.GetBySurveyID(ctx, surveyID)
	if err != nil {
		return nil, nil, err
	}

	active := make([]model.Quota, 0, len(quotas))
	var warnings []string
	for _, q := range quotas {
		if !q.IsActive {
			continue
		}
		if q.Limit <= 0 {
			warnings = append(warnings, fmt.Sprintf("quota %s disabled: limit must be positive", q.ID))
			continue
		}
		ok := true
		for _, cond := range q.Conditions {
			if !model.KnownOperator(cond.Operator) {
				warnings = append(warnings, fmt.Sprintf("quota %s disabled: unknown operator %q", q.ID, cond.Operator))
				ok = false
				break
			}
		}
		if ok {
			active = append(active, q)
		}
	}
	return active, warnings, nil
}

// Status returns all quota documents for a survey with their durable counts
func (s *QuotaService) Status(ctx context.Context, surveyID string) ([]model.Quota, error) {
	return s.quotaRepo.GetBySurveyID(ctx, surveyID)
}

// TryCount counts a completed response against one matched quota. Transient
// counter errors are retried a bounded number of times with backoff; when
// retries exhaust, the error is surfaced rather than guessed around, so the
// caller never under- or over-counts silently.
func (s *QuotaService) TryCount(ctx context.Context, quota model.Quota, responseID string) (model.QuotaOutcome, error) {
	var (
		res cache.CountResult
		err error
	)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return model.QuotaOutcome{}, ctx.Err()
			case <-time.After(time.Duration(25*(1<<attempt)) * time.Millisecond):
			}
		}
		res, err = s.counter.TryCount(ctx, quota.ID, responseID, quota.Limit)
		if err == nil {
			break
		}
		s.log.WithQuota(quota.ID).WithError(err).Warn("try count failed, retrying")
	}
	if err != nil {
		return model.QuotaOutcome{}, fmt.Errorf("quota %s: count retries exhausted: %w", quota.ID, err)
	}

	outcome := model.QuotaOutcome{
		QuotaID:  quota.ID,
		Accepted: res.Accepted,
		Action:   quota.Action,
	}
	if !res.Accepted {
		outcome.ActionMessage = quota.ActionMessage
		outcome.ActionURL = quota.ActionURL
	}

	if res.Accepted && !res.AlreadyCounted {
		// Durable bookkeeping. The limit invariant lives in the counter;
		// failures here are logged, not turned into double counts.
		if err := s.quotaRepo.IncrementCount(ctx, quota.ID); err != nil {
			s.log.WithQuota(quota.ID).WithError(err).Error("failed to persist quota count")
		}
		link := &model.QuotaResponse{QuotaID: quota.ID, ResponseID: responseID}
		if err := s.quotaRepo.CreateLink(ctx, link); err != nil {
			s.log.WithQuota(quota.ID).WithError(err).Error("failed to persist quota response link")
		}

		if s.broadcaster != nil {
			s.broadcaster.BroadcastToSurvey(quota.SurveyID, "quota_counted", map[string]interface{}{
				"quotaId": quota.ID,
				"count":   res.Count,
				"limit":   quota.Limit,
			})
			if res.Count >= quota.Limit {
				s.broadcaster.BroadcastToSurvey(quota.SurveyID, "quota_exhausted", map[string]interface{}{
					"quotaId": quota.ID,
					"limit":   quota.Limit,
					"action":  string(quota.Action),
				})
			}
		}
	}

	return outcome, nil
}

// Reset is the administrative reset: count to zero, counted-response records
// discarded, in both the counter and the durable store. The counter's own
// atomicity serializes the reset against in-flight counting.
func (s *QuotaService) Reset(ctx context.Context, quotaID string) error {
	quota, err := s.quotaRepo.GetByID(ctx, quotaID)
	if err != nil {
		return err
	}
	if quota == nil {
		return ErrQuotaNotFound
	}

	if err := s.counter.Reset(ctx, quotaID); err != nil {
		return fmt.Errorf("quota %s: reset counter: %w", quotaID, err)
	}
	if err := s.quotaRepo.ResetCount(ctx, quotaID); err != nil {
		return err
	}
	deleted, err := s.quotaRepo.DeleteLinks(ctx, quotaID)
	if err != nil {
		return err
	}

	s.log.WithQuota(quotaID).WithField("links_deleted", deleted).Info("quota reset")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSurvey(quota.SurveyID, "quota_reset", map[string]interface{}{
			"quotaId": quotaID,
		})
	}
	return nil
}
