package service

import (
	"context"
	"sync"

	"surveyflow/internal/model"
)

// In-memory doubles for the Mongo repositories and the Redis session cache.
// All of them are safe for concurrent use so completion races can be tested
// for real.

type fakeSurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*model.Survey
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: make(map[string]*model.Survey)}
}

func (r *fakeSurveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surveys[survey.ID] = survey
	return nil
}

func (r *fakeSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surveys[id], nil
}

func (r *fakeSurveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surveys[survey.ID] = survey
	return nil
}

func (r *fakeSurveyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surveys, id)
	return nil
}

type fakeQuotaRepo struct {
	mu     sync.Mutex
	quotas map[string]*model.Quota
	links  map[string]map[string]bool // quotaID -> responseID set
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{
		quotas: make(map[string]*model.Quota),
		links:  make(map[string]map[string]bool),
	}
}

func (r *fakeQuotaRepo) Create(ctx context.Context, quota *model.Quota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *quota
	r.quotas[quota.ID] = &cp
	return nil
}

func (r *fakeQuotaRepo) CreateMany(ctx context.Context, quotas []model.Quota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range quotas {
		cp := quotas[i]
		r.quotas[cp.ID] = &cp
	}
	return nil
}

func (r *fakeQuotaRepo) GetByID(ctx context.Context, id string) (*model.Quota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotas[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuotaRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]model.Quota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Quota
	for _, q := range r.quotas {
		if q.SurveyID == surveyID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQuotaRepo) Update(ctx context.Context, quota *model.Quota) error {
	return r.Create(ctx, quota)
}

func (r *fakeQuotaRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.quotas, id)
	return nil
}

func (r *fakeQuotaRepo) IncrementCount(ctx context.Context, quotaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.quotas[quotaID]; ok {
		q.Count++
	}
	return nil
}

func (r *fakeQuotaRepo) ResetCount(ctx context.Context, quotaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.quotas[quotaID]; ok {
		q.Count = 0
	}
	return nil
}

func (r *fakeQuotaRepo) CreateLink(ctx context.Context, link *model.QuotaResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.links[link.QuotaID]
	if !ok {
		set = make(map[string]bool)
		r.links[link.QuotaID] = set
	}
	set[link.ResponseID] = true
	return nil
}

func (r *fakeQuotaRepo) HasLink(ctx context.Context, quotaID, responseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.links[quotaID][responseID], nil
}

func (r *fakeQuotaRepo) DeleteLinks(ctx context.Context, quotaID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.links[quotaID]))
	delete(r.links, quotaID)
	return n, nil
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[string]*model.Response
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[string]*model.Response)}
}

func (r *fakeResponseRepo) Create(ctx context.Context, response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[response.ID] = response
	return nil
}

func (r *fakeResponseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responses[id], nil
}

func (r *fakeResponseRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.SessionID == sessionID {
			return resp, nil
		}
	}
	return nil, nil
}

func (r *fakeResponseRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Response
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			out = append(out, resp)
		}
	}
	return out, nil
}

type fakeSessionState struct {
	session *model.Session
	answers model.AnswerSet
	order   []string
	hidden  map[string]bool
	result  *model.CompletionResult
}

// fakeSessionCache mirrors the Redis cache semantics, including the atomic
// status transition the completion path depends on.
type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*fakeSessionState
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{sessions: make(map[string]*fakeSessionState)}
}

func (c *fakeSessionCache) state(id string) *fakeSessionState {
	st, ok := c.sessions[id]
	if !ok {
		st = &fakeSessionState{
			answers: make(model.AnswerSet),
			hidden:  make(map[string]bool),
		}
		c.sessions[id] = st
	}
	return st
}

func (c *fakeSessionCache) SetSession(ctx context.Context, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *session
	c.state(session.ID).session = &cp
	return nil
}

func (c *fakeSessionCache) GetSession(ctx context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[id]
	if !ok || st.session == nil {
		return nil, nil
	}
	cp := *st.session
	return &cp, nil
}

func (c *fakeSessionCache) TransitionStatus(ctx context.Context, id string, from, to model.SessionStatus) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[id]
	if !ok || st.session == nil {
		return false, nil
	}
	if st.session.Status != from {
		return false, nil
	}
	st.session.Status = to
	return true, nil
}

func (c *fakeSessionCache) SetAnswer(ctx context.Context, sessionID, questionID string, value *model.AnswerValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	if _, seen := st.answers[questionID]; !seen {
		st.order = append(st.order, questionID)
	}
	st.answers[questionID] = *value
	return nil
}

func (c *fakeSessionCache) GetAnswers(ctx context.Context, sessionID string) (model.AnswerSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	out := make(model.AnswerSet, len(st.answers))
	for k, v := range st.answers {
		out[k] = v
	}
	return out, nil
}

func (c *fakeSessionCache) GetAnswerOrder(ctx context.Context, sessionID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	return append([]string(nil), st.order...), nil
}

func (c *fakeSessionCache) HideQuestions(ctx context.Context, sessionID string, questionIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	for _, id := range questionIDs {
		st.hidden[id] = true
	}
	return nil
}

func (c *fakeSessionCache) ShowQuestions(ctx context.Context, sessionID string, questionIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	for _, id := range questionIDs {
		delete(st.hidden, id)
	}
	return nil
}

func (c *fakeSessionCache) GetHidden(ctx context.Context, sessionID string) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(sessionID)
	out := make(map[string]bool, len(st.hidden))
	for k := range st.hidden {
		out[k] = true
	}
	return out, nil
}

func (c *fakeSessionCache) SetResult(ctx context.Context, sessionID string, result *model.CompletionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(sessionID).result = result
	return nil
}

func (c *fakeSessionCache) GetResult(ctx context.Context, sessionID string) (*model.CompletionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return st.result, nil
}

func (c *fakeSessionCache) Delete(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}
