package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyflow/internal/model"
)

// SessionCache handles Redis operations for in-progress response sessions:
// the accumulated answer set, submission order, the visibility overlay, and
// the session's quota state machine.
type SessionCache interface {
	// Session meta
	SetSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// TransitionStatus atomically moves the session from one status to
	// another. Returns false if the session was not in the expected status.
	TransitionStatus(ctx context.Context, id string, from, to model.SessionStatus) (bool, error)

	// Answer set
	SetAnswer(ctx context.Context, sessionID, questionID string, value *model.AnswerValue) error
	GetAnswers(ctx context.Context, sessionID string) (model.AnswerSet, error)
	GetAnswerOrder(ctx context.Context, sessionID string) ([]string, error)

	// Visibility overlay
	HideQuestions(ctx context.Context, sessionID string, questionIDs []string) error
	ShowQuestions(ctx context.Context, sessionID string, questionIDs []string) error
	GetHidden(ctx context.Context, sessionID string) (map[string]bool, error)

	// Terminal completion result, kept for idempotent replay of OnComplete
	SetResult(ctx context.Context, sessionID string, result *model.CompletionResult) error
	GetResult(ctx context.Context, sessionID string) (*model.CompletionResult, error)

	Delete(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// Key helpers
func (c *sessionCache) metaKey(id string) string {
	return fmt.Sprintf("sess:%s", id)
}

func (c *sessionCache) answersKey(id string) string {
	return fmt.Sprintf("sess:%s:answers", id)
}

func (c *sessionCache) orderKey(id string) string {
	return fmt.Sprintf("sess:%s:order", id)
}

func (c *sessionCache) hiddenKey(id string) string {
	return fmt.Sprintf("sess:%s:hidden", id)
}

func (c *sessionCache) resultKey(id string) string {
	return fmt.Sprintf("sess:%s:result", id)
}

func (c *sessionCache) SetSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.metaKey(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.metaKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// transitionScript swaps the session's status only when it still holds the
// expected value, so concurrent OnComplete calls cannot both enter the
// evaluating state.
var transitionScript = redis.NewScript(`
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local sess = cjson.decode(data)
if sess["status"] ~= ARGV[1] then
  return 0
end
sess["status"] = ARGV[2]
redis.call("SET", KEYS[1], cjson.encode(sess), "KEEPTTL")
return 1
`)

func (c *sessionCache) TransitionStatus(ctx context.Context, id string, from, to model.SessionStatus) (bool, error) {
	res, err := transitionScript.Run(ctx, c.client, []string{c.metaKey(id)}, string(from), string(to)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (c *sessionCache) SetAnswer(ctx context.Context, sessionID, questionID string, value *model.AnswerValue) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, c.answersKey(sessionID), questionID, data)
	pipe.Expire(ctx, c.answersKey(sessionID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	// Track submission order; resubmission overwrites the value but keeps
	// the question's original slot.
	added, err := c.client.SAdd(ctx, c.orderKey(sessionID)+":seen", questionID).Result()
	if err != nil {
		return err
	}
	if added == 1 {
		if err := c.client.RPush(ctx, c.orderKey(sessionID), questionID).Err(); err != nil {
			return err
		}
	}
	return c.client.Expire(ctx, c.orderKey(sessionID), c.ttl).Err()
}

func (c *sessionCache) GetAnswers(ctx context.Context, sessionID string) (model.AnswerSet, error) {
	data, err := c.client.HGetAll(ctx, c.answersKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	answers := make(model.AnswerSet, len(data))
	for questionID, jsonStr := range data {
		var v model.AnswerValue
		if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
			continue
		}
		answers[questionID] = v
	}
	return answers, nil
}

func (c *sessionCache) GetAnswerOrder(ctx context.Context, sessionID string) ([]string, error) {
	return c.client.LRange(ctx, c.orderKey(sessionID), 0, -1).Result()
}

func (c *sessionCache) HideQuestions(ctx context.Context, sessionID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	args := make([]interface{}, len(questionIDs))
	for i, id := range questionIDs {
		args[i] = id
	}
	if err := c.client.SAdd(ctx, c.hiddenKey(sessionID), args...).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, c.hiddenKey(sessionID), c.ttl).Err()
}

func (c *sessionCache) ShowQuestions(ctx context.Context, sessionID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	args := make([]interface{}, len(questionIDs))
	for i, id := range questionIDs {
		args[i] = id
	}
	return c.client.SRem(ctx, c.hiddenKey(sessionID), args...).Err()
}

func (c *sessionCache) GetHidden(ctx context.Context, sessionID string) (map[string]bool, error) {
	members, err := c.client.SMembers(ctx, c.hiddenKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(members))
	for _, id := range members {
		hidden[id] = true
	}
	return hidden, nil
}

func (c *sessionCache) SetResult(ctx context.Context, sessionID string, result *model.CompletionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.resultKey(sessionID), data, c.ttl).Err()
}

func (c *sessionCache) GetResult(ctx context.Context, sessionID string) (*model.CompletionResult, error) {
	data, err := c.client.Get(ctx, c.resultKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result model.CompletionResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx,
		c.metaKey(sessionID),
		c.answersKey(sessionID),
		c.orderKey(sessionID),
		c.orderKey(sessionID)+":seen",
		c.hiddenKey(sessionID),
		c.resultKey(sessionID),
	).Err()
}
