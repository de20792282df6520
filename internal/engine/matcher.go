package engine

import "surveyflow/internal/model"

// Match returns every active quota whose conditions the answer set satisfies.
// All quotas are checked, not just the first: one response may count against
// a demographic quota and an interlocked cell quota at the same time.
// Interlocked cells arrive here pre-expanded as ordinary quotas.
func Match(answers model.AnswerSet, hidden map[string]bool, quotas []model.Quota) []model.Quota {
	var matched []model.Quota
	for _, q := range quotas {
		if !q.IsActive {
			continue
		}
		if EvaluateAll(q.Conditions, answers, hidden) {
			matched = append(matched, q)
		}
	}
	return matched
}
