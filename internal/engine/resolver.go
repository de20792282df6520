package engine

import (
	"fmt"

	"surveyflow/internal/model"
)

// Resolve applies the current question's logic rules against the answer set
// and returns the navigation decision. Rules run in stored (authoring) order
// and the first match wins. A rule whose target is unknown or not strictly
// after its source question is a configuration error: it is reported in
// Decision.Warnings, disabled for this evaluation, and never crashes the flow.
func Resolve(current *model.Question, answers model.AnswerSet, hidden map[string]bool, order []string) model.Decision {
	decision := model.Decision{Kind: model.DecisionContinue}

	pos := indexOf(order, current.ID)

	for _, rule := range current.Rules {
		if rule.Type == model.RuleTypePiping {
			continue
		}
		if !EvaluateAll(rule.Conditions, answers, hidden) {
			continue
		}

		switch rule.Action.Type {
		case model.ActionEndSurvey:
			decision.Kind = model.DecisionEndSurvey
			return decision

		case model.ActionSkipTo:
			if err := validateTarget(order, pos, rule.Action.TargetID); err != nil {
				decision.Warnings = append(decision.Warnings, ruleWarning(rule, err))
				continue
			}
			decision.Kind = model.DecisionSkipTo
			decision.NextQuestionID = rule.Action.TargetID
			return decision

		case model.ActionShowQuestion:
			if err := validateTarget(order, pos, rule.Action.TargetID); err != nil {
				decision.Warnings = append(decision.Warnings, ruleWarning(rule, err))
				continue
			}
			decision.Show = append(decision.Show, rule.Action.TargetID)
			decision.NextQuestionID = NextVisible(order, pos, hiddenAfter(hidden, decision))
			return decision

		case model.ActionHideQuestion:
			if err := validateTarget(order, pos, rule.Action.TargetID); err != nil {
				decision.Warnings = append(decision.Warnings, ruleWarning(rule, err))
				continue
			}
			decision.Hide = append(decision.Hide, rule.Action.TargetID)
			decision.NextQuestionID = NextVisible(order, pos, hiddenAfter(hidden, decision))
			return decision

		default:
			decision.Warnings = append(decision.Warnings,
				ruleWarning(rule, fmt.Errorf("unknown action %q", rule.Action.Type)))
		}
	}

	// No rule matched: natural order
	decision.NextQuestionID = NextVisible(order, pos, hidden)
	return decision
}

// NextVisible returns the first question after position from that is not
// hidden, or "" when the survey is exhausted.
func NextVisible(order []string, from int, hidden map[string]bool) string {
	for i := from + 1; i < len(order); i++ {
		if !hidden[order[i]] {
			return order[i]
		}
	}
	return ""
}

// validateTarget enforces the forward-only invariant: targets must exist and
// sit strictly after the source question in survey order.
func validateTarget(order []string, sourcePos int, targetID string) error {
	targetPos := indexOf(order, targetID)
	if targetPos < 0 {
		return fmt.Errorf("target question %q not found", targetID)
	}
	if targetPos <= sourcePos {
		return fmt.Errorf("target question %q is not after the source", targetID)
	}
	return nil
}

func ruleWarning(rule model.LogicRule, err error) string {
	return fmt.Sprintf("logic rule %s disabled: %v", rule.ID, err)
}

// hiddenAfter merges the decision's pending show/hide changes into the
// current overlay so NextVisible sees the post-rule visibility.
func hiddenAfter(hidden map[string]bool, d model.Decision) map[string]bool {
	if len(d.Show) == 0 && len(d.Hide) == 0 {
		return hidden
	}
	merged := make(map[string]bool, len(hidden)+len(d.Hide))
	for id := range hidden {
		merged[id] = true
	}
	for _, id := range d.Hide {
		merged[id] = true
	}
	for _, id := range d.Show {
		delete(merged, id)
	}
	return merged
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}
