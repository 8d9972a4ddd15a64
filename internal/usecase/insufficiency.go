package usecase

import (
	"regexp"

	"bloxmate/internal/domain"
)

// insufficientPatterns match hedging phrasing in answers. Order is the
// evaluation order; the first match decides.
var insufficientPatterns = compilePatterns(
	`does not contain .* information`,
	`may need to refer to additional resources`,
	`no(t| detailed| specific) information .* (available|found|provided)`,
	`cannot provide .* (details|information)`,
	`I don't have .* specific information`,
	`The context .* doesn't mention`,
	`not mentioned in the context`,
	`no mention of .* in the provided context`,
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// InsufficiencyEvaluator flags answers that read as "no information".
type InsufficiencyEvaluator struct {
	patterns []*regexp.Regexp
}

func NewInsufficiencyEvaluator() *InsufficiencyEvaluator {
	return &InsufficiencyEvaluator{patterns: insufficientPatterns}
}

func (e *InsufficiencyEvaluator) IsInsufficient(text string) bool {
	for _, p := range e.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Evaluate returns the candidate with its sufficiency set.
func (e *InsufficiencyEvaluator) Evaluate(c domain.AnswerCandidate) domain.AnswerCandidate {
	c.Sufficiency = domain.Sufficient
	if e.IsInsufficient(c.Text) {
		c.Sufficiency = domain.Insufficient
	}
	return c
}
