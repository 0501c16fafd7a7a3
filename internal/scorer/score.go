package scorer

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Policy selects how satisfied clauses affect the weighted score.
type Policy string

const (
	// PolicyCount multiplies the base score by 1 + 0.25 per satisfied clause.
	PolicyCount Policy = "count"
	// PolicyStrict multiplies by 1.25 only when every clause is satisfied.
	PolicyStrict Policy = "strict"
)

// WeightStep is the multiplier increment per satisfied clause.
const WeightStep = 0.25

// Category thresholds. Scores equal to a threshold fall into Do_More.
const (
	StartDoingBelow = -1.0
	KeepDoingAbove  = 1.0
)

// ParsePolicy maps a config value to a Policy. Empty means PolicyCount.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyCount:
		return PolicyCount, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", eris.Errorf("scorer: unknown policy %q", s)
	}
}

// Result is the outcome of scoring one question.
type Result struct {
	WeightedScore float64
	Category      model.AdviceCategory
	Clauses       int // well-formed clauses considered
	Satisfied     int
}

// Score computes the weighted score and advice category for q given its raw
// rule clauses and the submission's service offering answers.
func Score(q model.Question, clauses []string, offering model.ServiceOffering, policy Policy) Result {
	parsed := ParseClauses(clauses)

	k := 0
	for _, c := range parsed {
		if Satisfied(c, offering) {
			k++
		}
	}

	weighted := q.BaseScore
	switch policy {
	case PolicyStrict:
		if len(parsed) > 0 && k == len(parsed) {
			weighted = q.BaseScore * (1 + WeightStep)
		}
	default:
		if k > 0 {
			weighted = q.BaseScore * (1 + WeightStep*float64(k))
		}
	}

	return Result{
		WeightedScore: weighted,
		Category:      Categorize(weighted),
		Clauses:       len(parsed),
		Satisfied:     k,
	}
}

// Satisfied reports whether any offering answer for the clause's field
// selected one of its options.
func Satisfied(c Clause, offering model.ServiceOffering) bool {
	for _, a := range offering.Answers {
		if strings.TrimSpace(a.QuestionName) != c.Field {
			continue
		}
		if c.Accepts(a.SelectedOption) {
			return true
		}
	}
	return false
}

// Categorize maps a weighted score to its advice category.
func Categorize(weighted float64) model.AdviceCategory {
	switch {
	case weighted < StartDoingBelow:
		return model.StartDoing
	case weighted > KeepDoingAbove:
		return model.KeepDoing
	default:
		return model.DoMore
	}
}
