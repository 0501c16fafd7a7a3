// Package scorer weights assessment question scores against the service
// offering answers and classifies the result into an advice category.
package scorer

import (
	"strings"

	"golang.org/x/text/cases"
)

// Clause is a parsed weighting rule of the form "Field-optA or optB".
type Clause struct {
	Raw     string
	Field   string
	Options []string // normalized
}

// ParseClause parses a raw rule cell. The field name is everything before the
// first '-'; the remainder is a disjunction of options separated by the word
// "or". It returns false for clauses that carry no rule: empty cells, cells
// without a separator, and cells with an empty field or no options.
func ParseClause(raw string) (Clause, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Clause{}, false
	}
	idx := strings.Index(trimmed, "-")
	if idx < 0 {
		return Clause{}, false
	}
	field := strings.TrimSpace(trimmed[:idx])
	if field == "" {
		return Clause{}, false
	}
	options := splitOptions(trimmed[idx+1:])
	if len(options) == 0 {
		return Clause{}, false
	}
	return Clause{Raw: raw, Field: field, Options: options}, true
}

// ParseClauses parses every well-formed clause in raw, preserving order.
func ParseClauses(raw []string) []Clause {
	var out []Clause
	for _, r := range raw {
		if c, ok := ParseClause(r); ok {
			out = append(out, c)
		}
	}
	return out
}

// Accepts reports whether a selected option satisfies the clause.
func (c Clause) Accepts(selected string) bool {
	s := Normalize(selected)
	if s == "" {
		return false
	}
	for _, opt := range c.Options {
		if opt == s {
			return true
		}
	}
	return false
}

// Normalize collapses internal whitespace, trims, and case-folds s so that
// clause options and user answers compare equal regardless of spacing or case.
func Normalize(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return ""
	}
	return cases.Fold().String(collapsed)
}

// splitOptions splits "a or b  OR c" into normalized options. "or" only
// separates when it stands alone as a word.
func splitOptions(s string) []string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, Normalize(strings.Join(current, " ")))
			current = current[:0]
		}
	}
	for _, tok := range strings.Fields(s) {
		if strings.EqualFold(tok, "or") {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()
	return out
}
