// Package registry loads the weighting-rule table that drives question scoring.
package registry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/fetcher"
	"github.com/sells-group/assessment-cli/internal/model"
)

// RuleLoadError reports a rule source that could not be opened or read.
type RuleLoadError struct {
	Path string
	Err  error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("registry: load rules %s: %v", e.Path, e.Err)
}

func (e *RuleLoadError) Unwrap() error { return e.Err }

// LoadRules reads a rule table from a CSV or XLSX file. The first row is a
// header and is discarded. Column 0 holds the question id and the remaining
// columns hold raw clauses, kept verbatim (empty cells included). Rows
// without an id are skipped; a repeated id replaces the earlier row. opts
// picks the worksheet or delimiter.
func LoadRules(path string, opts fetcher.TableOptions) (model.RuleTable, error) {
	rows, err := fetcher.ReadTable(path, opts)
	if err != nil {
		return nil, &RuleLoadError{Path: path, Err: err}
	}
	return ParseRules(rows), nil
}

// ParseRules builds a rule table from already-read rows, header included.
func ParseRules(rows [][]string) model.RuleTable {
	table := make(model.RuleTable)
	if len(rows) == 0 {
		return table
	}

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}
		if _, dup := table[id]; dup {
			zap.L().Debug("registry: duplicate rule row replaces earlier row",
				zap.String("question_id", id),
				zap.Int("row", i+2),
			)
		}
		clauses := make([]string, len(row)-1)
		copy(clauses, row[1:])
		table[id] = clauses
	}
	return table
}
