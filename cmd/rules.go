package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/scorer"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [path]",
	Short: "Print the parsed weighting rule table",
	Long:  "Loads the rule table (rules.path by default) and lists every clause with its parsed field and options. Clauses that carry no rule are marked ignored.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Rules.Path
		if len(args) == 1 {
			path = args[0]
		}

		table, err := registry.LoadRules(path, ruleTableOptions())
		if err != nil {
			return err
		}
		if len(table) == 0 {
			fmt.Fprintln(os.Stderr, "No rules found.")
			return nil
		}

		formatRules(os.Stdout, table)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

// formatRules writes one line per non-empty clause, ordered by question id.
func formatRules(out io.Writer, table model.RuleTable) {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "QUESTION\tCOL\tFIELD\tOPTIONS\tSTATUS")
	_, _ = fmt.Fprintln(w, "--------\t---\t-----\t-------\t------")
	for _, id := range ids {
		clauses := table[id]
		shown := 0
		for i, raw := range clauses {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			shown++
			c, ok := scorer.ParseClause(raw)
			if !ok {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t\tignored\n", id, i+1, strings.TrimSpace(raw))
				continue
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\tok\n", id, i+1, c.Field, strings.Join(c.Options, " | "))
		}
		if shown == 0 {
			_, _ = fmt.Fprintf(w, "%s\t-\t\t\tno clauses\n", id)
		}
	}
	_ = w.Flush()
}
