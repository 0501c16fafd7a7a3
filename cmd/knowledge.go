package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/store"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge base of template answers",
}

var knowledgeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the knowledge tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withKnowledgeStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			zap.L().Info("knowledge store migrated", zap.String("driver", cfg.Knowledge.Driver))
			return nil
		})
	},
}

var knowledgeImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import template answers from a CSV, XLSX or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := store.ReadAnswersFile(args[0])
		if err != nil {
			return err
		}
		if len(answers) == 0 {
			fmt.Fprintln(os.Stderr, "No answers found.")
			return nil
		}

		return withKnowledgeStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			n, err := st.PutAnswers(ctx, answers)
			if err != nil {
				return eris.Wrapf(err, "knowledge import: wrote %d of %d", n, len(answers))
			}
			zap.L().Info("knowledge answers imported",
				zap.String("file", args[0]),
				zap.Int("answers", n),
			)
			return nil
		})
	},
}

var knowledgeGetCmd = &cobra.Command{
	Use:   "get <question-id> <category>",
	Short: "Print the template answer for one question and category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledgeStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			a, err := st.GetAnswer(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if a == nil {
				fmt.Fprintf(os.Stderr, "No answer for %s/%s.\n", args[0], args[1])
				return nil
			}
			fmt.Println(a.Text)
			return nil
		})
	},
}

// withKnowledgeStore opens and migrates the configured store for fn.
func withKnowledgeStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	if err := cfg.Validate("knowledge"); err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}
	return fn(ctx, st)
}

func init() {
	knowledgeCmd.AddCommand(knowledgeMigrateCmd)
	knowledgeCmd.AddCommand(knowledgeImportCmd)
	knowledgeCmd.AddCommand(knowledgeGetCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
