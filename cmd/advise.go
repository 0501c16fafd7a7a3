package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/pipeline"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/scorer"
)

var adviseCmd = &cobra.Command{
	Use:   "advise <submission.json>",
	Short: "Score a submission file and generate advice",
	Long:  "Reads an assessment submission (either the assessmentData object or the full request body), scores every question, and prints the phased advice report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		formatFlag, _ := cmd.Flags().GetString("format")
		scoreOnly, _ := cmd.Flags().GetBool("score-only")
		annotate, _ := cmd.Flags().GetString("annotate")

		format, err := pipeline.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		doc, err := readSubmissionFile(args[0])
		if err != nil {
			return err
		}

		var questions []model.Question
		var result *model.AdviceResult
		if scoreOnly {
			if err := cfg.Validate("score"); err != nil {
				return err
			}
			policy, err := scorer.ParsePolicy(cfg.Scoring.Policy)
			if err != nil {
				return err
			}
			p := pipeline.New(registry.NewRuleCache(cfg.Rules.Path, ruleTableOptions()), nil, nil, nil, pipeline.Options{Policy: policy}, nil)
			questions, err = p.Score(ctx, doc.submission)
			if err != nil {
				return err
			}
		} else {
			env, err := initPipeline(ctx, "advise")
			if err != nil {
				return err
			}
			defer env.Close()

			result, err = env.Pipeline.Run(ctx, doc.submission)
			if err != nil {
				return err
			}
			questions = result.Questions
			if n := result.Failures(); n > 0 {
				zap.L().Warn("some advice could not be generated", zap.Int("failures", n))
			}
		}

		if annotate != "" {
			out, err := annotateSubmission(doc.raw, doc.prefix, questions)
			if err != nil {
				return err
			}
			if err := writeOutput(annotate, out); err != nil {
				return err
			}
		}

		if result == nil {
			formatScores(os.Stdout, questions)
			return nil
		}
		return writeReport(os.Stdout, result.Report, format)
	},
}

func init() {
	adviseCmd.Flags().String("format", "text", "report format (text, grouped, phase)")
	adviseCmd.Flags().Bool("score-only", false, "score questions without knowledge lookup or generation")
	adviseCmd.Flags().String("annotate", "", "write the submission with question_id, new_score and new_category added to this path (- for stdout)")
	rootCmd.AddCommand(adviseCmd)
}

// submissionDoc is a parsed submission file and where assessmentData sits in it.
type submissionDoc struct {
	raw        []byte
	prefix     string
	submission *model.Submission
}

// readSubmissionFile accepts either a bare assessmentData object or a request
// body that wraps it under "assessmentData".
func readSubmissionFile(path string) (*submissionDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read submission %s", path)
	}
	if !gjson.ValidBytes(raw) {
		return nil, eris.Errorf("submission %s is not valid JSON", path)
	}

	root := gjson.ParseBytes(raw)
	doc := &submissionDoc{raw: raw}
	if wrapped := root.Get("assessmentData"); wrapped.Exists() {
		doc.prefix = "assessmentData."
		root = wrapped
	}

	doc.submission, err = model.SubmissionFromResult(root)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// annotateSubmission writes the scoring fields back into each question object
// of the source document, leaving key order and unrelated fields intact.
func annotateSubmission(raw []byte, prefix string, questions []model.Question) ([]byte, error) {
	out := raw
	var err error
	for _, q := range questions {
		base := prefix + gjson.Escape(q.Section) + "." + gjson.Escape(q.Key) + "."
		if out, err = sjson.SetBytes(out, base+"question_id", q.QuestionID); err != nil {
			return nil, eris.Wrapf(err, "annotate %s", q.QuestionID)
		}
		if out, err = sjson.SetBytes(out, base+"new_score", q.WeightedScore); err != nil {
			return nil, eris.Wrapf(err, "annotate %s", q.QuestionID)
		}
		if out, err = sjson.SetBytes(out, base+"new_category", string(q.AdviceCategory)); err != nil {
			return nil, eris.Wrapf(err, "annotate %s", q.QuestionID)
		}
	}
	return out, nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	zap.L().Info("annotated submission written", zap.String("path", path))
	return nil
}

// writeReport renders the report in the requested format.
func writeReport(out io.Writer, r *model.PhaseReport, f pipeline.Format) error {
	if f == pipeline.FormatText {
		_, err := io.WriteString(out, pipeline.RenderText(r))
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pipeline.Render(r, f))
}

// formatScores writes a table of scored questions to w.
func formatScores(out io.Writer, questions []model.Question) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPHASE\tCATEGORY\tSCORE\tWEIGHTED\tADVICE")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t-----\t--------\t------")
	for _, q := range questions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%s\n",
			q.QuestionID,
			q.PhaseTag,
			q.CategoryLabel,
			q.BaseScore,
			q.WeightedScore,
			q.AdviceCategory,
		)
	}
	_ = w.Flush()
}
