// Package pipeline turns a parsed assessment submission into grouped,
// generated business advice.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/assessment-cli/internal/generate"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/prompt"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/scorer"
)

// Lookup retrieves template answer text. It reports not found rather than
// failing; see store.Lookup.
type Lookup interface {
	Lookup(ctx context.Context, questionID, category string) (string, bool)
}

// Options tunes a Pipeline.
type Options struct {
	Policy         scorer.Policy
	MaxConcurrency int
	// ItemTimeout bounds lookup plus generation for one question. Zero disables it.
	ItemTimeout time.Duration
}

// Pipeline scores a submission and generates advice for every question.
// It holds only read-only dependencies and is safe for concurrent runs.
type Pipeline struct {
	rules     *registry.RuleCache
	lookup    Lookup
	assembler *prompt.Assembler
	generator generate.Generator
	opts      Options
	metrics   *monitoring.Metrics
}

// New creates a Pipeline. metrics may be nil.
func New(
	rules *registry.RuleCache,
	lookup Lookup,
	assembler *prompt.Assembler,
	generator generate.Generator,
	opts Options,
	metrics *monitoring.Metrics,
) *Pipeline {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}
	if opts.Policy == "" {
		opts.Policy = scorer.PolicyCount
	}
	return &Pipeline{
		rules:     rules,
		lookup:    lookup,
		assembler: assembler,
		generator: generator,
		opts:      opts,
		metrics:   metrics,
	}
}

// Score enumerates and scores every question without generating advice.
func (p *Pipeline) Score(_ context.Context, sub *model.Submission) ([]model.Question, error) {
	table, err := p.rules.Get()
	if err != nil {
		p.metrics.ObserveRuleLoadFailure()
		// Returned unwrapped so callers can match *registry.RuleLoadError.
		return nil, err
	}

	questions := Enumerate(sub)
	for i := range questions {
		q := &questions[i]
		res := scorer.Score(*q, table.Clauses(q.QuestionID), sub.Offering, p.opts.Policy)
		q.WeightedScore = res.WeightedScore
		q.AdviceCategory = res.Category

		zap.L().Debug("pipeline: scored question",
			zap.String("question_id", q.QuestionID),
			zap.Float64("base_score", q.BaseScore),
			zap.Int("clauses", res.Clauses),
			zap.Int("satisfied", res.Satisfied),
			zap.Float64("weighted_score", res.WeightedScore),
			zap.String("category", string(res.Category)),
		)
	}
	return questions, nil
}

// Run scores the submission, generates advice for each question with bounded
// concurrency, and groups the results. Only a rule load failure fails the
// run; lookup and generation problems are confined to their own item.
func (p *Pipeline) Run(ctx context.Context, sub *model.Submission) (*model.AdviceResult, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("questions", sub.QuestionCount()))
	log.Info("pipeline: starting run")

	questions, err := p.Score(ctx, sub)
	if err != nil {
		p.metrics.ObserveRun("rule_load_error", 0, 0, time.Since(start))
		return nil, err
	}

	items := make([]model.AdviceItem, len(questions))
	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrency)
	for i := range questions {
		g.Go(func() error {
			items[i] = p.advise(ctx, sub.Offering.Profile, questions[i])
			return nil
		})
	}
	_ = g.Wait()

	report := Aggregate(items)
	result := &model.AdviceResult{
		Questions:   questions,
		Items:       items,
		Report:      report,
		GeneratedAt: time.Now().UTC(),
	}

	outcome := "ok"
	if result.Failures() > 0 {
		outcome = "partial"
	}
	elapsed := time.Since(start)
	p.metrics.ObserveRun(outcome, len(questions), report.Dropped, elapsed)
	log.Info("pipeline: run complete",
		zap.String("outcome", outcome),
		zap.Int("failures", result.Failures()),
		zap.Int("dropped", report.Dropped),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (p *Pipeline) advise(ctx context.Context, profile model.BusinessProfile, q model.Question) model.AdviceItem {
	if p.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ItemTimeout)
		defer cancel()
	}

	item := model.AdviceItem{
		Phase:          q.PhaseTag,
		CategoryLabel:  q.CategoryLabel,
		QuestionID:     q.QuestionID,
		Question:       q.Text,
		WeightedScore:  q.WeightedScore,
		AdviceCategory: q.AdviceCategory,
	}

	templateText, found := p.lookup.Lookup(ctx, q.QuestionID, string(q.AdviceCategory))
	if !found {
		templateText = p.assembler.NotFound()
	}
	system, user := p.assembler.Build(profile, q, q.AdviceCategory, templateText)

	text, err := p.generator.Generate(ctx, system, user)
	if err != nil {
		zap.L().Warn("pipeline: generation failed",
			zap.String("question_id", q.QuestionID),
			zap.Error(err),
		)
		item.Result = model.GenerationFailed(err)
		return item
	}
	item.Result = model.Generated(text)
	return item
}
