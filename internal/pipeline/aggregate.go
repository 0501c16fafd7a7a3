package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Aggregate groups items by canonical phase, then by category label in
// first-seen order. Items tagged with any other phase are left out of the
// report and counted in its Dropped field.
func Aggregate(items []model.AdviceItem) *model.PhaseReport {
	report := model.NewPhaseReport()
	for _, it := range items {
		if !report.Add(it) {
			zap.L().Warn("pipeline: advice item has no canonical phase, excluded from report",
				zap.String("question_id", it.QuestionID),
				zap.String("catmapping", it.Phase),
			)
		}
	}
	return report
}
