package pipeline

import (
	"fmt"

	"github.com/sells-group/assessment-cli/internal/model"
)

// QuestionID formats the identifier of the i-th enumerated question.
func QuestionID(i int) string {
	return fmt.Sprintf("question_%02d", i)
}

// Enumerate flattens the submission's sections in encounter order and
// numbers the questions from zero. The service offering section is never
// part of the result. The submission is not modified.
func Enumerate(sub *model.Submission) []model.Question {
	out := make([]model.Question, 0, sub.QuestionCount())
	for _, sec := range sub.Sections {
		for _, q := range sec.Questions {
			q.QuestionID = QuestionID(len(out))
			out = append(out, q)
		}
	}
	return out
}
