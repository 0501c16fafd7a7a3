package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/fetcher"
	"github.com/sells-group/assessment-cli/internal/model"
)

// answersFile is the YAML fixture layout.
type answersFile struct {
	Answers []model.KnowledgeAnswer `yaml:"answers"`
}

// ReadAnswersFile reads template answers from a YAML fixture or a CSV/XLSX
// table with a header row naming question_id, category and text columns.
// Answers without an id get a new UUID.
func ReadAnswersFile(path string) ([]model.KnowledgeAnswer, error) {
	var (
		answers []model.KnowledgeAnswer
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		answers, err = readAnswersYAML(path)
	default:
		answers, err = readAnswersTable(path)
	}
	if err != nil {
		return nil, err
	}

	for i := range answers {
		if answers[i].ID == "" {
			answers[i].ID = AnswerID(answers[i].QuestionID, answers[i].Category)
		}
	}
	return answers, nil
}

func readAnswersYAML(path string) ([]model.KnowledgeAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "store: read answers fixture")
	}
	var f answersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "store: parse answers fixture")
	}
	for i, a := range f.Answers {
		if a.QuestionID == "" || a.Category == "" {
			return nil, eris.Errorf("store: answer %d missing question_id or category", i)
		}
	}
	return f.Answers, nil
}

func readAnswersTable(path string) ([]model.KnowledgeAnswer, error) {
	rows, err := fetcher.ReadTable(path, fetcher.TableOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "store: read answers table")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"question_id", "category", "text"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("store: answers table missing %q column", required)
		}
	}
	idCol, hasID := cols["id"]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []model.KnowledgeAnswer
	for _, row := range rows[1:] {
		a := model.KnowledgeAnswer{
			QuestionID: cell(row, cols["question_id"]),
			Category:   cell(row, cols["category"]),
			Text:       cell(row, cols["text"]),
		}
		if a.QuestionID == "" || a.Category == "" {
			continue
		}
		if hasID {
			a.ID = cell(row, idCol)
		}
		out = append(out, a)
	}
	return out, nil
}
