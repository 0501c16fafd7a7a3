// Package store provides the knowledge base of template answers, keyed by
// question id and advice category.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Knowledge backend driver names.
const (
	DriverCosmos   = "cosmos"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Store is a knowledge base backend.
type Store interface {
	// GetAnswer returns the template answer for the pair, or nil when none exists.
	GetAnswer(ctx context.Context, questionID, category string) (*model.KnowledgeAnswer, error)
	// PutAnswers inserts or replaces answers keyed by (question id, category).
	PutAnswers(ctx context.Context, answers []model.KnowledgeAnswer) (int, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// AnswerID derives a stable id for a (question id, category) pair. Importing
// the same pair twice yields the same id.
func AnswerID(questionID, category string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(questionID+"/"+category)).String()
}
