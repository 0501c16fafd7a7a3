package store

import (
	"context"
	"sync"

	"github.com/sells-group/assessment-cli/internal/model"
)

// MemoryStore is an in-process Store, seeded from a fixture file for local
// runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	answers map[answerKey]model.KnowledgeAnswer
}

type answerKey struct {
	questionID string
	category   string
}

// NewMemory returns a MemoryStore holding answers.
func NewMemory(answers ...model.KnowledgeAnswer) *MemoryStore {
	s := &MemoryStore{answers: make(map[answerKey]model.KnowledgeAnswer)}
	_, _ = s.PutAnswers(context.Background(), answers)
	return s
}

// LoadMemory reads a fixture file (YAML, CSV or XLSX) into a MemoryStore.
func LoadMemory(path string) (*MemoryStore, error) {
	answers, err := ReadAnswersFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(answers...), nil
}

func (s *MemoryStore) GetAnswer(_ context.Context, questionID, category string) (*model.KnowledgeAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[answerKey{questionID, category}]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemoryStore) PutAnswers(_ context.Context, answers []model.KnowledgeAnswer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range answers {
		s.answers[answerKey{a.QuestionID, a.Category}] = a
	}
	return len(answers), nil
}

// Len returns the number of stored answers.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }
