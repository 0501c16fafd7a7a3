package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
)

type failingStore struct{ MemoryStore }

func (*failingStore) GetAnswer(context.Context, string, string) (*model.KnowledgeAnswer, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type slowStore struct{ MemoryStore }

func (*slowStore) GetAnswer(ctx context.Context, _, _ string) (*model.KnowledgeAnswer, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLookup_HitAndMiss(t *testing.T) {
	m := monitoring.NewMetrics()
	l := NewLookup(NewMemory(model.KnowledgeAnswer{QuestionID: "question_00", Category: "Do_More", Text: "More."}), m)

	text, ok := l.Lookup(context.Background(), "question_00", "Do_More")
	assert.True(t, ok)
	assert.Equal(t, "More.", text)

	text, ok = l.Lookup(context.Background(), "question_00", "Start_Doing")
	assert.False(t, ok)
	assert.Empty(t, text)

	n, err := testutil.GatherAndCount(m.Registry(), "advisor_knowledge_lookups_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLookup_BackendErrorDegrades(t *testing.T) {
	l := NewLookup(&failingStore{}, nil)

	text, ok := l.Lookup(context.Background(), "question_00", "Do_More")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestLookup_Timeout(t *testing.T) {
	l := NewLookup(&slowStore{}, nil).WithTimeout(10 * time.Millisecond)

	start := time.Now()
	_, ok := l.Lookup(context.Background(), "question_00", "Do_More")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLookup_NilStore(t *testing.T) {
	var l *Lookup
	_, ok := l.Lookup(context.Background(), "q", "c")
	assert.False(t, ok)
}
