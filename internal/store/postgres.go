package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/db"
	"github.com/sells-group/assessment-cli/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

const getAnswerSQL = `SELECT id, question_id, category, text, updated_at FROM knowledge_answers WHERE question_id = $1 AND category = $2 LIMIT 1`

const upsertAnswerSQL = `INSERT INTO knowledge_answers (id, question_id, category, text, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (question_id, category) DO UPDATE SET text = EXCLUDED.text, updated_at = EXCLUDED.updated_at`

const postgresMigration = `
CREATE TABLE IF NOT EXISTS knowledge_answers (
	id          TEXT PRIMARY KEY,
	question_id TEXT NOT NULL,
	category    TEXT NOT NULL,
	text        TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (question_id, category)
);

CREATE INDEX IF NOT EXISTS idx_knowledge_answers_question ON knowledge_answers(question_id);
`

// NewPostgres connects to Postgres and returns a store. The schema may not
// exist yet; call Migrate before the first query.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetAnswer(ctx context.Context, questionID, category string) (*model.KnowledgeAnswer, error) {
	var a model.KnowledgeAnswer
	err := s.pool.QueryRow(ctx, getAnswerSQL, questionID, category).Scan(&a.ID, &a.QuestionID, &a.Category, &a.Text, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get answer %s/%s", questionID, category)
	}
	return &a, nil
}

func (s *PostgresStore) PutAnswers(ctx context.Context, answers []model.KnowledgeAnswer) (int, error) {
	now := time.Now().UTC()
	n := 0
	for _, a := range answers {
		id := a.ID
		if id == "" {
			id = AnswerID(a.QuestionID, a.Category)
		}
		updated := a.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		if _, err := s.pool.Exec(ctx, upsertAnswerSQL, id, a.QuestionID, a.Category, a.Text, updated); err != nil {
			return n, eris.Wrapf(err, "postgres: put answer %s/%s", a.QuestionID, a.Category)
		}
		n++
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
