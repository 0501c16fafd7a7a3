package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/assessment-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS knowledge_answers (
	id          TEXT PRIMARY KEY,
	question_id TEXT NOT NULL,
	category    TEXT NOT NULL,
	text        TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (question_id, category)
);

CREATE INDEX IF NOT EXISTS idx_knowledge_answers_question ON knowledge_answers(question_id);
`

func (s *SQLiteStore) GetAnswer(ctx context.Context, questionID, category string) (*model.KnowledgeAnswer, error) {
	var a model.KnowledgeAnswer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, category, text, updated_at FROM knowledge_answers WHERE question_id = ? AND category = ? LIMIT 1`,
		questionID, category,
	).Scan(&a.ID, &a.QuestionID, &a.Category, &a.Text, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get answer %s/%s", questionID, category)
	}
	return &a, nil
}

func (s *SQLiteStore) PutAnswers(ctx context.Context, answers []model.KnowledgeAnswer) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, a := range answers {
		id := a.ID
		if id == "" {
			id = AnswerID(a.QuestionID, a.Category)
		}
		updated := a.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO knowledge_answers (id, question_id, category, text, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (question_id, category) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
			id, a.QuestionID, a.Category, a.Text, updated,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: put answer %s/%s", a.QuestionID, a.Category)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return len(answers), nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
