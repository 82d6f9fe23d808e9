package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/storage"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store — Postgres-реализация storage.Store.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Tasks() storage.TaskRepo   { return &taskRepo{q: s.db} }
func (s *Store) Scores() storage.ScoreRepo { return &scoreRepo{q: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// WithTx: READ COMMITTED + явные блокировки (SELECT … FOR UPDATE по задаче,
// advisory lock по участнику) и CAS по статусу в UPDATE.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return storage.Wrap("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(txRepos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storage.Wrap("commit", err)
	}
	return nil
}

type txRepos struct {
	tx *sql.Tx
}

func (t txRepos) Tasks() storage.TaskRepo   { return &taskRepo{q: t.tx, inTx: true} }
func (t txRepos) Scores() storage.ScoreRepo { return &scoreRepo{q: t.tx, inTx: true} }
