package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

const scoreColumns = `id, year, month, github_login, github_id, student_name,
	new_score, carryover_score, created_at, updated_at`

// пространство ключей advisory-блокировок леджера
const ledgerLockSpace int32 = 7301

type scoreRepo struct {
	q    querier
	inTx bool
}

func scanScore(row rowScanner) (*models.ScoreRecord, error) {
	var r models.ScoreRecord
	err := row.Scan(&r.ID, &r.Year, &r.Month, &r.GithubLogin, &r.GithubID, &r.StudentName,
		&r.NewScore, &r.CarryoverScore, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LockContributor берёт транзакционную advisory-блокировку по логину:
// чтение-изменение-запись баллов одного участника выполняется строго по очереди.
func (r *scoreRepo) LockContributor(ctx context.Context, login string) error {
	if !r.inTx {
		return nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	_, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, ledgerLockSpace, login)
	return storage.Wrap("lock contributor", err)
}

func (r *scoreRepo) FindScore(ctx context.Context, p models.Period, login string) (*models.ScoreRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rec, err := scanScore(r.q.QueryRowContext(ctx, `
		SELECT `+scoreColumns+`
		FROM scores
		WHERE year = $1 AND month = $2 AND github_login = $3`,
		p.Year, p.Month, login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("find score", err)
	}
	return rec, nil
}

func (r *scoreRepo) FindLatestScore(ctx context.Context, login string, before models.Period) (*models.ScoreRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rec, err := scanScore(r.q.QueryRowContext(ctx, `
		SELECT `+scoreColumns+`
		FROM scores
		WHERE github_login = $1
		  AND (year < $2 OR (year = $2 AND month < $3))
		ORDER BY year DESC, month DESC
		LIMIT 1`,
		login, before.Year, before.Month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("find latest score", err)
	}
	return rec, nil
}

func (r *scoreRepo) InsertScore(ctx context.Context, rec *models.ScoreRecord) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO scores (year, month, github_login, github_id, student_name, new_score, carryover_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		rec.Year, rec.Month, rec.GithubLogin, rec.GithubID, rec.StudentName, rec.NewScore, rec.CarryoverScore,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return storage.Wrap("insert score", storage.ErrDuplicate)
	}
	return storage.Wrap("insert score", err)
}

func (r *scoreRepo) UpdateScore(ctx context.Context, rec *models.ScoreRecord) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err := r.q.QueryRowContext(ctx, `
		UPDATE scores
		SET new_score = $1, carryover_score = $2, github_id = $3, student_name = $4, updated_at = now()
		WHERE year = $5 AND month = $6 AND github_login = $7
		RETURNING id, created_at, updated_at`,
		rec.NewScore, rec.CarryoverScore, rec.GithubID, rec.StudentName,
		rec.Year, rec.Month, rec.GithubLogin,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return storage.Wrap("update score", err)
}

func (r *scoreRepo) ListScoresByLogin(ctx context.Context, login string) ([]models.ScoreRecord, error) {
	return r.list(ctx, "list scores by login", `
		SELECT `+scoreColumns+`
		FROM scores
		WHERE github_login = $1
		ORDER BY year DESC, month DESC`, login)
}

func (r *scoreRepo) ListScoresByPeriod(ctx context.Context, p models.Period) ([]models.ScoreRecord, error) {
	return r.list(ctx, "list scores by period", `
		SELECT `+scoreColumns+`
		FROM scores
		WHERE year = $1 AND month = $2
		ORDER BY new_score + carryover_score DESC, github_login`, p.Year, p.Month)
}

func (r *scoreRepo) list(ctx context.Context, op, q string, args ...any) ([]models.ScoreRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storage.Wrap(op, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, storage.Wrap(op, err)
		}
		out = append(out, *rec)
	}
	return out, storage.Wrap(op, rows.Err())
}
