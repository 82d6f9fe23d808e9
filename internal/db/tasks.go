package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

const taskColumns = `id, github_repo_id, github_issue_id, score, status, mentor_login,
	student_github_login, student_name, student_github_id, created_at, updated_at`

type taskRepo struct {
	q    querier
	inTx bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t     models.Task
		login sql.NullString
		name  sql.NullString
		ghID  sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.GithubRepoID, &t.GithubIssueID, &t.Score, &t.Status, &t.MentorLogin,
		&login, &name, &ghID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if login.Valid {
		t.StudentGithubLogin = &login.String
	}
	if name.Valid {
		t.StudentName = &name.String
	}
	if ghID.Valid {
		t.StudentGithubID = &ghID.Int64
	}
	return &t, nil
}

func (r *taskRepo) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO tasks (github_repo_id, github_issue_id, score, status, mentor_login,
		                   student_github_login, student_name, student_github_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		t.GithubRepoID, t.GithubIssueID, t.Score, string(t.Status), t.MentorLogin,
		t.StudentGithubLogin, t.StudentName, t.StudentGithubID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.Wrap("create task", storage.ErrDuplicate)
		}
		return nil, storage.Wrap("create task", err)
	}
	return &t, nil
}

func (r *taskRepo) FindTaskByIssueID(ctx context.Context, issueID int64) (*models.Task, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + taskColumns + ` FROM tasks WHERE github_issue_id = $1`
	if r.inTx {
		q += ` FOR UPDATE`
	}
	t, err := scanTask(r.q.QueryRowContext(ctx, q, issueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("find task", err)
	}
	return t, nil
}

func (r *taskRepo) FindTasksByStatus(ctx context.Context, repoID int64, mentorLogin string, statuses []models.TaskStatus) ([]models.Task, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	args := []any{repoID, mentorLogin}
	ph := make([]string, len(statuses))
	for i, s := range statuses {
		args = append(args, string(s))
		ph[i] = fmt.Sprintf("$%d", len(args))
	}
	q := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE github_repo_id = $1 AND mentor_login = $2
		  AND status IN (` + strings.Join(ph, ", ") + `)
		ORDER BY id`

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storage.Wrap("find tasks by status", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storage.Wrap("find tasks by status", err)
		}
		out = append(out, *t)
	}
	return out, storage.Wrap("find tasks by status", rows.Err())
}

// UpdateTask — CAS: строка обновляется, только если её статус всё ещё expected.
func (r *taskRepo) UpdateTask(ctx context.Context, t *models.Task, expected models.TaskStatus) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err := r.q.QueryRowContext(ctx, `
		UPDATE tasks
		SET status = $1, score = $2, mentor_login = $3,
		    student_github_login = $4, student_name = $5, student_github_id = $6,
		    updated_at = now()
		WHERE github_issue_id = $7 AND status = $8
		RETURNING id, created_at, updated_at`,
		string(t.Status), t.Score, t.MentorLogin,
		t.StudentGithubLogin, t.StudentName, t.StudentGithubID,
		t.GithubIssueID, string(expected),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var one int
		err := r.q.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE github_issue_id = $1`, t.GithubIssueID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return storage.Wrap("update task", err)
		}
		return storage.ErrStatusConflict
	}
	return storage.Wrap("update task", err)
}

func (r *taskRepo) CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `SELECT status, count(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, storage.Wrap("count tasks", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[models.TaskStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storage.Wrap("count tasks", err)
		}
		out[models.TaskStatus(status)] = n
	}
	return out, storage.Wrap("count tasks", rows.Err())
}
