package memory

import (
	"context"

	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

// autoTasks/autoScores выполняют каждую операцию в собственной транзакции.

type autoTasks struct{ s *Store }

func (a autoTasks) CreateTask(ctx context.Context, t models.Task) (out *models.Task, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Tasks().CreateTask(ctx, t)
		return err
	})
	return out, err
}

func (a autoTasks) FindTaskByIssueID(ctx context.Context, issueID int64) (out *models.Task, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Tasks().FindTaskByIssueID(ctx, issueID)
		return err
	})
	return out, err
}

func (a autoTasks) FindTasksByStatus(ctx context.Context, repoID int64, mentorLogin string, statuses []models.TaskStatus) (out []models.Task, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Tasks().FindTasksByStatus(ctx, repoID, mentorLogin, statuses)
		return err
	})
	return out, err
}

func (a autoTasks) UpdateTask(ctx context.Context, t *models.Task, expected models.TaskStatus) error {
	return a.s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.Tasks().UpdateTask(ctx, t, expected)
	})
}

func (a autoTasks) CountTasksByStatus(ctx context.Context) (out map[models.TaskStatus]int, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Tasks().CountTasksByStatus(ctx)
		return err
	})
	return out, err
}

type autoScores struct{ s *Store }

func (a autoScores) LockContributor(context.Context, string) error { return nil }

func (a autoScores) FindScore(ctx context.Context, p models.Period, login string) (out *models.ScoreRecord, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Scores().FindScore(ctx, p, login)
		return err
	})
	return out, err
}

func (a autoScores) FindLatestScore(ctx context.Context, login string, before models.Period) (out *models.ScoreRecord, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Scores().FindLatestScore(ctx, login, before)
		return err
	})
	return out, err
}

func (a autoScores) InsertScore(ctx context.Context, r *models.ScoreRecord) error {
	return a.s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.Scores().InsertScore(ctx, r)
	})
}

func (a autoScores) UpdateScore(ctx context.Context, r *models.ScoreRecord) error {
	return a.s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.Scores().UpdateScore(ctx, r)
	})
}

func (a autoScores) ListScoresByLogin(ctx context.Context, login string) (out []models.ScoreRecord, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Scores().ListScoresByLogin(ctx, login)
		return err
	})
	return out, err
}

func (a autoScores) ListScoresByPeriod(ctx context.Context, p models.Period) (out []models.ScoreRecord, err error) {
	err = a.s.WithTx(ctx, func(tx storage.Tx) error {
		out, err = tx.Scores().ListScoresByPeriod(ctx, p)
		return err
	})
	return out, err
}
