// Package storage описывает контракты хранилища задач и баллов,
// общие для Postgres-реализации (internal/db) и in-memory (internal/storage/memory).
package storage

import (
	"context"

	"github.com/Spok95/task-score-service/internal/models"
)

type TaskRepo interface {
	// CreateTask возвращает ErrDuplicate, если задача с таким github_issue_id уже есть.
	CreateTask(ctx context.Context, t models.Task) (*models.Task, error)
	// FindTaskByIssueID возвращает ErrNotFound при промахе. Внутри транзакции строка блокируется.
	FindTaskByIssueID(ctx context.Context, issueID int64) (*models.Task, error)
	FindTasksByStatus(ctx context.Context, repoID int64, mentorLogin string, statuses []models.TaskStatus) ([]models.Task, error)
	// UpdateTask — compare-and-set по статусу: запись применяется, только если
	// текущий статус равен expected, иначе ErrStatusConflict.
	UpdateTask(ctx context.Context, t *models.Task, expected models.TaskStatus) error
	CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error)
}

type ScoreRepo interface {
	// LockContributor сериализует начисления одному участнику до конца транзакции.
	// Вне транзакции — no-op.
	LockContributor(ctx context.Context, login string) error
	// FindScore возвращает ErrNotFound, если записи за период нет.
	FindScore(ctx context.Context, p models.Period, login string) (*models.ScoreRecord, error)
	// FindLatestScore — самая свежая запись участника строго раньше периода before
	// (не обязательно за предыдущий месяц). ErrNotFound, если таких нет.
	FindLatestScore(ctx context.Context, login string, before models.Period) (*models.ScoreRecord, error)
	InsertScore(ctx context.Context, r *models.ScoreRecord) error
	UpdateScore(ctx context.Context, r *models.ScoreRecord) error
	// ListScoresByLogin — история участника, новые периоды первыми.
	ListScoresByLogin(ctx context.Context, login string) ([]models.ScoreRecord, error)
	// ListScoresByPeriod — рейтинг периода: баланс по убыванию, затем логин.
	ListScoresByPeriod(ctx context.Context, p models.Period) ([]models.ScoreRecord, error)
}

// Tx — репозитории, работающие в одной единице работы.
type Tx interface {
	Tasks() TaskRepo
	Scores() ScoreRepo
}

// Store — хранилище. Методы Tx вне WithTx выполняют каждую операцию отдельно.
type Store interface {
	Tx
	// WithTx выполняет fn атомарно: ошибка fn откатывает все изменения.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}
