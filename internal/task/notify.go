package task

import (
	"context"

	"github.com/Spok95/task-score-service/internal/models"
)

// Event — зафиксированный переход задачи.
type Event struct {
	Op    Op
	Task  models.Task
	Score *models.ScoreRecord // только для intern_done
}

// Notifier получает события после коммита. Ошибки доставки не влияют на команду.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
