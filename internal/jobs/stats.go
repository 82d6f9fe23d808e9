package jobs

import (
	"context"
	"time"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/metrics"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

// TaskStats обновляет gauge задач по статусам. Отсутствующие статусы пишутся нулём.
func TaskStats(tasks storage.TaskRepo) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()
		counts, err := tasks.CountTasksByStatus(ctx)
		if err != nil {
			return err
		}
		for _, st := range models.AllTaskStatuses {
			metrics.TasksByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
		}
		return nil
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func DBPing(db Pinger) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()
		t0 := time.Now()
		if err := db.Ping(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	}
}
