package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает fn сразу и далее раз в interval до отмены контекста.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		r.run(name, fn)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	if err := fn(r.ctx); err != nil && r.ctx.Err() == nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
