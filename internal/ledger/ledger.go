// Package ledger ведёт помесячные баллы участников с переносом остатка.
//
// Первое начисление в периоде создаёт запись, carryover_score которой равен
// балансу последней более ранней записи участника (пропуски месяцев не обнуляют
// остаток). Последующие начисления в том же периоде накапливают new_score.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/logging"
	"github.com/Spok95/task-score-service/internal/metrics"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

var ErrInvalidAward = errors.New("invalid award")

// после любого реального периода
var endOfTime = models.Period{Year: 10000, Month: 1}

// Award — начисление points баллов участнику за период.
type Award struct {
	Login       string
	GithubID    int64
	StudentName string
	Points      int
	Period      models.Period
}

func (a Award) validate() error {
	if a.Login == "" {
		return fmt.Errorf("%w: empty login", ErrInvalidAward)
	}
	if !a.Period.Valid() {
		return fmt.Errorf("%w: bad period %s", ErrInvalidAward, a.Period)
	}
	return nil
}

type Ledger struct {
	store storage.Store
	log   *zap.Logger
}

func New(store storage.Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log}
}

// Award применяет начисление внутри транзакции вызывающего: scores должен
// принадлежать той же единице работы, что и остальные изменения.
func (l *Ledger) Award(ctx context.Context, scores storage.ScoreRepo, a Award) (*models.ScoreRecord, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := scores.LockContributor(ctx, a.Login); err != nil {
		return nil, storage.Wrap("lock contributor", err)
	}

	rec, err := scores.FindScore(ctx, a.Period, a.Login)
	switch {
	case err == nil:
		rec.NewScore += a.Points
		if a.GithubID != 0 {
			rec.GithubID = a.GithubID
		}
		if err := scores.UpdateScore(ctx, rec); err != nil {
			return nil, storage.Wrap("update score", err)
		}
		metrics.Awards.WithLabelValues("accumulate").Inc()
	case errors.Is(err, storage.ErrNotFound):
		carry, err := l.carryover(ctx, scores, a)
		if err != nil {
			return nil, err
		}
		rec = &models.ScoreRecord{
			Year:           a.Period.Year,
			Month:          a.Period.Month,
			GithubLogin:    a.Login,
			GithubID:       a.GithubID,
			StudentName:    a.StudentName,
			NewScore:       a.Points,
			CarryoverScore: carry,
		}
		if err := scores.InsertScore(ctx, rec); err != nil {
			return nil, storage.Wrap("insert score", err)
		}
		metrics.Awards.WithLabelValues("new_period").Inc()
	default:
		return nil, storage.Wrap("find score", err)
	}
	metrics.PointsAwarded.Add(float64(a.Points))

	logging.FromContext(ctx, l.log).Info("points awarded",
		zap.String("login", a.Login),
		zap.Stringer("period", a.Period),
		zap.Int("points", a.Points),
		zap.Int("new_score", rec.NewScore),
		zap.Int("carryover_score", rec.CarryoverScore),
	)
	return rec, nil
}

func (l *Ledger) carryover(ctx context.Context, scores storage.ScoreRepo, a Award) (int, error) {
	last, err := scores.FindLatestScore(ctx, a.Login, a.Period)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storage.Wrap("find latest score", err)
	}
	return last.Balance(), nil
}

// Record — Award в собственной транзакции.
func (l *Ledger) Record(ctx context.Context, a Award) (*models.ScoreRecord, error) {
	var out *models.ScoreRecord
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		rec, err := l.Award(ctx, tx.Scores(), a)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Latest — последняя запись участника (ErrNotFound, если баллов ещё не было).
func (l *Ledger) Latest(ctx context.Context, login string) (*models.ScoreRecord, error) {
	rec, err := l.store.Scores().FindLatestScore(ctx, login, endOfTime)
	if err != nil {
		return nil, storage.Wrap("find latest score", err)
	}
	return rec, nil
}

func (l *Ledger) History(ctx context.Context, login string) ([]models.ScoreRecord, error) {
	out, err := l.store.Scores().ListScoresByLogin(ctx, login)
	return out, storage.Wrap("list scores by login", err)
}

func (l *Ledger) Period(ctx context.Context, p models.Period) ([]models.ScoreRecord, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: bad period %s", ErrInvalidAward, p)
	}
	out, err := l.store.Scores().ListScoresByPeriod(ctx, p)
	return out, storage.Wrap("list scores by period", err)
}
