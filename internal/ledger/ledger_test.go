package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
	"github.com/Spok95/task-score-service/internal/storage/memory"
)

func march() models.Period { return models.Period{Year: 2025, Month: 3} }

func TestAward_FirstRecordHasZeroCarryover(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	rec, err := l.Record(ctx, ledger.Award{Login: "alice", GithubID: 1, StudentName: "Alice", Points: 10, Period: march()})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Year != 2025 || rec.Month != 3 || rec.NewScore != 10 || rec.CarryoverScore != 0 {
		t.Fatalf("ожидали (2025,3) new=10 carry=0, получили %#v", rec)
	}
}

func TestAward_AccumulatesWithinPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store, nil)

	for _, pts := range []int{10, 5, 7} {
		if _, err := l.Record(ctx, ledger.Award{Login: "alice", StudentName: "Alice", Points: pts, Period: march()}); err != nil {
			t.Fatal(err)
		}
	}
	recs, _ := l.History(ctx, "alice")
	if len(recs) != 1 {
		t.Fatalf("за период должна быть одна запись, получили %d", len(recs))
	}
	if recs[0].NewScore != 22 {
		t.Fatalf("new_score = %d, ожидали 22", recs[0].NewScore)
	}
}

func TestAward_CarryoverFromNextMonth(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	if _, err := l.Record(ctx, ledger.Award{Login: "alice", Points: 10, Period: march()}); err != nil {
		t.Fatal(err)
	}
	latest, err := l.Latest(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Month != 3 || latest.Balance() != 10 {
		t.Fatalf("ожидали мартовскую запись с балансом 10, получили %#v", latest)
	}

	april, err := l.Record(ctx, ledger.Award{Login: "alice", Points: 4, Period: march().Next()})
	if err != nil {
		t.Fatal(err)
	}
	if april.CarryoverScore != 10 || april.NewScore != 4 || april.Balance() != 14 {
		t.Fatalf("ожидали carry=10 new=4, получили %#v", april)
	}
}

func TestAward_CarryoverAcrossGap(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	if _, err := l.Record(ctx, ledger.Award{Login: "bob", Points: 6, Period: models.Period{Year: 2024, Month: 10}}); err != nil {
		t.Fatal(err)
	}
	// несколько неактивных месяцев — остаток не обнуляется
	rec, err := l.Record(ctx, ledger.Award{Login: "bob", Points: 1, Period: models.Period{Year: 2025, Month: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CarryoverScore != 6 {
		t.Fatalf("carryover = %d, ожидали 6", rec.CarryoverScore)
	}
}

func TestAward_CarryoverIgnoresLaterPeriods(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	if _, err := l.Record(ctx, ledger.Award{Login: "bob", Points: 6, Period: models.Period{Year: 2025, Month: 5}}); err != nil {
		t.Fatal(err)
	}
	rec, err := l.Record(ctx, ledger.Award{Login: "bob", Points: 2, Period: models.Period{Year: 2025, Month: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CarryoverScore != 0 {
		t.Fatalf("более поздний период не должен переноситься назад, carryover = %d", rec.CarryoverScore)
	}
}

func TestAward_OtherContributorsDoNotCarry(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	_, _ = l.Record(ctx, ledger.Award{Login: "alice", Points: 10, Period: march()})
	rec, err := l.Record(ctx, ledger.Award{Login: "bob", Points: 3, Period: march().Next()})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CarryoverScore != 0 {
		t.Fatalf("чужой баланс перенесён: %#v", rec)
	}
}

func TestAward_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), nil)

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Record(ctx, ledger.Award{Login: "alice", Points: 2, Period: march()}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	recs, _ := l.History(ctx, "alice")
	if len(recs) != 1 || recs[0].NewScore != 100 {
		t.Fatalf("ожидали одну запись с new_score=100, получили %#v", recs)
	}
}

func TestAward_Validation(t *testing.T) {
	l := ledger.New(memory.New(), nil)
	cases := map[string]ledger.Award{
		"empty_login": {Points: 1, Period: march()},
		"bad_month":   {Login: "a", Points: 1, Period: models.Period{Year: 2025, Month: 13}},
		"zero_year":   {Login: "a", Points: 1, Period: models.Period{Month: 1}},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := l.Record(context.Background(), a); !errors.Is(err, ledger.ErrInvalidAward) {
				t.Fatalf("ожидали ErrInvalidAward, получили %v", err)
			}
		})
	}
}

func TestAward_StorageFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	boom := errors.New("disk full")
	l := ledger.New(&failingStore{Store: base, insertErr: boom}, nil)

	_, err := l.Record(ctx, ledger.Award{Login: "alice", Points: 10, Period: march()})
	if !storage.IsStorageError(err) || !errors.Is(err, boom) {
		t.Fatalf("ожидали storage-ошибку, получили %v", err)
	}
	if _, err := base.Scores().FindScore(ctx, march(), "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("после сбоя записи быть не должно: %v", err)
	}
}

func TestLatest_NotFound(t *testing.T) {
	l := ledger.New(memory.New(), nil)
	if _, err := l.Latest(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

// failingStore подменяет InsertScore внутри транзакций.
type failingStore struct {
	*memory.Store
	insertErr error
}

func (f *failingStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(failingTx{Tx: tx, insertErr: f.insertErr})
	})
}

type failingTx struct {
	storage.Tx
	insertErr error
}

func (f failingTx) Scores() storage.ScoreRepo {
	return failingScores{ScoreRepo: f.Tx.Scores(), insertErr: f.insertErr}
}

type failingScores struct {
	storage.ScoreRepo
	insertErr error
}

func (f failingScores) InsertScore(ctx context.Context, r *models.ScoreRecord) error {
	return storage.Wrap("insert score", f.insertErr)
}
