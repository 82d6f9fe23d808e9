package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Tasks().CreateTask(ctx, models.Task{GithubIssueID: 1, Status: models.TaskOpen}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ожидали boom, получили %v", err)
	}
	if _, err := s.Tasks().FindTaskByIssueID(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("задача не должна пережить откат транзакции: %v", err)
	}
}

func TestTasks_DuplicateAndCAS(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Tasks().CreateTask(ctx, models.Task{GithubRepoID: 9, GithubIssueID: 42, Score: 5, Status: models.TaskOpen})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("ожидали id и created_at, получили %#v", created)
	}
	if _, err := s.Tasks().CreateTask(ctx, models.Task{GithubIssueID: 42}); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("ожидали ErrDuplicate, получили %v", err)
	}

	upd := *created
	upd.Status = models.TaskAssignRequested
	if err := s.Tasks().UpdateTask(ctx, &upd, models.TaskOpen); err != nil {
		t.Fatal(err)
	}
	// второй CAS с тем же ожидаемым статусом обязан провалиться
	again := *created
	again.Status = models.TaskAssignRequested
	if err := s.Tasks().UpdateTask(ctx, &again, models.TaskOpen); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("ожидали ErrStatusConflict, получили %v", err)
	}

	active, err := s.Tasks().FindTasksByStatus(ctx, 9, "", models.ActiveTaskStatuses)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].GithubIssueID != 42 {
		t.Fatalf("ожидали одну активную задачу, получили %#v", active)
	}
}

func TestTasks_ReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	task := models.Task{GithubIssueID: 5, Status: models.TaskAssigned}
	task.SetStudent(models.Contributor{GithubLogin: "alice", GithubID: 1, Name: "Alice"})
	if _, err := s.Tasks().CreateTask(ctx, task); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Tasks().FindTaskByIssueID(ctx, 5)
	*got.StudentGithubLogin = "mallory"

	again, _ := s.Tasks().FindTaskByIssueID(ctx, 5)
	if *again.StudentGithubLogin != "alice" {
		t.Fatalf("изменение копии протекло в хранилище: %q", *again.StudentGithubLogin)
	}
}

func TestScores_LatestBeforeAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, r := range []models.ScoreRecord{
		{Year: 2024, Month: 11, GithubLogin: "alice", NewScore: 3},
		{Year: 2025, Month: 1, GithubLogin: "alice", NewScore: 5, CarryoverScore: 3},
		{Year: 2025, Month: 4, GithubLogin: "alice", NewScore: 1, CarryoverScore: 8},
		{Year: 2025, Month: 4, GithubLogin: "bob", NewScore: 20},
		{Year: 2025, Month: 4, GithubLogin: "carol", NewScore: 10},
	} {
		r := r
		if err := s.Scores().InsertScore(ctx, &r); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := s.Scores().FindLatestScore(ctx, "alice", models.Period{Year: 2025, Month: 4})
	if err != nil {
		t.Fatal(err)
	}
	if latest.Year != 2025 || latest.Month != 1 || latest.Balance() != 8 {
		t.Fatalf("ожидали запись 2025-01 с балансом 8, получили %#v", latest)
	}
	if _, err := s.Scores().FindLatestScore(ctx, "alice", models.Period{Year: 2024, Month: 11}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("до первой записи ничего нет, получили %v", err)
	}

	dup := models.ScoreRecord{Year: 2025, Month: 4, GithubLogin: "bob"}
	if err := s.Scores().InsertScore(ctx, &dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("ожидали ErrDuplicate, получили %v", err)
	}

	hist, _ := s.Scores().ListScoresByLogin(ctx, "alice")
	if len(hist) != 3 || hist[0].Month != 4 || hist[2].Year != 2024 {
		t.Fatalf("история должна идти от новых к старым: %#v", hist)
	}

	board, _ := s.Scores().ListScoresByPeriod(ctx, models.Period{Year: 2025, Month: 4})
	if len(board) != 3 || board[0].GithubLogin != "bob" || board[1].GithubLogin != "carol" || board[2].GithubLogin != "alice" {
		t.Fatalf("неожиданный порядок рейтинга: %#v", board)
	}
}
