// Package memory — in-memory реализация storage.Store.
// Транзакции сериализуются одним мьютексом и работают с черновиком состояния,
// который подменяет основное только при успешном завершении.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage"
)

type scoreKey struct {
	period models.Period
	login  string
}

type state struct {
	tasks      map[int64]models.Task // по github_issue_id
	nextTaskID int64
	scores     map[scoreKey]models.ScoreRecord
	nextScore  int64
}

func newState() *state {
	return &state{
		tasks:  make(map[int64]models.Task),
		scores: make(map[scoreKey]models.ScoreRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		tasks:      make(map[int64]models.Task, len(s.tasks)),
		nextTaskID: s.nextTaskID,
		scores:     make(map[scoreKey]models.ScoreRecord, len(s.scores)),
		nextScore:  s.nextScore,
	}
	for k, v := range s.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range s.scores {
		c.scores[k] = v
	}
	return c
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	if err := fn(&txView{st: draft, now: s.now}); err != nil {
		return err
	}
	s.st = draft
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Tasks() storage.TaskRepo   { return autoTasks{s} }
func (s *Store) Scores() storage.ScoreRepo { return autoScores{s} }

type txView struct {
	st  *state
	now func() time.Time
}

func (v *txView) Tasks() storage.TaskRepo   { return taskRepo{v} }
func (v *txView) Scores() storage.ScoreRepo { return scoreRepo{v} }

type taskRepo struct{ v *txView }

func (r taskRepo) CreateTask(_ context.Context, t models.Task) (*models.Task, error) {
	st := r.v.st
	if _, ok := st.tasks[t.GithubIssueID]; ok {
		return nil, storage.Wrap("create task", storage.ErrDuplicate)
	}
	st.nextTaskID++
	now := r.v.now()
	t.ID = st.nextTaskID
	t.CreatedAt, t.UpdatedAt = now, now
	st.tasks[t.GithubIssueID] = copyTask(t)
	out := copyTask(t)
	return &out, nil
}

func (r taskRepo) FindTaskByIssueID(_ context.Context, issueID int64) (*models.Task, error) {
	t, ok := r.v.st.tasks[issueID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := copyTask(t)
	return &out, nil
}

func (r taskRepo) FindTasksByStatus(_ context.Context, repoID int64, mentorLogin string, statuses []models.TaskStatus) ([]models.Task, error) {
	want := make(map[models.TaskStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []models.Task
	for _, t := range r.v.st.tasks {
		if t.GithubRepoID != repoID || t.MentorLogin != mentorLogin || !want[t.Status] {
			continue
		}
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r taskRepo) UpdateTask(_ context.Context, t *models.Task, expected models.TaskStatus) error {
	cur, ok := r.v.st.tasks[t.GithubIssueID]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Status != expected {
		return storage.ErrStatusConflict
	}
	t.ID = cur.ID
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = r.v.now()
	r.v.st.tasks[t.GithubIssueID] = copyTask(*t)
	return nil
}

func (r taskRepo) CountTasksByStatus(_ context.Context) (map[models.TaskStatus]int, error) {
	out := make(map[models.TaskStatus]int)
	for _, t := range r.v.st.tasks {
		out[t.Status]++
	}
	return out, nil
}

type scoreRepo struct{ v *txView }

// LockContributor: транзакции и так сериализованы.
func (r scoreRepo) LockContributor(context.Context, string) error { return nil }

func (r scoreRepo) FindScore(_ context.Context, p models.Period, login string) (*models.ScoreRecord, error) {
	rec, ok := r.v.st.scores[scoreKey{p, login}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (r scoreRepo) FindLatestScore(_ context.Context, login string, before models.Period) (*models.ScoreRecord, error) {
	var latest *models.ScoreRecord
	for k, rec := range r.v.st.scores {
		if k.login != login || !k.period.Before(before) {
			continue
		}
		if latest == nil || latest.Period().Before(k.period) {
			rec := rec
			latest = &rec
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest, nil
}

func (r scoreRepo) InsertScore(_ context.Context, rec *models.ScoreRecord) error {
	k := scoreKey{rec.Period(), rec.GithubLogin}
	if _, ok := r.v.st.scores[k]; ok {
		return storage.Wrap("insert score", storage.ErrDuplicate)
	}
	r.v.st.nextScore++
	now := r.v.now()
	rec.ID = r.v.st.nextScore
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.v.st.scores[k] = *rec
	return nil
}

func (r scoreRepo) UpdateScore(_ context.Context, rec *models.ScoreRecord) error {
	k := scoreKey{rec.Period(), rec.GithubLogin}
	cur, ok := r.v.st.scores[k]
	if !ok {
		return storage.ErrNotFound
	}
	rec.ID = cur.ID
	rec.CreatedAt = cur.CreatedAt
	rec.UpdatedAt = r.v.now()
	r.v.st.scores[k] = *rec
	return nil
}

func (r scoreRepo) ListScoresByLogin(_ context.Context, login string) ([]models.ScoreRecord, error) {
	var out []models.ScoreRecord
	for k, rec := range r.v.st.scores {
		if k.login == login {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Period().Before(out[i].Period()) })
	return out, nil
}

func (r scoreRepo) ListScoresByPeriod(_ context.Context, p models.Period) ([]models.ScoreRecord, error) {
	var out []models.ScoreRecord
	for k, rec := range r.v.st.scores {
		if k.period == p {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance() != out[j].Balance() {
			return out[i].Balance() > out[j].Balance()
		}
		return out[i].GithubLogin < out[j].GithubLogin
	})
	return out, nil
}

func copyTask(t models.Task) models.Task {
	if t.StudentGithubLogin != nil {
		v := *t.StudentGithubLogin
		t.StudentGithubLogin = &v
	}
	if t.StudentName != nil {
		v := *t.StudentName
		t.StudentName = &v
	}
	if t.StudentGithubID != nil {
		v := *t.StudentGithubID
		t.StudentGithubID = &v
	}
	return t
}
