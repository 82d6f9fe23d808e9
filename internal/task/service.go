// Package task управляет жизненным циклом задач:
// open → request_assign → assigned → request_complete → completed → closed,
// плюс возврат request_assign|assigned → open.
//
// Каждый переход выполняется в одной транзакции хранилища: чтение задачи,
// проверка исходного статуса и compare-and-set нового статуса. intern_done
// начисляет баллы в той же транзакции, поэтому задача не может стать completed
// без записи в леджере.
package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/keylock"
	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/logging"
	"github.com/Spok95/task-score-service/internal/metrics"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/observability"
	"github.com/Spok95/task-score-service/internal/storage"
)

// Awarder — единственное, что сервису нужно от леджера.
type Awarder interface {
	Award(ctx context.Context, scores storage.ScoreRepo, a ledger.Award) (*models.ScoreRecord, error)
}

type Service struct {
	store    storage.Store
	awarder  Awarder
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	loc      *time.Location
	locks    *keylock.Map[int64]

	notifyTimeout time.Duration
}

// DefaultNotifyTimeout ограничивает доставку одного события.
const DefaultNotifyTimeout = 5 * time.Second

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotifyTimeout задаёт предел на доставку события; d<=0 — без предела.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock задаёт источник времени и часовой пояс, в котором считается период начисления.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store storage.Store, awarder Awarder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		awarder:  awarder,
		notifier: nopNotifier{},
		log:      zap.NewNop(),
		now:      time.Now,
		loc:      time.UTC,
		locks:    keylock.New[int64](),

		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, cmd CreateTask) (*models.Task, error) {
	ctx = ctxutil.WithOp(ctx, "create")
	if cmd.IssueID <= 0 {
		return nil, invalidArg("github_issue_id must be positive")
	}
	if cmd.Score < 0 {
		return nil, invalidArg("score must not be negative")
	}
	t, err := s.store.Tasks().CreateTask(ctx, models.Task{
		GithubRepoID:  cmd.RepoID,
		GithubIssueID: cmd.IssueID,
		Score:         cmd.Score,
		Status:        models.TaskOpen,
		MentorLogin:   cmd.MentorLogin,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		s.storageFailure(ctx, "create", cmd.IssueID, err)
		return nil, err
	}
	logging.FromContext(ctx, s.log).Info("task created",
		zap.Int64("github_issue_id", t.GithubIssueID),
		zap.Int64("github_repo_id", t.GithubRepoID),
		zap.Int("score", t.Score),
	)
	return t, nil
}

func (s *Service) Get(ctx context.Context, issueID int64) (*models.Task, error) {
	ctx = ctxutil.WithOp(ctx, "get")
	t, err := s.store.Tasks().FindTaskByIssueID(ctx, issueID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.storageFailure(ctx, "get", issueID, err)
		return nil, err
	}
	return t, nil
}

// SearchActive — задачи репозитория и ментора в статусах models.ActiveTaskStatuses.
func (s *Service) SearchActive(ctx context.Context, q SearchActive) ([]models.Task, error) {
	ctx = ctxutil.WithOp(ctx, "search_active")
	out, err := s.store.Tasks().FindTasksByStatus(ctx, q.RepoID, q.MentorLogin, models.ActiveTaskStatuses)
	if err != nil {
		s.storageFailure(ctx, "search_active", 0, err)
		return nil, err
	}
	return out, nil
}

func (s *Service) RequestAssign(ctx context.Context, cmd RequestAssign) (*models.Task, error) {
	if cmd.Login == "" {
		return nil, invalidArg("login is required")
	}
	if cmd.StudentName == "" {
		return nil, invalidArg("student_name is required")
	}
	t, _, err := s.transition(ctx, OpRequestAssign, cmd.IssueID, func(_ context.Context, _ storage.Tx, t *models.Task) (*models.ScoreRecord, error) {
		t.SetStudent(models.Contributor{GithubLogin: cmd.Login, GithubID: cmd.GithubID, Name: cmd.StudentName})
		return nil, nil
	})
	return t, err
}

func (s *Service) InternApprove(ctx context.Context, issueID int64) (*models.Task, error) {
	t, _, err := s.transition(ctx, OpInternApprove, issueID, func(_ context.Context, _ storage.Tx, t *models.Task) (*models.ScoreRecord, error) {
		if _, ok := t.Student(); !ok {
			return nil, invalidArg("issue %d has no requesting student", t.GithubIssueID)
		}
		return nil, nil
	})
	return t, err
}

func (s *Service) Release(ctx context.Context, issueID int64) (*models.Task, error) {
	t, _, err := s.transition(ctx, OpReleaseTask, issueID, func(_ context.Context, _ storage.Tx, t *models.Task) (*models.ScoreRecord, error) {
		t.ClearStudent()
		return nil, nil
	})
	return t, err
}

func (s *Service) RequestComplete(ctx context.Context, issueID int64) (*models.Task, error) {
	t, _, err := s.transition(ctx, OpRequestComplete, issueID, nil)
	return t, err
}

// InternDone переводит задачу в completed и начисляет task.Score баллов
// назначенному студенту за текущий период. Сбой начисления откатывает переход.
func (s *Service) InternDone(ctx context.Context, cmd InternDone) (*models.Task, *models.ScoreRecord, error) {
	return s.transition(ctx, OpInternDone, cmd.IssueID, func(ctx context.Context, tx storage.Tx, t *models.Task) (*models.ScoreRecord, error) {
		student, ok := t.Student()
		if !ok {
			return nil, invalidArg("issue %d has no assigned student", t.GithubIssueID)
		}
		if cmd.Login != "" && cmd.Login != student.GithubLogin {
			return nil, invalidArg("login %q is not the assigned student %q", cmd.Login, student.GithubLogin)
		}
		if cmd.GithubID != 0 {
			student.GithubID = cmd.GithubID
			t.SetStudent(student)
		}
		return s.awarder.Award(ctx, tx.Scores(), ledger.Award{
			Login:       student.GithubLogin,
			GithubID:    student.GithubID,
			StudentName: student.Name,
			Points:      t.Score,
			Period:      models.PeriodOf(s.now(), s.loc),
		})
	})
}

func (s *Service) InternClose(ctx context.Context, issueID int64) (*models.Task, error) {
	t, _, err := s.transition(ctx, OpInternClose, issueID, nil)
	return t, err
}

type applyFunc func(ctx context.Context, tx storage.Tx, t *models.Task) (*models.ScoreRecord, error)

func (s *Service) transition(ctx context.Context, op Op, issueID int64, apply applyFunc) (*models.Task, *models.ScoreRecord, error) {
	ctx = ctxutil.WithOp(ctx, string(op))
	if issueID <= 0 {
		metrics.Transitions.WithLabelValues(string(op), "invalid_argument").Inc()
		return nil, nil, invalidArg("github_issue_id must be positive")
	}
	out, score, from, err := s.commit(ctx, op, issueID, apply)

	log := logging.FromContext(ctx, s.log).With(zap.Int64("github_issue_id", issueID))
	if err != nil {
		result := resultOf(err)
		metrics.Transitions.WithLabelValues(string(op), result).Inc()
		if result == "storage" {
			s.storageFailure(ctx, string(op), issueID, err)
		} else {
			log.Info("transition rejected", zap.String("result", result), zap.Error(err))
		}
		return nil, nil, err
	}

	metrics.Transitions.WithLabelValues(string(op), "ok").Inc()
	log.Info("task transition",
		zap.String("from", string(from)),
		zap.String("to", string(out.Status)),
	)
	// блокировка задачи уже снята: медленный получатель не задерживает следующие команды
	s.emit(ctx, Event{Op: op, Task: *out, Score: score})
	return out, score, nil
}

// commit выполняет переход под блокировкой задачи и в одной транзакции.
func (s *Service) commit(ctx context.Context, op Op, issueID int64, apply applyFunc) (out *models.Task, score *models.ScoreRecord, from models.TaskStatus, err error) {
	rule := ruleFor(op)

	unlock := s.locks.Lock(issueID)
	defer unlock()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		t, err := tx.Tasks().FindTaskByIssueID(ctx, issueID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		from = t.Status
		if !rule.Allows(t.Status) {
			return &TransitionError{Op: op, IssueID: issueID, From: t.Status, Allowed: rule.From}
		}
		t.Status = rule.To
		if apply != nil {
			if score, err = apply(ctx, tx, t); err != nil {
				return err
			}
		}
		if err := tx.Tasks().UpdateTask(ctx, t, from); err != nil {
			if errors.Is(err, storage.ErrStatusConflict) {
				return s.conflict(ctx, tx, op, issueID, rule)
			}
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, nil, from, err
	}
	return out, score, from, nil
}

// conflict: статус поменяли между чтением и CAS — отвечаем фактическим статусом.
func (s *Service) conflict(ctx context.Context, tx storage.Tx, op Op, issueID int64, rule Rule) error {
	cur, err := tx.Tasks().FindTaskByIssueID(ctx, issueID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return &TransitionError{Op: op, IssueID: issueID, From: cur.Status, Allowed: rule.From}
}

func (s *Service) emit(ctx context.Context, ev Event) {
	switch ev.Op {
	case OpRequestAssign, OpRequestComplete, OpInternDone:
	default:
		return
	}
	ctx, cancel := ctxutil.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, ev); err != nil {
		logging.FromContext(ctx, s.log).Warn("notify failed",
			zap.Int64("github_issue_id", ev.Task.GithubIssueID),
			zap.Error(err),
		)
	}
}

func (s *Service) storageFailure(ctx context.Context, op string, issueID int64, err error) {
	metrics.HandlerErrors.Inc()
	observability.CaptureOpErr(err, op, issueID)
	logging.FromContext(ctx, s.log).Error("storage failure",
		zap.Int64("github_issue_id", issueID),
		zap.Error(err),
	)
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ledger.ErrInvalidAward):
		return "invalid_argument"
	default:
		return "storage"
	}
}
