package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/task-score-service/internal/models"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid state")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyExists     = errors.New("task already exists")
)

// TransitionError — операция недопустима из текущего статуса задачи.
type TransitionError struct {
	Op      Op
	IssueID int64
	From    models.TaskStatus
	Allowed []models.TaskStatus
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("%s: issue %d: invalid state %q (allowed: %s)",
		e.Op, e.IssueID, e.From, strings.Join(allowed, ", "))
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
