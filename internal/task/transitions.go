package task

import (
	"slices"

	"github.com/Spok95/task-score-service/internal/models"
)

type Op string

const (
	OpRequestAssign   Op = "request_assign"
	OpInternApprove   Op = "intern_approve"
	OpReleaseTask     Op = "release_task"
	OpRequestComplete Op = "request_complete"
	OpInternDone      Op = "intern_done"
	OpInternClose     Op = "intern_close"
)

type Rule struct {
	From []models.TaskStatus
	To   models.TaskStatus
}

func (r Rule) Allows(s models.TaskStatus) bool {
	return slices.Contains(r.From, s)
}

var transitions = map[Op]Rule{
	OpRequestAssign:   {From: []models.TaskStatus{models.TaskOpen}, To: models.TaskAssignRequested},
	OpInternApprove:   {From: []models.TaskStatus{models.TaskAssignRequested}, To: models.TaskAssigned},
	OpReleaseTask:     {From: []models.TaskStatus{models.TaskAssignRequested, models.TaskAssigned}, To: models.TaskOpen},
	OpRequestComplete: {From: []models.TaskStatus{models.TaskAssigned}, To: models.TaskCompleteRequested},
	OpInternDone:      {From: []models.TaskStatus{models.TaskCompleteRequested}, To: models.TaskDone},
	OpInternClose:     {From: []models.TaskStatus{models.TaskDone}, To: models.TaskClosed},
}

// Transitions возвращает копию таблицы переходов.
func Transitions() map[Op]Rule {
	out := make(map[Op]Rule, len(transitions))
	for op, r := range transitions {
		out[op] = Rule{From: slices.Clone(r.From), To: r.To}
	}
	return out
}

func ruleFor(op Op) Rule {
	r, ok := transitions[op]
	if !ok {
		panic("task: no transition rule for " + string(op))
	}
	return r
}
