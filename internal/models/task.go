package models

import "time"

type TaskStatus string

const (
	TaskOpen              TaskStatus = "open"
	TaskAssignRequested   TaskStatus = "request_assign"
	TaskAssigned          TaskStatus = "assigned"
	TaskCompleteRequested TaskStatus = "request_complete"
	TaskDone              TaskStatus = "completed"
	TaskClosed            TaskStatus = "closed"
)

// AllTaskStatuses в порядке жизненного цикла.
var AllTaskStatuses = []TaskStatus{
	TaskOpen,
	TaskAssignRequested,
	TaskAssigned,
	TaskCompleteRequested,
	TaskDone,
	TaskClosed,
}

// ActiveTaskStatuses — задачи «в работе»: их показывает поиск ментора.
var ActiveTaskStatuses = []TaskStatus{
	TaskAssignRequested,
	TaskAssigned,
	TaskCompleteRequested,
}

func (s TaskStatus) Valid() bool {
	for _, v := range AllTaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s TaskStatus) IsActive() bool {
	for _, v := range ActiveTaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Task struct {
	ID                 int64      `db:"id" json:"id"`
	GithubRepoID       int64      `db:"github_repo_id" json:"github_repo_id"`
	GithubIssueID      int64      `db:"github_issue_id" json:"github_issue_id"`
	Score              int        `db:"score" json:"score"`
	Status             TaskStatus `db:"status" json:"status"`
	MentorLogin        string     `db:"mentor_login" json:"mentor_login"`
	StudentGithubLogin *string    `db:"student_github_login" json:"student_github_login,omitempty"`
	StudentName        *string    `db:"student_name" json:"student_name,omitempty"`
	StudentGithubID    *int64     `db:"student_github_id" json:"student_github_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// SetStudent заполняет все три поля студента сразу.
func (t *Task) SetStudent(c Contributor) {
	login, name, id := c.GithubLogin, c.Name, c.GithubID
	t.StudentGithubLogin = &login
	t.StudentName = &name
	t.StudentGithubID = &id
}

// ClearStudent сбрасывает все три поля студента сразу.
func (t *Task) ClearStudent() {
	t.StudentGithubLogin = nil
	t.StudentName = nil
	t.StudentGithubID = nil
}

// Student возвращает назначенного участника; ok=false, если поля не заполнены.
func (t *Task) Student() (Contributor, bool) {
	if t.StudentGithubLogin == nil || t.StudentName == nil || t.StudentGithubID == nil {
		return Contributor{}, false
	}
	return Contributor{
		GithubLogin: *t.StudentGithubLogin,
		GithubID:    *t.StudentGithubID,
		Name:        *t.StudentName,
	}, true
}

// StudentFieldsConsistent: поля студента либо все пусты, либо все заданы; в open — пусты.
func (t *Task) StudentFieldsConsistent() bool {
	set := 0
	if t.StudentGithubLogin != nil {
		set++
	}
	if t.StudentName != nil {
		set++
	}
	if t.StudentGithubID != nil {
		set++
	}
	if t.Status == TaskOpen {
		return set == 0
	}
	return set == 0 || set == 3
}
