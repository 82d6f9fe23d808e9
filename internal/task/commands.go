package task

type CreateTask struct {
	RepoID      int64  `json:"github_repo_id"`
	IssueID     int64  `json:"github_issue_id"`
	Score       int    `json:"score"`
	MentorLogin string `json:"mentor_login"`
}

// RequestAssign — студент Login просит задачу. GithubID можно не знать на этом шаге:
// его уточняет InternDone.
type RequestAssign struct {
	IssueID     int64  `json:"github_issue_id"`
	Login       string `json:"login"`
	StudentName string `json:"student_name"`
	GithubID    int64  `json:"github_id"`
}

// InternDone — ментор принимает работу. Login, если задан, обязан совпасть
// с назначенным студентом; GithubID != 0 уточняет его github id.
type InternDone struct {
	IssueID  int64  `json:"github_issue_id"`
	Login    string `json:"login"`
	GithubID int64  `json:"github_id"`
}

type SearchActive struct {
	RepoID      int64  `json:"github_repo_id"`
	MentorLogin string `json:"github_mentor_login"`
}
