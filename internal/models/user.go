package models

// Contributor — участник (студент), которому начисляются баллы за задачи.
type Contributor struct {
	GithubLogin string `json:"github_login"`
	GithubID    int64  `json:"github_id"`
	Name        string `json:"student_name"`
}
