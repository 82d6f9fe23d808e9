package models

import "time"

// ScoreRecord — баллы участника за один период. Ключ (year, month, github_login) уникален.
type ScoreRecord struct {
	ID             int64     `db:"id" json:"id"`
	Year           int       `db:"year" json:"year"`
	Month          int       `db:"month" json:"month"`
	GithubLogin    string    `db:"github_login" json:"github_login"`
	GithubID       int64     `db:"github_id" json:"github_id"`
	StudentName    string    `db:"student_name" json:"student_name"`
	NewScore       int       `db:"new_score" json:"new_score"`
	CarryoverScore int       `db:"carryover_score" json:"carryover_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Balance переносится как carryover_score в следующую запись участника.
func (r ScoreRecord) Balance() int {
	return r.NewScore + r.CarryoverScore
}

func (r ScoreRecord) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}
