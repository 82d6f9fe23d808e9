package models

import (
	"fmt"
	"time"
)

// Period — календарный месяц, в котором копятся баллы.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf возвращает период момента t в часовом поясе loc (nil — UTC).
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	y, m, _ := t.In(loc).Date()
	return Period{Year: y, Month: int(m)}
}

func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Before сравнивает периоды по (year, month).
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Next — следующий календарный месяц.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
