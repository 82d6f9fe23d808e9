package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/task-score-service/internal/models"
)

const ScoresSheet = "Scores"

var scoresHeader = []string{"Period", "Login", "GitHub ID", "Student", "New score", "Carryover", "Balance"}

const (
	minColWidth = 10
	maxColWidth = 48
)

// NewScoresWorkbook собирает книгу с одним листом: строка на запись леджера.
func NewScoresWorkbook(recs []models.ScoreRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ScoresSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(scoresHeader))
	track := func(col int, s string) {
		if n := utf8.RuneCountInString(s) + 2; n > widths[col] {
			widths[col] = n
		}
	}

	header := make([]any, len(scoresHeader))
	for i, h := range scoresHeader {
		header[i] = h
		track(i, h)
	}
	if err := f.SetSheetRow(ScoresSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, r := range recs {
		row := []any{r.Period().String(), r.GithubLogin, r.GithubID, r.StudentName, r.NewScore, r.CarryoverScore, r.Balance()}
		for c, v := range row {
			track(c, fmt.Sprint(v))
		}
		if err := f.SetSheetRow(ScoresSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := styleScoresSheet(f, widths, len(recs)+1); err != nil {
		return nil, err
	}
	return f, nil
}

// styleScoresSheet: жирная закреплённая шапка, фильтр, ширины колонок по содержимому.
func styleScoresSheet(f *excelize.File, widths []int, lastRow int) error {
	lastCol, err := excelize.ColumnNumberToName(len(widths))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(ScoresSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.AutoFilter(ScoresSheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}
	if err := f.SetPanes(ScoresSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w = min(max(w, minColWidth), maxColWidth)
		if err := f.SetColWidth(ScoresSheet, col, col, float64(w)); err != nil {
			return fmt.Errorf("col width %s: %w", col, err)
		}
	}
	return nil
}

// WriteScores пишет xlsx в w.
func WriteScores(w io.Writer, recs []models.ScoreRecord) error {
	f, err := NewScoresWorkbook(recs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteTo(w)
	return err
}
