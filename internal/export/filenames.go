package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Spok95/task-score-service/internal/models"
)

// BuildScoresFilename — имя файла выгрузки рейтинга за период.
func BuildScoresFilename(p models.Period) string {
	return fmt.Sprintf("scores_%s.xlsx", p)
}

// BuildContributorFilename — имя файла истории участника. Логин приходит из URL.
func BuildContributorFilename(login string) string {
	login = strings.TrimSpace(login)
	if login == "" {
		login = "_"
	}
	return "scores_" + unsafeFileChars.ReplaceAllString(login, "_") + ".xlsx"
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|\s]+`)
