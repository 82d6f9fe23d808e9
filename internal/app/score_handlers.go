package app

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/export"
	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ScoreHandler struct {
	ledger *ledger.Ledger
	log    *zap.Logger
}

func (h *ScoreHandler) History(w http.ResponseWriter, r *http.Request) {
	out, err := h.ledger.History(r.Context(), r.PathValue("login"))
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, nonNil(out))
}

func (h *ScoreHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Latest(r.Context(), r.PathValue("login"))
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, *rec)
}

func (h *ScoreHandler) Period(w http.ResponseWriter, r *http.Request) {
	p, ok := periodFromPath(w, r)
	if !ok {
		return
	}
	out, err := h.ledger.Period(r.Context(), p)
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, nonNil(out))
}

// Export отдаёт рейтинг периода в xlsx.
func (h *ScoreHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, ok := periodFromPath(w, r)
	if !ok {
		return
	}
	out, err := h.ledger.Period(r.Context(), p)
	if err != nil {
		writeFailed(w, err)
		return
	}
	h.sendXLSX(w, export.BuildScoresFilename(p), out)
}

func (h *ScoreHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")
	out, err := h.ledger.History(r.Context(), login)
	if err != nil {
		writeFailed(w, err)
		return
	}
	h.sendXLSX(w, export.BuildContributorFilename(login), out)
}

// sendXLSX собирает файл целиком до записи заголовков, чтобы ошибка ушла JSON-ом.
func (h *ScoreHandler) sendXLSX(w http.ResponseWriter, name string, recs []models.ScoreRecord) {
	var buf bytes.Buffer
	if err := export.WriteScores(&buf, recs); err != nil {
		h.log.Error("xlsx export failed", zap.String("file", name), zap.Error(err))
		writeFailed(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func periodFromPath(w http.ResponseWriter, r *http.Request) (models.Period, bool) {
	y, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeBadRequest(w, "bad year")
		return models.Period{}, false
	}
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		writeBadRequest(w, "bad month")
		return models.Period{}, false
	}
	return models.Period{Year: y, Month: m}, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
