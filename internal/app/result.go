package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/storage"
	"github.com/Spok95/task-score-service/internal/task"
)

// CommonResult — общий конверт ответов API.
type CommonResult[T any] struct {
	ReqResult  bool   `json:"req_result"`
	Data       *T     `json:"data,omitempty"`
	ErrMessage string `json:"err_message"`
	ErrKind    string `json:"err_kind,omitempty"`
}

const (
	KindNotFound          = "not_found"
	KindInvalidTransition = "invalid_transition"
	KindInvalidArgument   = "invalid_argument"
	KindAlreadyExists     = "already_exists"
	KindStorage           = "storage"
)

func success[T any](data T) CommonResult[T] {
	return CommonResult[T]{ReqResult: true, Data: &data}
}

// classify сопоставляет ошибку с видом отказа и HTTP-статусом.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, task.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return KindNotFound, http.StatusNotFound
	case errors.Is(err, task.ErrInvalidTransition):
		return KindInvalidTransition, http.StatusConflict
	case errors.Is(err, task.ErrAlreadyExists):
		return KindAlreadyExists, http.StatusConflict
	case errors.Is(err, task.ErrInvalidArgument), errors.Is(err, ledger.ErrInvalidAward):
		return KindInvalidArgument, http.StatusBadRequest
	default:
		return KindStorage, http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, success(data))
}

// writeFailed: для сбоев хранилища наружу уходит только общий текст.
func writeFailed(w http.ResponseWriter, err error) {
	kind, code := classify(err)
	msg := err.Error()
	if kind == KindStorage {
		msg = "internal storage error"
	}
	writeJSON(w, code, CommonResult[struct{}]{ErrMessage: msg, ErrKind: kind})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, CommonResult[struct{}]{ErrMessage: msg, ErrKind: KindInvalidArgument})
}
