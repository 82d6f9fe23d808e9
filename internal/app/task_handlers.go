package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/task"
)

type TaskHandler struct {
	svc *task.Service
}

// commandRequest — тело всех команд перехода.
type commandRequest struct {
	GithubIssueID int64  `json:"github_issue_id"`
	Login         string `json:"login"`
	StudentName   string `json:"student_name"`
	GithubID      int64  `json:"github_id"`
}

type internDoneResponse struct {
	Task  *models.Task        `json:"task"`
	Score *models.ScoreRecord `json:"score"`
}

// maxBodyBytes — команды задач короткие, больше не читаем.
const maxBodyBytes = 64 << 10

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, CommonResult[struct{}]{
				ErrMessage: "request body too large", ErrKind: KindInvalidArgument,
			})
			return false
		}
		writeBadRequest(w, "JSON error: "+err.Error())
		return false
	}
	return true
}

func (h *TaskHandler) NewTask(w http.ResponseWriter, r *http.Request) {
	var req task.CreateTask
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, *t)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("github_issue_id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "bad github_issue_id")
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, *t)
}

func (h *TaskHandler) SearchWithStatus(w http.ResponseWriter, r *http.Request) {
	var req task.SearchActive
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.SearchActive(r.Context(), req)
	if err != nil {
		writeFailed(w, err)
		return
	}
	if out == nil {
		out = []models.Task{}
	}
	writeOK(w, out)
}

func (h *TaskHandler) RequestAssign(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	_, err := h.svc.RequestAssign(r.Context(), task.RequestAssign{
		IssueID:     req.GithubIssueID,
		Login:       req.Login,
		StudentName: req.StudentName,
		GithubID:    req.GithubID,
	})
	h.respondBool(w, err)
}

func (h *TaskHandler) InternApprove(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.InternApprove)
}

func (h *TaskHandler) ReleaseTask(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Release)
}

func (h *TaskHandler) RequestComplete(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.RequestComplete)
}

func (h *TaskHandler) InternClose(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.InternClose)
}

func (h *TaskHandler) InternDone(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	t, rec, err := h.svc.InternDone(r.Context(), task.InternDone{
		IssueID:  req.GithubIssueID,
		Login:    req.Login,
		GithubID: req.GithubID,
	})
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, internDoneResponse{Task: t, Score: rec})
}

func (h *TaskHandler) simple(w http.ResponseWriter, r *http.Request, cmd func(context.Context, int64) (*models.Task, error)) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	_, err := cmd(r.Context(), req.GithubIssueID)
	h.respondBool(w, err)
}

func (h *TaskHandler) respondBool(w http.ResponseWriter, err error) {
	if err != nil {
		writeFailed(w, err)
		return
	}
	writeOK(w, true)
}
