package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/models"
	"github.com/Spok95/task-score-service/internal/storage/memory"
	"github.com/Spok95/task-score-service/internal/task"
)

var aprilNow = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, nil)
	svc := task.NewService(store, l, task.WithClock(func() time.Time { return aprilNow }, time.UTC))
	srv := httptest.NewServer(NewRouter(Deps{Tasks: svc, Ledger: l, DB: store}))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	ReqResult  bool            `json:"req_result"`
	Data       json.RawMessage `json:"data"`
	ErrMessage string          `json:"err_message"`
	ErrKind    string          `json:"err_kind"`
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) (int, envelope) {
	t.Helper()
	var rd bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&rd).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: не JSON: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func issue(id int64) map[string]any { return map[string]any{"github_issue_id": id} }

func TestHTTP_Lifecycle(t *testing.T) {
	srv := newTestServer(t)

	code, env := call(t, srv, "POST", "/task/new", map[string]any{
		"github_repo_id": 1, "github_issue_id": 42, "score": 5, "mentor_login": "mentor",
	})
	if code != http.StatusOK || !env.ReqResult {
		t.Fatalf("create: code=%d env=%+v", code, env)
	}

	code, env = call(t, srv, "POST", "/task/request-assign", map[string]any{
		"github_issue_id": 42, "login": "alice", "student_name": "Alice", "github_id": 7,
	})
	if code != http.StatusOK || string(env.Data) != "true" {
		t.Fatalf("request-assign: code=%d env=%+v", code, env)
	}

	for _, p := range []string{"/task/intern-approve", "/task/request-complete"} {
		if code, env = call(t, srv, "POST", p, issue(42)); code != http.StatusOK {
			t.Fatalf("%s: code=%d env=%+v", p, code, env)
		}
	}

	code, env = call(t, srv, "POST", "/task/intern-done", map[string]any{"github_issue_id": 42, "login": "alice"})
	if code != http.StatusOK {
		t.Fatalf("intern-done: code=%d env=%+v", code, env)
	}
	var done struct {
		Task  models.Task        `json:"task"`
		Score models.ScoreRecord `json:"score"`
	}
	if err := json.Unmarshal(env.Data, &done); err != nil {
		t.Fatal(err)
	}
	if done.Task.Status != models.TaskDone || done.Score.NewScore != 5 || done.Score.Month != 4 {
		t.Fatalf("неожиданный результат intern-done: %+v", done)
	}

	code, env = call(t, srv, "GET", "/score/alice/latest", nil)
	if code != http.StatusOK {
		t.Fatalf("latest: code=%d env=%+v", code, env)
	}
	var rec models.ScoreRecord
	_ = json.Unmarshal(env.Data, &rec)
	if rec.Balance() != 5 || rec.GithubID != 7 {
		t.Fatalf("ожидали баланс 5 и github_id 7, получили %+v", rec)
	}

	code, env = call(t, srv, "GET", "/score/period/2025/4", nil)
	var recs []models.ScoreRecord
	_ = json.Unmarshal(env.Data, &recs)
	if code != http.StatusOK || len(recs) != 1 {
		t.Fatalf("period: code=%d recs=%+v", code, recs)
	}
}

func TestHTTP_ErrorKinds(t *testing.T) {
	srv := newTestServer(t)
	call(t, srv, "POST", "/task/new", map[string]any{"github_repo_id": 1, "github_issue_id": 1, "score": 3, "mentor_login": "m"})

	cases := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantKind string
	}{
		{"неизвестная задача", "POST", "/task/intern-approve", issue(999), http.StatusNotFound, KindNotFound},
		{"недопустимый переход", "POST", "/task/intern-approve", issue(1), http.StatusConflict, KindInvalidTransition},
		{"дубликат", "POST", "/task/new", map[string]any{"github_repo_id": 1, "github_issue_id": 1, "score": 3, "mentor_login": "m"}, http.StatusConflict, KindAlreadyExists},
		{"отрицательный score", "POST", "/task/new", map[string]any{"github_repo_id": 1, "github_issue_id": 2, "score": -1, "mentor_login": "m"}, http.StatusBadRequest, KindInvalidArgument},
		{"get неизвестной", "GET", "/task/issue/12345", nil, http.StatusNotFound, KindNotFound},
		{"плохой id", "GET", "/task/issue/abc", nil, http.StatusBadRequest, KindInvalidArgument},
		{"нет баллов", "GET", "/score/nobody/latest", nil, http.StatusNotFound, KindNotFound},
		{"плохой месяц", "GET", "/score/period/2025/13", nil, http.StatusBadRequest, KindInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := call(t, srv, tc.method, tc.path, tc.body)
			if code != tc.wantCode || env.ErrKind != tc.wantKind || env.ReqResult {
				t.Fatalf("ожидали %d/%s, получили %d/%+v", tc.wantCode, tc.wantKind, code, env)
			}
		})
	}
}

func TestHTTP_BadJSON(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Post(srv.URL+"/task/release", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", resp.StatusCode)
	}
}

func TestHTTP_EmptyListsAreArrays(t *testing.T) {
	srv := newTestServer(t)
	for _, p := range []string{"/score/ghost", "/score/period/2030/1"} {
		code, env := call(t, srv, "GET", p, nil)
		if code != http.StatusOK || string(env.Data) != "[]" {
			t.Fatalf("%s: code=%d data=%s", p, code, env.Data)
		}
	}
	code, env := call(t, srv, "POST", "/task/search", map[string]any{"github_repo_id": 1, "github_mentor_login": "m"})
	if code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("search: code=%d data=%s", code, env.Data)
	}
}

func TestHTTP_ExportAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/score/period/2025/4/export")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: code=%d ct=%q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="scores_2025-04.xlsx"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("ожидали X-Request-ID в ответе")
	}

	resp, err = srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
}

func TestHTTP_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t)
	body := `{"github_issue_id": 1, "login": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	resp, err := srv.Client().Post(srv.URL+"/task/request-assign", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("ожидали 413, получили %d", resp.StatusCode)
	}
}

func TestHTTP_RequestID(t *testing.T) {
	srv := newTestServer(t)
	get := func(id string) string {
		t.Helper()
		req, _ := http.NewRequest("GET", srv.URL+"/healthz", nil)
		if id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.Header.Get("X-Request-ID")
	}

	const own = "5f0c7a52-3d2b-4c1e-9a8f-0b6d2e4c7a10"
	if got := get(own); got != own {
		t.Fatalf("корректный UUID клиента должен сохраниться, получили %q", got)
	}
	got := get(strings.Repeat("x", 4096))
	if got == "" || len(got) != len(own) {
		t.Fatalf("вместо мусорного id ожидали сгенерированный UUID, получили %q", got)
	}
}
