package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/ctxutil"
	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/metrics"
	"github.com/Spok95/task-score-service/internal/task"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Tasks  *task.Service
	Ledger *ledger.Ledger
	DB     Pinger
	Log    *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	th := &TaskHandler{svc: d.Tasks}
	mux.HandleFunc("POST /task/new", th.NewTask)
	mux.HandleFunc("GET /task/issue/{github_issue_id}", th.GetTask)
	mux.HandleFunc("POST /task/search", th.SearchWithStatus)
	mux.HandleFunc("POST /task/request-assign", th.RequestAssign)
	mux.HandleFunc("POST /task/intern-approve", th.InternApprove)
	mux.HandleFunc("POST /task/release", th.ReleaseTask)
	mux.HandleFunc("POST /task/request-complete", th.RequestComplete)
	mux.HandleFunc("POST /task/intern-done", th.InternDone)
	mux.HandleFunc("POST /task/intern-close", th.InternClose)

	sh := &ScoreHandler{ledger: d.Ledger, log: d.Log}
	mux.HandleFunc("GET /score/{login}", sh.History)
	mux.HandleFunc("GET /score/{login}/latest", sh.Latest)
	mux.HandleFunc("GET /score/{login}/export", sh.ExportHistory)
	mux.HandleFunc("GET /score/period/{year}/{month}", sh.Period)
	mux.HandleFunc("GET /score/period/{year}/{month}/export", sh.Export)

	mux.HandleFunc("GET /healthz", healthz(d.DB))
	mux.Handle("GET /metrics", metrics.Handler())

	return withRequestLog(d.Log, mux)
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog проставляет X-Request-ID, пишет access-лог и метрики.
// Чужой X-Request-ID принимается, только если это UUID.
func withRequestLog(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(ctxutil.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		log.Debug("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.code),
			zap.Duration("took", time.Since(start)),
		)
	})
}
