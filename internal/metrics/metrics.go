package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskscore", Name: "http_requests_total", Help: "Processed HTTP requests",
	}, []string{"route", "code"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskscore", Name: "handler_errors_total", Help: "Handler errors (storage failures)",
	})
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskscore", Name: "transitions_total", Help: "Task lifecycle transitions by result",
	}, []string{"op", "result"})
	Awards = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskscore", Name: "awards_total", Help: "Ledger awards by kind",
	}, []string{"kind"})
	PointsAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskscore", Name: "points_awarded_total", Help: "Points written to the ledger",
	})
	TasksByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "taskscore", Name: "tasks", Help: "Tasks by lifecycle status",
	}, []string{"status"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskscore", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, Transitions, Awards, PointsAwarded, TasksByStatus, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
