package observability

import (
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureOpErr отправляет ошибку с тегами операции и задачи.
func CaptureOpErr(err error, op string, issueID int64) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		if issueID != 0 {
			scope.SetTag("github_issue_id", strconv.FormatInt(issueID, 10))
		}
		sentry.CaptureException(err)
	})
}
