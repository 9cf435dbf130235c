package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op without a DSN. The returned func flushes pending events.
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

// CaptureRequestErr reports err with the request attached.
func CaptureRequestErr(r *http.Request, requestID string, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("request_id", requestID)
		sentry.CaptureException(err)
	})
}

func CapturePanic(r *http.Request, requestID string, recovered any) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("request_id", requestID)
		sentry.CurrentHub().Recover(recovered)
	})
}
