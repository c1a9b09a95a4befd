package observability

import (
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

// Init configures the Sentry client. An empty DSN disables reporting
// entirely; the returned flush function is always safe to defer.
func Init(dsn, environment string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr forwards an error to Sentry. A nil error or an uninitialized
// client makes this a no-op.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CapturePanic reports a recovered panic value before the recovery
// middleware converts it into a 500 response.
func CapturePanic(recovered interface{}) {
	if recovered == nil {
		return
	}
	if err, ok := recovered.(error); ok {
		sentry.CaptureException(err)
		return
	}
	sentry.CaptureException(fmt.Errorf("panic: %v", recovered))
}
