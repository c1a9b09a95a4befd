package observability

import (
	"errors"
	"sync"
	"testing"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *captureTransport) Configure(_ sentry.ClientOptions) {}

func (t *captureTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *captureTransport) Flush(_ time.Duration) bool { return true }

func (t *captureTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func initWithTransport(t *testing.T) *captureTransport {
	t.Helper()
	transport := &captureTransport{}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:       "https://public@sentry.invalid/1",
		Transport: transport,
	})
	require.NoError(t, err)
	return transport
}

func TestInitDisabledWithoutDSN(t *testing.T) {
	flush, err := Init("", "")
	require.NoError(t, err)
	require.NotNil(t, flush)
	flush()
}

func TestCaptureErrDeliversEvent(t *testing.T) {
	transport := initWithTransport(t)

	CaptureErr(errors.New("marks upsert failed"))

	assert.Equal(t, 1, transport.count())
}

func TestCaptureErrIgnoresNil(t *testing.T) {
	transport := initWithTransport(t)

	CaptureErr(nil)

	assert.Equal(t, 0, transport.count())
}

func TestCapturePanicWrapsNonErrorValue(t *testing.T) {
	transport := initWithTransport(t)

	CapturePanic("index out of range")
	CapturePanic(nil)

	assert.Equal(t, 1, transport.count())
}
