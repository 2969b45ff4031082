package poller_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/observability"
	"github.com/couchcryptid/weather-broker/internal/poller"
)

type mockGetter struct {
	ok      bool
	calls   atomic.Int32
	port    atomic.Value
	timeout atomic.Int64
}

func (m *mockGetter) Get(_ context.Context, port string, timeout time.Duration) (any, bool) {
	m.calls.Add(1)
	m.port.Store(port)
	m.timeout.Store(int64(timeout))
	if !m.ok {
		return nil, false
	}
	return domain.Snapshot{"temp": 1.0}, true
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoller_PollsOnInterval(t *testing.T) {
	g := &mockGetter{ok: true}
	metrics := observability.NewMetricsForTesting()
	p := poller.New(g, 20*time.Millisecond, 3*time.Second, quietLogger(), metrics)

	require.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool { return g.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "", g.port.Load())
	assert.Equal(t, int64(3*time.Second), g.timeout.Load())
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.Polls.WithLabelValues("ok")), 3.0)
}

func TestPoller_CountsEmptyCycles(t *testing.T) {
	g := &mockGetter{ok: false}
	metrics := observability.NewMetricsForTesting()
	p := poller.New(g, 20*time.Millisecond, time.Second, quietLogger(), metrics)

	require.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Polls.WithLabelValues("no_data")) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, testutil.ToFloat64(metrics.Polls.WithLabelValues("ok")))
}

func TestPoller_StopHaltsCycles(t *testing.T) {
	g := &mockGetter{ok: true}
	p := poller.New(g, 20*time.Millisecond, time.Second, quietLogger(), observability.NewMetricsForTesting())

	require.NoError(t, p.Start())
	assert.Eventually(t, func() bool { return g.calls.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	// Let any cycle already in flight finish before sampling.
	time.Sleep(30 * time.Millisecond)
	after := g.calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, g.calls.Load())
}

func TestPoller_RejectsNonPositiveInterval(t *testing.T) {
	p := poller.New(&mockGetter{}, 0, time.Second, quietLogger(), observability.NewMetricsForTesting())
	require.Error(t, p.Start())
}
