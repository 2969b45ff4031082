package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/weather-broker/internal/observability"
)

// Getter is the adapter operation the poller drives.
type Getter interface {
	Get(ctx context.Context, port string, timeout time.Duration) (any, bool)
}

// Poller periodically asks the adapter for its full snapshot, the way a
// host would. It keeps the cache warm and, with publishing enabled, feeds
// the snapshot topic. A cycle without data is counted and logged; the next
// tick is the only retry.
type Poller struct {
	scheduler *gocron.Scheduler
	getter    Getter
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Poller. timeout bounds each cycle's fetch.
func New(getter Getter, interval, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Poller{
		scheduler: s,
		getter:    getter,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the job, runs the first cycle immediately and returns.
func (p *Poller) Start() error {
	if p.interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if _, err := p.scheduler.Every(p.interval).Do(p.poll); err != nil {
		return err
	}
	p.logger.Info("poller started", "interval", p.interval)
	p.scheduler.StartAsync()
	return nil
}

// Stop cancels future cycles. A cycle in flight runs to completion.
func (p *Poller) Stop() {
	p.scheduler.Stop()
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout+time.Second)
	defer cancel()

	v, ok := p.getter.Get(ctx, "", p.timeout)
	if !ok {
		p.metrics.Polls.WithLabelValues("no_data").Inc()
		p.logger.Warn("poll cycle returned no data")
		return
	}
	p.metrics.Polls.WithLabelValues("ok").Inc()
	p.logger.Debug("poll cycle completed", "value", v)
}
