package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/observability"
)

// publishTimeout bounds one background publish.
const publishTimeout = 10 * time.Second

// SnapshotPublisher receives every freshly fetched snapshot. Cache hits are
// not published.
type SnapshotPublisher interface {
	Publish(ctx context.Context, instance, provider string, snap domain.Snapshot) error
}

// Fetcher runs the cached fetch cycle for one adapter instance.
//
// Concurrent callers that miss the cache at the same time each call the
// provider; there is no single-flight de-duplication.
type Fetcher struct {
	key       string
	cfg       domain.Configuration
	client    domain.ProviderClient
	cache     domain.CacheStore
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	publishTimeout time.Duration
	publishing     sync.WaitGroup
}

// NewFetcher creates a Fetcher. key identifies the instance in the cache.
// Pass a nil publisher to disable publishing.
func NewFetcher(key string, cfg domain.Configuration, client domain.ProviderClient, cache domain.CacheStore, publisher SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		key:       key,
		cfg:       cfg,
		client:    client,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,

		publishTimeout: publishTimeout,
	}
}

// Fetch returns the cached snapshot or fetches a fresh one. Failures are
// *domain.FetchError values: FetchSoft when the provider returned nothing,
// FetchHard for everything else.
func (f *Fetcher) Fetch(ctx context.Context, timeout time.Duration) (domain.Snapshot, error) {
	if snap, ok := f.cache.Get(f.key); ok {
		f.metrics.Fetches.WithLabelValues("hit").Inc()
		return snap, nil
	}

	start := time.Now()
	snap, err := f.getCurrent(ctx, timeout)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		f.metrics.Fetches.WithLabelValues("error").Inc()
		f.logger.Error("weather fetch failed",
			"provider", f.cfg.Provider,
			"location", f.cfg.Location.String(),
			"timeout", timeout,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, &domain.FetchError{Kind: domain.FetchHard, Err: err}
	}

	if snap.Empty() {
		f.metrics.Fetches.WithLabelValues("empty").Inc()
		f.logger.Debug("provider returned no data",
			"provider", f.cfg.Provider,
			"location", f.cfg.Location.String(),
		)
		return nil, &domain.FetchError{Kind: domain.FetchSoft, Err: domain.ErrNoData}
	}

	f.cache.Set(f.key, snap)
	f.metrics.Fetches.WithLabelValues("success").Inc()
	f.publish(ctx, snap.Clone())
	return snap, nil
}

// getCurrent shields the caller from a panicking client.
func (f *Fetcher) getCurrent(ctx context.Context, timeout time.Duration) (snap domain.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("provider client panic: %v", r)
		}
	}()
	return f.client.GetCurrent(ctx, timeout)
}

// publish hands the snapshot to the publisher in the background so a slow
// or unreachable broker never delays the caller.
func (f *Fetcher) publish(ctx context.Context, snap domain.Snapshot) {
	if f.publisher == nil {
		return
	}
	f.publishing.Add(1)
	go func() {
		defer f.publishing.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.publishTimeout)
		defer cancel()

		if err := f.publisher.Publish(pubCtx, f.key, f.cfg.Provider, snap); err != nil {
			f.metrics.Publishes.WithLabelValues("error").Inc()
			f.logger.Warn("publish snapshot failed", "error", err)
			return
		}
		f.metrics.Publishes.WithLabelValues("success").Inc()
	}()
}

// Wait blocks until every publish started so far has finished.
func (f *Fetcher) Wait() {
	f.publishing.Wait()
}
