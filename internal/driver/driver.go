package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/observability"
)

// Diagnostic commands and self-test results understood by Test.
const (
	CmdSelf = "self"
	CmdGet  = "get"

	ResultOK     = "OK"
	ResultFailed = "FAILED"
)

// State is the adapter lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateNotReady
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNotReady:
		return "not_ready"
	default:
		return "uninitialized"
	}
}

// Driver is the host-facing surface of one adapter instance. Every failure
// is reported as "no value"; nothing panics or returns an error past Get
// and Test.
type Driver struct {
	id      string
	cfg     domain.Configuration
	fetcher *Fetcher
	state   State
	err     error
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New validates settings and configures the provider client. A failure
// leaves the driver permanently not ready; it is logged and kept for Err,
// and the client and cache are never touched afterwards.
func New(id string, settings domain.Settings, client domain.ProviderClient, cache domain.CacheStore, publisher SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *Driver {
	d := &Driver{
		id:      id,
		state:   StateUninitialized,
		logger:  logger.With("instance", id),
		metrics: metrics,
	}

	cfg, err := domain.NewConfiguration(settings)
	if err == nil {
		err = configureClient(client, cfg)
	}
	if err != nil {
		d.state = StateNotReady
		d.err = err
		d.metrics.AdapterReady.Set(0)
		d.logger.Error("adapter configuration failed", "error", err)
		return d
	}

	d.cfg = cfg
	d.fetcher = NewFetcher(id, cfg, client, cache, publisher, d.logger, metrics)
	d.state = StateReady
	d.metrics.AdapterReady.Set(1)
	d.logger.Info("adapter ready",
		"provider", cfg.Provider,
		"location", cfg.Location.String(),
		"units", string(cfg.Units),
		"lang", cfg.Lang,
	)
	return d
}

func configureClient(client domain.ProviderClient, cfg domain.Configuration) error {
	err := client.Configure(cfg.Provider, cfg.APIKey, cfg.Location, cfg.Lang, cfg.Units)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUnknownProvider):
		return &domain.ConfigError{Kind: domain.UnknownProvider, Field: "p", Err: err}
	default:
		return &domain.ConfigError{Kind: domain.ProviderRejected, Field: "p", Err: err}
	}
}

// Get returns the value of port, or the whole snapshot when port is empty.
// The boolean is false when there is no value this cycle: the adapter is
// not ready, the fetch failed, or the provider has no such port.
func (d *Driver) Get(ctx context.Context, port string, timeout time.Duration) (any, bool) {
	snap, ok := d.Snapshot(ctx, timeout)
	if !ok {
		return nil, false
	}
	if port == "" {
		return snap, true
	}
	return snap.Port(port)
}

// Snapshot returns the current snapshot through the cache.
func (d *Driver) Snapshot(ctx context.Context, timeout time.Duration) (domain.Snapshot, bool) {
	if d.state != StateReady {
		d.metrics.Fetches.WithLabelValues("not_ready").Inc()
		return nil, false
	}
	snap, err := d.fetcher.Fetch(ctx, timeout)
	if err != nil {
		return nil, false
	}
	return snap, true
}

// Test runs a diagnostic command. "self" performs a real (cached) fetch and
// reports OK or FAILED, "get" dumps the snapshot, anything else returns the
// list of commands.
func (d *Driver) Test(ctx context.Context, cmd string) any {
	switch cmd {
	case CmdSelf:
		if snap, ok := d.Snapshot(ctx, 0); ok && !snap.Empty() {
			return ResultOK
		}
		return ResultFailed
	case CmdGet:
		snap, ok := d.Snapshot(ctx, 0)
		if !ok {
			return nil
		}
		return snap
	default:
		return Commands()
	}
}

// Commands describes the diagnostic commands accepted by Test.
func Commands() map[string]string {
	return map[string]string{
		CmdGet:  "get provider data",
		CmdSelf: "self test (fetch current conditions)",
	}
}

// CheckReadiness reports why the adapter cannot serve, or nil when it can.
func (d *Driver) CheckReadiness(_ context.Context) error {
	if d.state != StateReady {
		return fmt.Errorf("adapter %s: %w", d.state, d.err)
	}
	return nil
}

// Wait blocks until in-flight snapshot publishes finish. Call it before
// closing the publisher.
func (d *Driver) Wait() {
	if d.fetcher != nil {
		d.fetcher.Wait()
	}
}

// ID returns the adapter instance id.
func (d *Driver) ID() string { return d.id }

// State returns the lifecycle state.
func (d *Driver) State() State { return d.state }

// Err returns the construction failure of a not-ready driver.
func (d *Driver) Err() error { return d.err }

// Configuration returns the validated configuration; zero when not ready.
func (d *Driver) Configuration() domain.Configuration { return d.cfg }

// Info returns the module descriptor.
func (d *Driver) Info() domain.ModuleInfo { return domain.Info() }
