package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/weather-broker/internal/adapter/cache"
	"github.com/couchcryptid/weather-broker/internal/adapter/gateway"
	httpadapter "github.com/couchcryptid/weather-broker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-broker/internal/adapter/kafka"
	"github.com/couchcryptid/weather-broker/internal/config"
	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/driver"
	"github.com/couchcryptid/weather-broker/internal/observability"
	"github.com/couchcryptid/weather-broker/internal/poller"
)

// newDriver wires one adapter instance. publisher may be nil.
func newDriver(cfg *config.Config, publisher driver.SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *driver.Driver {
	client := gateway.NewClient(cfg.GatewayURL, cfg.GatewayTimeout, cfg.GatewayRetries, logger, metrics)
	store := cache.NewTTLCache(cfg.CacheTTL, cfg.CacheSize, nil, metrics)
	return driver.New(cfg.AdapterID, cfg.Adapter, client, store, publisher, logger, metrics)
}

// loadOneShot prepares a driver for the single-call commands. Logs go to
// stderr and nothing is published.
func loadOneShot() (*driver.Driver, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	return newDriver(cfg, nil, logger, observability.NewMetrics()), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type serveCmd struct{}

func (serveCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var publisher driver.SnapshotPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	d := newDriver(cfg, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, d, logger)

	var p *poller.Poller
	switch {
	case cfg.PollInterval <= 0:
		logger.Info("poller disabled")
	case d.State() != driver.StateReady:
		logger.Warn("poller not started, adapter is not ready")
	default:
		p = poller.New(d, cfg.PollInterval, cfg.GatewayTimeout, logger, metrics)
		if err := p.Start(); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if p != nil {
		p.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	d.Wait()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

type getCmd struct {
	Port    string        `arg:"" optional:"" help:"Port name; omit for the full snapshot."`
	Timeout time.Duration `default:"0s" help:"Fetch timeout; 0 uses GATEWAY_TIMEOUT."`
}

func (c *getCmd) Run() error {
	d, err := loadOneShot()
	if err != nil {
		return err
	}
	v, ok := d.Get(context.Background(), c.Port, c.Timeout)
	if !ok {
		if d.State() != driver.StateReady {
			return d.Err()
		}
		return errors.New("no value")
	}
	return printJSON(os.Stdout, v)
}

type testCmd struct {
	Cmd string `arg:"" optional:"" help:"Diagnostic command; omit to list them."`
}

func (c *testCmd) Run() error {
	d, err := loadOneShot()
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, d.Test(context.Background(), c.Cmd))
}

type infoCmd struct{}

func (infoCmd) Run() error {
	return printJSON(os.Stdout, domain.Info())
}

type checkCmd struct{}

func (checkCmd) Run() error {
	d, err := loadOneShot()
	if err != nil {
		return err
	}
	if d.State() != driver.StateReady {
		return d.Err()
	}
	cfg := d.Configuration()
	return printJSON(os.Stdout, map[string]string{
		"instance": d.ID(),
		"state":    d.State().String(),
		"provider": cfg.Provider,
		"location": cfg.Location.String(),
		"units":    string(cfg.Units),
		"lang":     cfg.Lang,
	})
}
