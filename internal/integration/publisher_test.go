//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-broker/internal/adapter/cache"
	"github.com/couchcryptid/weather-broker/internal/adapter/gateway"
	kafkaadapter "github.com/couchcryptid/weather-broker/internal/adapter/kafka"
	"github.com/couchcryptid/weather-broker/internal/config"
	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/driver"
	"github.com/couchcryptid/weather-broker/internal/observability"
)

const testTopic = "test-weather-snapshots"

// publishedMessage holds a deserialized message read from the snapshot topic.
type publishedMessage struct {
	Snapshot kafkaadapter.SnapshotMessage
	Key      string
	Headers  map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var snap kafkaadapter.SnapshotMessage
	require.NoError(t, json.Unmarshal(msg.Value, &snap), "unmarshal snapshot message")

	return publishedMessage{Snapshot: snap, Key: string(msg.Key), Headers: headers}
}

// TestDriverPublishesFreshSnapshots drives a real adapter against a fake
// gateway and checks that exactly one message lands in Kafka per fresh fetch.
func TestDriverPublishesFreshSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	var gatewayHits atomic.Int32
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayHits.Add(1)
		assert.Equal(t, "weatherbit", r.URL.Query().Get("provider"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temp": 12.5, "humidity": 71, "wind": {"speed": 3.1}}`))
	}))
	defer gw.Close()

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	publisher := kafkaadapter.NewPublisher(cfg, logger)
	defer publisher.Close()

	client := gateway.NewClient(gw.URL, 5*time.Second, 0, logger, metrics)
	store := cache.NewTTLCache(time.Minute, 4, nil, metrics)
	d := driver.New("rooftop", domain.Settings{
		Provider: "weatherbit",
		APIKey:   "key",
		City:     "Bright",
		Country:  "AU",
	}, client, store, publisher, logger, metrics)
	require.Equal(t, driver.StateReady, d.State(), "driver error: %v", d.Err())
	defer d.Wait()

	v, ok := d.Get(ctx, "wind_speed", 5*time.Second)
	require.True(t, ok)
	assert.Equal(t, 3.1, v)

	// Served from cache; must not publish again.
	_, ok = d.Get(ctx, "temp", 5*time.Second)
	require.True(t, ok)
	assert.Equal(t, int32(1), gatewayHits.Load())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	got := readPublished(ctx, t, consumer)
	assert.Equal(t, "rooftop", got.Key)
	assert.Equal(t, "rooftop", got.Headers["instance"])
	assert.NotEmpty(t, got.Headers["published_at"])
	assert.Equal(t, "weatherbit", got.Snapshot.Provider)
	assert.Equal(t, domain.Snapshot{"temp": 12.5, "humidity": 71.0, "wind_speed": 3.1}, got.Snapshot.Ports)

	noMoreCtx, noMoreCancel := context.WithTimeout(ctx, 2*time.Second)
	defer noMoreCancel()
	_, err := consumer.ReadMessage(noMoreCtx)
	assert.Error(t, err, "cache hits must not be published")
}
