package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/observability"
)

const (
	currentPath  = "/api/v1/current"
	maxBodyBytes = 1 << 20
)

var (
	errNotConfigured = errors.New("gateway client not configured")
	errCircuitOpen   = errors.New("circuit breaker open")
)

// Client implements domain.ProviderClient against a weather aggregation
// gateway that speaks to the individual providers on our behalf.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	defaultTimeout time.Duration
	retries        int
	initialBackoff time.Duration
	breaker        *gobreaker.CircuitBreaker
	logger         *slog.Logger
	metrics        *observability.Metrics

	mu       sync.RWMutex
	provider string
	query    url.Values
}

// NewClient creates a gateway client. defaultTimeout applies to GetCurrent
// calls made with a zero timeout; retries bounds the number of re-attempts
// after a retryable failure.
func NewClient(baseURL string, defaultTimeout time.Duration, retries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		defaultTimeout: defaultTimeout,
		retries:        retries,
		initialBackoff: 200 * time.Millisecond,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weather-gateway",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger:  logger,
		metrics: metrics,
	}
}

// Configure binds the client to a provider, credential and location.
func (c *Client) Configure(provider, key string, loc domain.LocationSpec, lang string, units domain.Units) error {
	p := strings.ToLower(strings.TrimSpace(provider))
	if !slices.Contains(domain.KnownProviders, p) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	q := url.Values{
		"provider": {p},
		"key":      {key},
	}
	switch loc.Mode {
	case domain.ModeCoordinates:
		q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	case domain.ModeCityID:
		q.Set("city_id", strconv.FormatInt(loc.CityID, 10))
	case domain.ModeCityCountry:
		q.Set("city", loc.City)
		q.Set("country", loc.Country)
	default:
		return errors.New("location is not resolved")
	}
	if lang != "" {
		q.Set("lang", lang)
	}
	if units != domain.UnitsDefault {
		q.Set("units", string(units))
	}

	c.mu.Lock()
	c.provider = p
	c.query = q
	c.mu.Unlock()
	return nil
}

// GetCurrent fetches current conditions. Retryable failures (transport
// errors, 429, 5xx) are retried with exponential backoff until the timeout
// or the retry budget runs out.
func (c *Client) GetCurrent(ctx context.Context, timeout time.Duration) (domain.Snapshot, error) {
	c.mu.RLock()
	provider, query := c.provider, c.query
	c.mu.RUnlock()
	if query == nil {
		return nil, errNotConfigured
	}

	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fullURL := c.baseURL + currentPath + "?" + query.Encode()
	start := time.Now()

	var body []byte
	attempts := 0
	operation := func() error {
		attempts++
		res, err := c.breaker.Execute(func() (any, error) {
			return c.doRequest(ctx, fullURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			}
			return err
		}
		body, _ = res.([]byte)
		return nil
	}

	err := backoff.Retry(operation, c.newBackOff(ctx, timeout))
	c.metrics.GatewayDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, errCircuitOpen) {
			outcome = "circuit_open"
		}
		c.metrics.GatewayRequests.WithLabelValues(outcome).Inc()
		return nil, fmt.Errorf("gateway request (provider %s, %d attempts): %w", provider, attempts, err)
	}

	snap, err := parseSnapshot(body)
	if err != nil {
		c.metrics.GatewayRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if snap.Empty() {
		c.metrics.GatewayRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.GatewayRequests.WithLabelValues("success").Inc()
	}
	c.logger.Debug("gateway request completed",
		"provider", provider,
		"attempts", attempts,
		"ports", len(snap),
		"duration", time.Since(start),
	)
	return snap, nil
}

func (c *Client) newBackOff(ctx context.Context, timeout time.Duration) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialBackoff
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = timeout
	var b backoff.BackOff = exp
	if c.retries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(c.retries))
	}
	return backoff.WithContext(b, ctx)
}

// doRequest performs one HTTP round trip. Non-retryable failures are
// wrapped with backoff.Permanent.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("current conditions request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// parseSnapshot turns a gateway response into ports. Top-level members
// become ports, nested objects are flattened as parent_child, null values
// and arrays are dropped. An empty body or a JSON null is an empty snapshot.
func parseSnapshot(body []byte) (domain.Snapshot, error) {
	body = bytes.TrimSpace(body)
	snap := domain.Snapshot{}
	if len(body) == 0 {
		return snap, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("decode response: invalid JSON")
	}
	res := gjson.ParseBytes(body)
	if res.Type == gjson.Null {
		return snap, nil
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("decode response: expected a JSON object, got %s", res.Type)
	}
	flatten("", res, snap)
	return snap, nil
}

func flatten(prefix string, obj gjson.Result, snap domain.Snapshot) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch value.Type {
		case gjson.Number:
			snap[name] = value.Float()
		case gjson.String:
			snap[name] = value.String()
		case gjson.True, gjson.False:
			snap[name] = value.Bool()
		case gjson.JSON:
			if value.IsObject() {
				flatten(name, value, snap)
			}
		}
		return true
	})
}
