package domain

import (
	"context"
	"time"
)

// ProviderClient fetches current conditions from an upstream weather source.
type ProviderClient interface {
	// Configure binds the client to a provider, credential and location.
	// An unrecognised provider yields an error wrapping ErrUnknownProvider.
	Configure(provider, key string, loc LocationSpec, lang string, units Units) error

	// GetCurrent performs the network fetch. A zero timeout means the
	// client's default; a positive one bounds the whole round trip,
	// retries included.
	GetCurrent(ctx context.Context, timeout time.Duration) (Snapshot, error)
}

// CacheStore holds snapshots per adapter instance. Expiry and eviction are
// the store's business.
type CacheStore interface {
	Get(key string) (Snapshot, bool)
	Set(key string, snap Snapshot)
}
