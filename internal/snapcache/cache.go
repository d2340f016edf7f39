// Package snapcache is a read-through TTL cache over stored upstream
// snapshots. Callers get the freshest stored payload when one is inside its
// TTL, otherwise the fetch function runs and its result is persisted before
// being returned. Upstreams stay shielded from per-request traffic without
// any in-process state to lose on restart.
package snapcache

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/powderline/internal/metrics"
	"github.com/lox/powderline/internal/models"
)

// Default TTLs per snapshot source. Weather models update hourly at most,
// radar frames every few minutes, resort photos effectively never.
const (
	WeatherTTL = time.Hour
	RadarTTL   = 5 * time.Minute
	PhotoTTL   = 7 * 24 * time.Hour
)

// SnapshotStore is the persistence half of the cache.
type SnapshotStore interface {
	LatestSnapshot(resortID int64, source string) (*models.ForecastSnapshot, error)
	InsertSnapshot(snap *models.ForecastSnapshot) error
}

type Cache struct {
	store SnapshotStore
	now   func() time.Time
}

func New(store SnapshotStore) *Cache {
	return &Cache{store: store, now: time.Now}
}

// GetOrFetch returns the cached payload for (resortID, source) if it has not
// expired, otherwise runs fetch, stores the fresh payload with the given TTL
// and returns it. A fetch failure with a stale snapshot on hand falls back
// to the stale payload rather than erroring.
func (c *Cache) GetOrFetch(ctx context.Context, resortID int64, source string, ttl time.Duration, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	snap, _, err := c.GetOrFetchSnapshot(ctx, resortID, source, ttl, fetch)
	if err != nil {
		return nil, err
	}
	return snap.Payload, nil
}

// GetOrFetchSnapshot is GetOrFetch for callers that also need the stored
// snapshot row, such as when derived rows are regenerated from a fresh
// payload. fresh reports whether the snapshot was fetched and stored on this
// call rather than served from cache or stale fallback.
func (c *Cache) GetOrFetchSnapshot(ctx context.Context, resortID int64, source string, ttl time.Duration, fetch func(ctx context.Context) ([]byte, error)) (*models.ForecastSnapshot, bool, error) {
	snap, err := c.store.LatestSnapshot(resortID, source)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", source, err)
	}

	now := c.now()
	if snap != nil && now.Before(snap.ExpiresAt) {
		metrics.SnapshotCacheHits.WithLabelValues(source, "hit").Inc()
		return snap, false, nil
	}
	metrics.SnapshotCacheHits.WithLabelValues(source, "miss").Inc()

	payload, err := fetch(ctx)
	if err != nil {
		if snap != nil {
			metrics.SnapshotCacheHits.WithLabelValues(source, "stale").Inc()
			return snap, false, nil
		}
		return nil, false, err
	}

	fresh := &models.ForecastSnapshot{
		ResortID:  resortID,
		Source:    source,
		Payload:   payload,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.InsertSnapshot(fresh); err != nil {
		return nil, false, fmt.Errorf("store snapshot %s: %w", source, err)
	}
	return fresh, true, nil
}
