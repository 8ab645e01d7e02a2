package cache

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

var _ LocalCache[uint64, any] = (*Ristretto[uint64, any])(nil)

// Config holds cache sizing.
type Config struct {
	MaxCost     int64
	NumCounters int64
	BufferItems int64
}

// Ristretto is a LocalCache backed by an admission-controlled TinyLFU cache.
// Sets are applied asynchronously; call Wait to observe them.
type Ristretto[K ristretto.Key, V any] struct {
	c *ristretto.Cache[K, V]
}

// NewRistretto creates a cache, defaulting unset sizes.
func NewRistretto[K ristretto.Key, V any](cfg Config) (*Ristretto[K, V], error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1 << 16
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = cfg.MaxCost * 10
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}

	c, err := ristretto.NewCache(&ristretto.Config[K, V]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cache: create ristretto")
	}
	return &Ristretto[K, V]{c: c}, nil
}

func (r *Ristretto[K, V]) Get(key K) (V, bool) { return r.c.Get(key) }

func (r *Ristretto[K, V]) Set(key K, value V, cost int64) bool {
	return r.c.Set(key, value, cost)
}

func (r *Ristretto[K, V]) Delete(key K) { r.c.Del(key) }

func (r *Ristretto[K, V]) Clear() { r.c.Clear() }

func (r *Ristretto[K, V]) Close() { r.c.Close() }

// Wait blocks until pending sets are applied.
func (r *Ristretto[K, V]) Wait() { r.c.Wait() }
