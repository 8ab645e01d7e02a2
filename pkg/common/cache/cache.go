package cache

// LocalCache defines the interface for in-memory local cache operations.
type LocalCache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, cost int64) bool
	Delete(key K)
	Clear()
	Close()
}
