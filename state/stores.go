package state

import (
	"github.com/juju/errors"
)

// KeyValueStore keeps the latest value per key. Get returns an error
// satisfying errors.Is(err, errors.NotFound) for unknown keys.
type KeyValueStore[K, V any] interface {
	Get(key K) (V, error)
	Put(key K, value V) error
	Delete(key K) error
	Close() error
}

func NewKeyValueStore[K, V any](opts ...Option[K, V]) (KeyValueStore[K, V], error) {
	c := newConfig(opts...)
	switch c.storeType {
	case InMemory:
		return newMemKeyValueStore(c), nil
	case BoltDB:
		kvs, err := newBoltDBKeyValueStore(c)
		return kvs, errors.Trace(err)
	default:
		return nil, errors.NotValidf("store type %v", c.storeType)
	}
}
