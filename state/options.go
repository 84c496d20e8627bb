package state

type StoreType int

const (
	InMemory StoreType = iota
	BoltDB
)

func (t StoreType) String() string {
	switch t {
	case InMemory:
		return "memory"
	case BoltDB:
		return "boltdb"
	default:
		return "unknown"
	}
}

// config is resolved once by NewKeyValueStore and read by the backends.
type config[K, V any] struct {
	keySerde   Serde[K]
	valueSerde Serde[V]
	storeType  StoreType
	dir        string
	bucket     string
}

func newConfig[K, V any](opts ...Option[K, V]) *config[K, V] {
	c := &config[K, V]{
		keySerde:   defaultKeySerde[K](),
		valueSerde: JSONSerde[V](),
		storeType:  InMemory,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultKeySerde keeps string keys as raw bytes, so mirrored keys read the
// same in a bolt bucket as in code. Other key types are json encoded.
func defaultKeySerde[K any]() Serde[K] {
	if s, ok := any(StringSerde).(Serde[K]); ok {
		return s
	}
	return JSONSerde[K]()
}

type Option[K, V any] func(*config[K, V])

func WithKeySerde[K, V any](keySerde Serde[K]) Option[K, V] {
	return func(c *config[K, V]) {
		if keySerde == nil {
			return
		}
		c.keySerde = keySerde
	}
}

func WithValueSerde[K, V any](valueSerde Serde[V]) Option[K, V] {
	return func(c *config[K, V]) {
		if valueSerde == nil {
			return
		}
		c.valueSerde = valueSerde
	}
}

func WithInMemory[K, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.storeType = InMemory
	}
}

// WithBoltDB keeps the values in bucket of the bolt database under dir.
// Stores with the same dir share the database file.
func WithBoltDB[K, V any](dir, bucket string) Option[K, V] {
	return func(c *config[K, V]) {
		c.storeType = BoltDB
		c.dir = dir
		c.bucket = bucket
	}
}
