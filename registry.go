package observed

import (
	"runtime"
	"sync/atomic"
	"weak"

	"github.com/go-logr/logr"
	"github.com/go4org/hashtriemap"
)

// Observable is implemented by objects that own their Broadcaster. The
// registry hands out that broadcaster instead of tracking one itself.
type Observable[T any] interface {
	ObjectDidChange() *Broadcaster[T]
}

// Registry associates one Broadcaster with each observed object without
// keeping the object alive. Entries are keyed by weak pointer, so an entry
// for a collected object can never be looked up again; a runtime cleanup
// removes it from the map afterwards.
type Registry struct {
	entries hashtriemap.HashTrieMap[any, any]
	size    atomic.Int64
	logger  logr.Logger
	obs     Observability
}

type RegistryOption func(*Registry)

func WithLogger(logger logr.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithObservability(obs Observability) RegistryOption {
	return func(r *Registry) {
		if obs == nil {
			return
		}
		r.obs = obs
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger: logr.Discard(),
		obs:    noopObservability{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry atomic.Pointer[Registry]

func init() {
	defaultRegistry.Store(NewRegistry())
}

// Default returns the registry used by the package level functions.
func Default() *Registry {
	return defaultRegistry.Load()
}

// SetDefault replaces the registry used by the package level functions, for
// example with one built WithLogger or WithObservability. Broadcasters handed
// out by the previous default are not moved; call it before observing.
func SetDefault(r *Registry) {
	if r == nil {
		return
	}
	defaultRegistry.Store(r)
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return int(r.size.Load())
}

type registryEntry struct {
	key         any
	broadcaster any
	objectType  string
}

// BroadcasterOf returns the Broadcaster of obj, creating and registering one
// on first use. Concurrent callers for the same object always get the same
// Broadcaster.
func BroadcasterOf[T any](r *Registry, obj *T) *Broadcaster[T] {
	if obj == nil {
		panic("observed: broadcaster for nil object")
	}
	if o, ok := any(obj).(Observable[T]); ok {
		return o.ObjectDidChange()
	}

	key := weak.Make(obj)
	if b, ok := r.entries.Load(key); ok {
		return b.(*Broadcaster[T])
	}

	created := newBroadcaster(obj, r.logger, r.obs)
	actual, loaded := r.entries.LoadOrStore(key, created)
	if loaded {
		return actual.(*Broadcaster[T])
	}

	r.size.Add(1)
	runtime.AddCleanup(obj, r.evict, registryEntry{
		key:         key,
		broadcaster: created,
		objectType:  created.objectType,
	})
	r.logger.V(1).Info("broadcaster created", "type", created.objectType)
	return created
}

// lookup never creates an entry.
func lookup[T any](r *Registry, obj *T) (*Broadcaster[T], bool) {
	if obj == nil {
		return nil, false
	}
	if o, ok := any(obj).(Observable[T]); ok {
		return o.ObjectDidChange(), true
	}
	b, ok := r.entries.Load(weak.Make(obj))
	if !ok {
		return nil, false
	}
	return b.(*Broadcaster[T]), true
}

func (r *Registry) evict(e registryEntry) {
	if r.entries.CompareAndDelete(e.key, e.broadcaster) {
		r.size.Add(-1)
		r.logger.V(1).Info("broadcaster released", "type", e.objectType)
	}
}
