package observed

import (
	"container/list"
	"reflect"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/go-logr/logr"
)

// Listener is called with the changed object.
type Listener[T any] func(obj *T)

// Attachment is the handle of an attached Listener.
type Attachment[T any] struct {
	listener Listener[T]
	active   atomic.Bool
	elem     *list.Element
}

// Broadcaster multicasts "object changed" events for a single object.
//
// Listeners run synchronously on the goroutine calling Notify, in the order
// they were attached. Nothing is buffered: a listener attached after a
// Notify never sees that event. Listener and field accessor code run on the
// caller's stack; a panic there aborts the delivery and no listener after
// the panicking one is notified for that event.
//
// A Broadcaster only holds a weak reference to its object.
type Broadcaster[T any] struct {
	object     weak.Pointer[T]
	objectType string
	logger     logr.Logger
	obs        Observability

	mu        sync.Mutex
	listeners *list.List
}

var _ Publisher[*any] = &Broadcaster[any]{}

// NewBroadcaster creates a Broadcaster that is not tracked by any Registry.
// Objects implementing Observable use it to own their broadcaster.
func NewBroadcaster[T any](obj *T) *Broadcaster[T] {
	return newBroadcaster(obj, logr.Discard(), noopObservability{})
}

func newBroadcaster[T any](obj *T, logger logr.Logger, obs Observability) *Broadcaster[T] {
	if obj == nil {
		panic("observed: broadcaster for nil object")
	}
	objectType := reflect.TypeFor[*T]().String()
	return &Broadcaster[T]{
		object:     weak.Make(obj),
		objectType: objectType,
		logger:     logger.WithValues("type", objectType),
		obs:        obs,
		listeners:  list.New(),
	}
}

// Object returns the observed object, or nil once it has been collected.
func (b *Broadcaster[T]) Object() *T {
	return b.object.Value()
}

func (b *Broadcaster[T]) Attach(listener Listener[T]) *Attachment[T] {
	a := &Attachment[T]{listener: listener}
	a.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	a.elem = b.listeners.PushBack(a)
	return a
}

// Detach is idempotent and may be called from inside a listener while a
// Notify is in progress.
func (b *Broadcaster[T]) Detach(a *Attachment[T]) {
	if a == nil || !a.active.CompareAndSwap(true, false) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners.Remove(a.elem)
}

func (b *Broadcaster[T]) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listeners.Len()
}

// Notify delivers the object to every listener attached when the call
// started. Listeners detached during the delivery are skipped.
func (b *Broadcaster[T]) Notify() {
	obj := b.object.Value()
	if obj == nil {
		return
	}

	b.mu.Lock()
	snapshot := make([]*Attachment[T], 0, b.listeners.Len())
	for e := b.listeners.Front(); e != nil; e = e.Next() {
		snapshot = append(snapshot, e.Value.(*Attachment[T]))
	}
	b.mu.Unlock()

	done := b.obs.OnNotify(b.objectType, len(snapshot))
	defer done()

	for _, a := range snapshot {
		if a.active.Load() {
			a.listener(obj)
		}
	}
}

// Subscribe makes the Broadcaster a Publisher of its object.
func (b *Broadcaster[T]) Subscribe(s Subscriber[*T]) {
	newPublisher(b, "objectDidChange", b.stream()).Subscribe(s)
}

func (b *Broadcaster[T]) stream() stream[*T] {
	return func(emit Processor[*T]) func() {
		a := b.Attach(Listener[T](emit))
		return func() {
			b.Detach(a)
		}
	}
}
