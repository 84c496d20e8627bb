package observed

import (
	"strings"

	"github.com/KumKeeHyun/observed/options/property"
	"github.com/go-logr/logr"
)

// Publisher is a cold stream of values. Subscribing does no work: upstream
// is attached when the subscriber first requests demand.
type Publisher[V any] interface {
	Subscribe(Subscriber[V])
}

type Subscriber[V any] interface {
	OnSubscribe(Subscription)
	OnNext(V)
	OnComplete()
}

type Subscription interface {
	Request(Demand)
	Cancel()
}

// -------------------------------

type publisher[V any] struct {
	name     string
	upstream stream[V]
	logger   logr.Logger
	obs      Observability
}

var _ Publisher[any] = &publisher[any]{}

func newPublisher[T, V any](b *Broadcaster[T], name string, upstream stream[V]) *publisher[V] {
	return &publisher[V]{
		name:     name,
		upstream: upstream,
		logger:   b.logger,
		obs:      b.obs,
	}
}

func (p *publisher[V]) Subscribe(s Subscriber[V]) {
	s.OnSubscribe(newDemandSubscription(p.name, p.upstream, s, p.logger, p.obs))
}

// -------------------------------

type sinkSubscriber[V any] struct {
	receive      func(V)
	subscription Subscription
}

func (s *sinkSubscriber[V]) OnSubscribe(sub Subscription) {
	s.subscription = sub
}

func (s *sinkSubscriber[V]) OnNext(v V) {
	s.receive(v)
}

func (s *sinkSubscriber[V]) OnComplete() {}

// Sink subscribes receive to p with unlimited demand. Cancel the returned
// Subscription to stop receiving.
func Sink[V any](p Publisher[V], receive func(V)) Subscription {
	s := &sinkSubscriber[V]{receive: receive}
	p.Subscribe(s)
	s.subscription.Request(Unlimited)
	return s.subscription
}

// -------------------------------

// ObjectDidChange returns the Broadcaster of obj from the default registry.
func ObjectDidChange[T any](obj *T) *Broadcaster[T] {
	return BroadcasterOf(Default(), obj)
}

// Changes publishes obj every time it is notified as changed.
func Changes[T any](obj *T) Publisher[*T] {
	return ObjectDidChange(obj)
}

func equal[V comparable](a, b V) bool {
	return a == b
}

// Property publishes the value of field whenever obj changes, skipping
// values equal to the previous one. By default the current value is
// published first; see property.WithoutInitial.
func Property[T any, V comparable](obj *T, field Field[T, V], opts ...property.Option) Publisher[V] {
	return PropertyOf(ObjectDidChange(obj), field, opts...)
}

func PropertyOf[T any, V comparable](b *Broadcaster[T], field Field[T, V], opts ...property.Option) Publisher[V] {
	return PropertyFuncOf(b, field, equal[V], opts...)
}

// PropertyFunc is Property for values that are not comparable with ==.
// equal reports whether two values are the same.
func PropertyFunc[T, V any](obj *T, field Field[T, V], equal func(V, V) bool, opts ...property.Option) Publisher[V] {
	return PropertyFuncOf(ObjectDidChange(obj), field, equal, opts...)
}

func PropertyFuncOf[T, V any](b *Broadcaster[T], field Field[T, V], equal func(V, V) bool, opts ...property.Option) Publisher[V] {
	opt := newPropertyOption(opts...)
	return newPublisher(b, field.name, fieldStream(b, field, equal, opt.Initial()))
}

// Properties2 publishes the latest values of two fields every time either
// of them changes. Nothing is published until both fields have a value.
func Properties2[T any, V1, V2 comparable](obj *T, f1 Field[T, V1], f2 Field[T, V2], opts ...property.Option) Publisher[Pair[V1, V2]] {
	return Properties2Of(ObjectDidChange(obj), f1, f2, opts...)
}

func Properties2Of[T any, V1, V2 comparable](b *Broadcaster[T], f1 Field[T, V1], f2 Field[T, V2], opts ...property.Option) Publisher[Pair[V1, V2]] {
	opt := newPropertyOption(opts...)
	combined := combineLatest2(
		fieldStream(b, f1, equal[V1], true),
		fieldStream(b, f2, equal[V2], true),
	)
	return newPublisher(b, combinedName(f1.name, f2.name), skipSnapshot(combined, opt.Initial()))
}

func Properties3[T any, V1, V2, V3 comparable](obj *T, f1 Field[T, V1], f2 Field[T, V2], f3 Field[T, V3], opts ...property.Option) Publisher[Tuple[V1, V2, V3]] {
	return Properties3Of(ObjectDidChange(obj), f1, f2, f3, opts...)
}

func Properties3Of[T any, V1, V2, V3 comparable](b *Broadcaster[T], f1 Field[T, V1], f2 Field[T, V2], f3 Field[T, V3], opts ...property.Option) Publisher[Tuple[V1, V2, V3]] {
	opt := newPropertyOption(opts...)
	combined := combineLatest3(
		fieldStream(b, f1, equal[V1], true),
		fieldStream(b, f2, equal[V2], true),
		fieldStream(b, f3, equal[V3], true),
	)
	return newPublisher(b, combinedName(f1.name, f2.name, f3.name), skipSnapshot(combined, opt.Initial()))
}

// fieldStream reads field on every change of b's object. With initial the
// value at activation time is emitted first and seeds the deduplication.
// Changes are attached before the initial value is read, so a write made
// while the initial value is delivered is not lost.
func fieldStream[T, V any](b *Broadcaster[T], field Field[T, V], equal func(V, V) bool, initial bool) stream[V] {
	changed := via[*T, V](b.stream(), newMapProcessorSupplier(field.get))
	if initial {
		changed = merge(changed, just(func() (V, bool) {
			obj := b.Object()
			if obj == nil {
				var zero V
				return zero, false
			}
			return field.get(obj), true
		}))
	}
	return via[V, V](changed, newRemoveDuplicatesProcessorSupplier(equal))
}

// skipSnapshot drops the tuple built from the initial values of a combined
// stream when the subscriber asked only for changes.
func skipSnapshot[T any](s stream[T], initial bool) stream[T] {
	if initial {
		return s
	}
	return via[T, T](s, newDropFirstProcessorSupplier[T](1))
}

func combinedName(names ...string) string {
	return strings.Join(names, ",")
}
