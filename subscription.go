package observed

import (
	"sync"

	"github.com/go-logr/logr"
)

type subscriptionState int

const (
	unrequested subscriptionState = iota
	active
	exhausted
	cancelled
)

func (s subscriptionState) String() string {
	switch s {
	case unrequested:
		return "unrequested"
	case active:
		return "active"
	case exhausted:
		return "exhausted"
	case cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func newDemandSubscription[V any](name string, upstream stream[V], subscriber Subscriber[V], logger logr.Logger, obs Observability) *demandSubscription[V] {
	return &demandSubscription[V]{
		name:       name,
		upstream:   upstream,
		subscriber: subscriber,
		logger:     logger.WithValues("stream", name),
		obs:        obs,
	}
}

// demandSubscription turns the push based upstream into a demand limited
// delivery. Upstream is attached on the first positive Request. Values that
// arrive while demand is zero are dropped, never buffered.
//
// The lock is never held while calling the subscriber or upstream, so the
// subscriber may Request, Cancel or write observed fields from OnNext.
type demandSubscription[V any] struct {
	name       string
	upstream   stream[V]
	subscriber Subscriber[V]
	logger     logr.Logger
	obs        Observability

	mu     sync.Mutex
	state  subscriptionState
	demand Demand
	detach func()
}

var _ Subscription = &demandSubscription[any]{}

func (s *demandSubscription[V]) Request(n Demand) {
	if n <= None {
		s.logger.V(2).Info("ignoring non-positive demand", "demand", int64(n))
		return
	}

	s.mu.Lock()
	if s.state == exhausted || s.state == cancelled {
		s.mu.Unlock()
		return
	}
	s.demand = s.demand.add(n)
	if s.state == active {
		s.mu.Unlock()
		return
	}
	s.state = active
	s.mu.Unlock()

	detach := s.upstream(s.receive)

	// upstream may have emitted synchronously and exhausted the demand, or
	// the subscriber may have cancelled, before detach was known.
	s.mu.Lock()
	if s.state == active {
		s.detach, detach = detach, nil
	}
	s.mu.Unlock()
	if detach != nil {
		detach()
	}
}

func (s *demandSubscription[V]) Cancel() {
	s.mu.Lock()
	if s.state == exhausted || s.state == cancelled {
		s.mu.Unlock()
		return
	}
	s.state = cancelled
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
	s.obs.OnCancel(s.name)
}

func (s *demandSubscription[V]) receive(v V) {
	s.mu.Lock()
	if s.state != active {
		s.mu.Unlock()
		return
	}
	if s.demand == None {
		s.mu.Unlock()
		s.logger.V(2).Info("dropping value, no outstanding demand")
		s.obs.OnDrop(s.name)
		return
	}
	if s.demand != Unlimited {
		s.demand--
	}
	s.mu.Unlock()

	s.subscriber.OnNext(v)
	s.obs.OnDeliver(s.name)

	// demand requested from inside OnNext keeps the subscription active.
	s.mu.Lock()
	if s.state != active || s.demand != None {
		s.mu.Unlock()
		return
	}
	s.state = exhausted
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
	s.subscriber.OnComplete()
	s.obs.OnComplete(s.name)
}
