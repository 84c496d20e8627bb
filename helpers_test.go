package observed

import (
	"sync"
)

type message struct {
	value  string
	author string
}

var (
	messageValue  = NewField("value", func(m *message) string { return m.value })
	messageAuthor = NewField("author", func(m *message) string { return m.author })
)

type numbers struct {
	first  int
	second int
	third  int
	label  string
}

var (
	numbersFirst  = NewField("first", func(n *numbers) int { return n.first })
	numbersSecond = NewField("second", func(n *numbers) int { return n.second })
	numbersThird  = NewField("third", func(n *numbers) int { return n.third })
)

// document owns its broadcaster instead of relying on a Registry.
type document struct {
	title   string
	changes *Broadcaster[document]
}

func newDocument(title string) *document {
	d := &document{title: title}
	d.changes = NewBroadcaster(d)
	return d
}

func (d *document) ObjectDidChange() *Broadcaster[document] {
	return d.changes
}

// -------------------------------

type spySubscriber[V any] struct {
	mu           sync.Mutex
	subscription Subscription
	values       []V
	completions  int
	onNext       func(s *spySubscriber[V], v V)
}

var _ Subscriber[any] = &spySubscriber[any]{}

func subscribe[V any](p Publisher[V]) *spySubscriber[V] {
	s := &spySubscriber[V]{}
	p.Subscribe(s)
	return s
}

func (s *spySubscriber[V]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscription = sub
}

func (s *spySubscriber[V]) OnNext(v V) {
	s.mu.Lock()
	s.values = append(s.values, v)
	onNext := s.onNext
	s.mu.Unlock()

	if onNext != nil {
		onNext(s, v)
	}
}

func (s *spySubscriber[V]) OnComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions++
}

func (s *spySubscriber[V]) Values() []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]V(nil), s.values...)
}

func (s *spySubscriber[V]) Completions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions
}

// -------------------------------

// manualSource is a stream whose values are sent by the test.
type manualSource[T any] struct {
	emit     Processor[T]
	attaches int
	detaches int
}

func (m *manualSource[T]) stream() stream[T] {
	return func(emit Processor[T]) func() {
		m.emit = emit
		m.attaches++
		return func() {
			m.emit = nil
			m.detaches++
		}
	}
}

func (m *manualSource[T]) send(v T) {
	if m.emit != nil {
		m.emit(v)
	}
}

// -------------------------------

type recordingObservability struct {
	mu        sync.Mutex
	notifies  map[string]int
	finished  int
	delivered map[string]int
	dropped   map[string]int
	completed map[string]int
	cancelled map[string]int
}

var _ Observability = &recordingObservability{}

func newRecordingObservability() *recordingObservability {
	return &recordingObservability{
		notifies:  map[string]int{},
		delivered: map[string]int{},
		dropped:   map[string]int{},
		completed: map[string]int{},
		cancelled: map[string]int{},
	}
}

func (o *recordingObservability) OnNotify(objectType string, _ int) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifies[objectType]++
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.finished++
	}
}

func (o *recordingObservability) record(m map[string]int, stream string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m[stream]++
}

func (o *recordingObservability) OnDeliver(stream string)  { o.record(o.delivered, stream) }
func (o *recordingObservability) OnDrop(stream string)     { o.record(o.dropped, stream) }
func (o *recordingObservability) OnComplete(stream string) { o.record(o.completed, stream) }
func (o *recordingObservability) OnCancel(stream string)   { o.record(o.cancelled, stream) }

func (o *recordingObservability) count(m map[string]int, key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return m[key]
}
