package observed

import (
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
	"weak"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRegistry_SameObjectSameBroadcaster(t *testing.T) {
	r := NewRegistry()
	m1 := &message{value: "one"}
	m2 := &message{value: "two"}

	b1 := BroadcasterOf(r, m1)
	assert.Same(t, b1, BroadcasterOf(r, m1))
	assert.NotSame(t, b1, BroadcasterOf(r, m2))
	assert.Same(t, m1, b1.Object())
	assert.Equal(t, 2, r.Len())
	runtime.KeepAlive(m2)
}

func TestRegistry_ConcurrentBroadcasterOf(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry()
	m := &message{}

	const goroutines = 64
	got := make([]*Broadcaster[message], goroutines)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got[i] = BroadcasterOf(r, m)
		}()
	}
	close(start)
	wg.Wait()

	for _, b := range got {
		assert.Same(t, got[0], b)
	}
	assert.Equal(t, 1, r.Len())
	runtime.KeepAlive(m)
}

func TestRegistry_DoesNotKeepObjectsAlive(t *testing.T) {
	r := NewRegistry()

	const objects = 10000
	refs := make([]weak.Pointer[message], 0, objects)
	strong := make([]*message, 0, objects)
	for i := 0; i < objects; i++ {
		m := &message{value: "transient"}
		BroadcasterOf(r, m).Attach(func(*message) {})
		refs = append(refs, weak.Make(m))
		strong = append(strong, m)
	}
	require.Equal(t, objects, r.Len())
	// strong is dead from here on.
	runtime.KeepAlive(strong)

	require.Eventually(t, func() bool {
		runtime.GC()
		for _, ref := range refs {
			if ref.Value() != nil {
				return false
			}
		}
		return r.Len() == 0
	}, 10*time.Second, 20*time.Millisecond)
}

func TestRegistry_Observable(t *testing.T) {
	r := NewRegistry()
	d := newDocument("draft")

	assert.Same(t, d.changes, BroadcasterOf(r, d))
	assert.Equal(t, 0, r.Len())

	b, ok := lookup(r, d)
	assert.True(t, ok)
	assert.Same(t, d.changes, b)
}

func TestRegistry_ObservableNotify(t *testing.T) {
	d := newDocument("draft")

	var titles []string
	sub := Sink(Property(d, NewField("title", func(d *document) string { return d.title })), func(v string) {
		titles = append(titles, v)
	})
	defer sub.Cancel()

	Set(d, &d.title, "final")
	assert.Equal(t, []string{"draft", "final"}, titles)
}

func TestRegistry_NotifyDoesNotRegister(t *testing.T) {
	m := &message{}
	Set(m, &m.value, "unobserved")
	Notify(m)

	_, ok := lookup(Default(), m)
	assert.False(t, ok)

	ObjectDidChange(m)
	_, ok = lookup(Default(), m)
	assert.True(t, ok)
}

func TestRegistry_NilObject(t *testing.T) {
	assert.Panics(t, func() {
		BroadcasterOf[message](NewRegistry(), nil)
	})
	assert.NotPanics(t, func() {
		Notify[message](nil)
	})
}

func TestRegistry_Logs(t *testing.T) {
	var (
		mu   sync.Mutex
		logs []string
	)
	logger := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, args)
	}, funcr.Options{Verbosity: 1})

	r := NewRegistry(WithLogger(logger))
	BroadcasterOf(r, &message{})

	require.Eventually(t, func() bool {
		runtime.GC()
		mu.Lock()
		defer mu.Unlock()
		return strings.Contains(strings.Join(logs, "\n"), "broadcaster released")
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, logs[0], `"msg"="broadcaster created"`)
	assert.Contains(t, logs[0], `"type"="*observed.message"`)
}

func TestRegistry_WithObservability(t *testing.T) {
	obs := newRecordingObservability()
	r := NewRegistry(WithObservability(obs), WithObservability(nil))

	m := &message{}
	b := BroadcasterOf(r, m)
	b.Notify()
	b.Notify()
	runtime.KeepAlive(m)

	assert.Equal(t, 2, obs.count(obs.notifies, "*observed.message"))
	assert.Equal(t, 2, obs.finished)
}

func TestRegistry_SetIn(t *testing.T) {
	r := NewRegistry()
	m := &message{value: "a"}

	var got []string
	sub := Sink(PropertyOf(BroadcasterOf(r, m), messageValue), func(v string) {
		got = append(got, v)
	})
	defer sub.Cancel()

	SetIn(r, m, &m.value, "b")
	UpdateIn(r, m, func(m *message) { m.value = "c" })
	m.value = "d"
	NotifyIn(r, m)
	// the default registry does not know the object.
	Set(m, &m.value, "e")

	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRegistry_SetDefault(t *testing.T) {
	previous := Default()
	t.Cleanup(func() { SetDefault(previous) })

	obs := newRecordingObservability()
	r := NewRegistry(WithObservability(obs))
	SetDefault(r)
	SetDefault(nil)
	require.Same(t, r, Default())

	m := &message{value: "a"}
	var got []string
	sub := Sink(Property(m, messageValue), func(v string) {
		got = append(got, v)
	})
	defer sub.Cancel()

	Set(m, &m.value, "b")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, obs.count(obs.delivered, "value"))
	assert.Equal(t, 1, obs.count(obs.notifies, "*observed.message"))
}
