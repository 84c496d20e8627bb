package observed

// Observability receives lifecycle events from broadcasters and subscriptions.
// Implementations are called synchronously on the notifying goroutine and
// must not call back into the publisher that reported the event.
type Observability interface {
	// OnNotify is called before a broadcaster delivers to its listeners.
	// The returned func is called once delivery has finished.
	OnNotify(objectType string, listeners int) func()
	// OnDeliver is called after a value has been handed to a subscriber.
	OnDeliver(stream string)
	// OnDrop is called when a value arrives while the subscriber has no
	// outstanding demand.
	OnDrop(stream string)
	OnComplete(stream string)
	OnCancel(stream string)
}

type noopObservability struct{}

var _ Observability = noopObservability{}

func (noopObservability) OnNotify(string, int) func() { return func() {} }
func (noopObservability) OnDeliver(string)            {}
func (noopObservability) OnDrop(string)               {}
func (noopObservability) OnComplete(string)           {}
func (noopObservability) OnCancel(string)             {}
