package property

type options interface {
	SetInitial(initial bool)
}

type Option func(options)

// WithInitial publishes the value at subscription time before any change.
// This is the default.
func WithInitial() Option {
	return func(o options) {
		o.SetInitial(true)
	}
}

// WithoutInitial publishes changes only.
func WithoutInitial() Option {
	return func(o options) {
		o.SetInitial(false)
	}
}
