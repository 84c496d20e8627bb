package observed

import "sync"

type Processor[T any] func(v T)

// ProcessorSupplier builds a fresh Processor each time a stream is
// activated, so per-activation state never leaks between subscriptions.
type ProcessorSupplier[T, TR any] interface {
	Processor(forwards ...Processor[TR]) Processor[T]
}

// -------------------------------

func newFallThroughProcessorSupplier[T any]() *fallThroughProcessorSupplier[T] {
	return &fallThroughProcessorSupplier[T]{}
}

type fallThroughProcessorSupplier[T any] struct {
}

var _ ProcessorSupplier[any, any] = &fallThroughProcessorSupplier[any]{}

func (p *fallThroughProcessorSupplier[T]) Processor(forwards ...Processor[T]) Processor[T] {
	return func(v T) {
		for _, forward := range forwards {
			forward(v)
		}
	}
}

// -------------------------------

func newMapProcessorSupplier[T, TR any](mapper func(T) TR) *mapProcessorSupplier[T, TR] {
	return &mapProcessorSupplier[T, TR]{
		mapper: mapper,
	}
}

type mapProcessorSupplier[T, TR any] struct {
	mapper func(T) TR
}

var _ ProcessorSupplier[any, any] = &mapProcessorSupplier[any, any]{}

func (p *mapProcessorSupplier[T, TR]) Processor(forwards ...Processor[TR]) Processor[T] {
	return func(v T) {
		vr := p.mapper(v)
		for _, forward := range forwards {
			forward(vr)
		}
	}
}

// -------------------------------

func newRemoveDuplicatesProcessorSupplier[T any](equal func(T, T) bool) *removeDuplicatesProcessorSupplier[T] {
	return &removeDuplicatesProcessorSupplier[T]{
		equal: equal,
	}
}

// removeDuplicatesProcessorSupplier drops a value equal to the one forwarded
// immediately before it. The first value of an activation is always forwarded.
type removeDuplicatesProcessorSupplier[T any] struct {
	equal func(T, T) bool
}

var _ ProcessorSupplier[any, any] = &removeDuplicatesProcessorSupplier[any]{}

func (p *removeDuplicatesProcessorSupplier[T]) Processor(forwards ...Processor[T]) Processor[T] {
	var (
		mu     sync.Mutex
		last   T
		seeded bool
	)
	return func(v T) {
		mu.Lock()
		if seeded && p.equal(last, v) {
			mu.Unlock()
			return
		}
		last, seeded = v, true
		mu.Unlock()

		for _, forward := range forwards {
			forward(v)
		}
	}
}

// -------------------------------

func newDropFirstProcessorSupplier[T any](count int) *dropFirstProcessorSupplier[T] {
	return &dropFirstProcessorSupplier[T]{
		count: count,
	}
}

type dropFirstProcessorSupplier[T any] struct {
	count int
}

var _ ProcessorSupplier[any, any] = &dropFirstProcessorSupplier[any]{}

func (p *dropFirstProcessorSupplier[T]) Processor(forwards ...Processor[T]) Processor[T] {
	var (
		mu      sync.Mutex
		dropped int
	)
	return func(v T) {
		mu.Lock()
		if dropped < p.count {
			dropped++
			mu.Unlock()
			return
		}
		mu.Unlock()

		for _, forward := range forwards {
			forward(v)
		}
	}
}
