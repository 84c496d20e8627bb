package observed

import (
	"slices"
	"sync"
)

// stream is a cold sequence of values. Calling it attaches emit to the
// source and returns the func that detaches it again. Nothing runs until a
// stream is called.
type stream[T any] func(emit Processor[T]) (detach func())

// via routes s through a processor built by supplier. A new processor is
// built per activation.
func via[T, TR any](s stream[T], supplier ProcessorSupplier[T, TR]) stream[TR] {
	return func(emit Processor[TR]) func() {
		return s(supplier.Processor(emit))
	}
}

// just emits the value returned by current, if any, synchronously on attach.
func just[T any](current func() (T, bool)) stream[T] {
	return func(emit Processor[T]) func() {
		if v, ok := current(); ok {
			emit(v)
		}
		return func() {}
	}
}

// merge attaches streams in order. A stream attached later may emit
// synchronously on attach, after the earlier ones are already listening.
func merge[T any](streams ...stream[T]) stream[T] {
	return func(emit Processor[T]) func() {
		forward := newFallThroughProcessorSupplier[T]().Processor(emit)
		detaches := make([]func(), 0, len(streams))
		for _, s := range streams {
			detaches = append(detaches, s(forward))
		}
		return func() {
			for _, detach := range detaches {
				detach()
			}
		}
	}
}

// -------------------------------

// latest keeps the most recent value of every combined stream.
type latest struct {
	mu     sync.Mutex
	values []any
	filled []bool
	count  int
}

func newLatest(n int) *latest {
	return &latest{
		values: make([]any, n),
		filled: make([]bool, n),
	}
}

// set stores v in slot i and returns a copy of all slots once each slot has
// been filled at least once.
func (l *latest) set(i int, v any) ([]any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.filled[i] {
		l.filled[i] = true
		l.count++
	}
	l.values[i] = v
	if l.count < len(l.values) {
		return nil, false
	}
	return slices.Clone(l.values), true
}

func attachSlot[T any](s stream[T], l *latest, i int, forward func([]any)) func() {
	return s(func(v T) {
		if values, ok := l.set(i, v); ok {
			forward(values)
		}
	})
}

// slot converts a combined slot back to T. A nil interface yields T's zero value.
func slot[T any](v any) T {
	t, _ := v.(T)
	return t
}

func combineLatest2[T1, T2 any](s1 stream[T1], s2 stream[T2]) stream[Pair[T1, T2]] {
	return func(emit Processor[Pair[T1, T2]]) func() {
		l := newLatest(2)
		forward := func(values []any) {
			emit(NewPair(slot[T1](values[0]), slot[T2](values[1])))
		}
		detach1 := attachSlot(s1, l, 0, forward)
		detach2 := attachSlot(s2, l, 1, forward)
		return func() {
			detach1()
			detach2()
		}
	}
}

func combineLatest3[T1, T2, T3 any](s1 stream[T1], s2 stream[T2], s3 stream[T3]) stream[Tuple[T1, T2, T3]] {
	return func(emit Processor[Tuple[T1, T2, T3]]) func() {
		l := newLatest(3)
		forward := func(values []any) {
			emit(NewTuple(slot[T1](values[0]), slot[T2](values[1]), slot[T3](values[2])))
		}
		detach1 := attachSlot(s1, l, 0, forward)
		detach2 := attachSlot(s2, l, 1, forward)
		detach3 := attachSlot(s3, l, 2, forward)
		return func() {
			detach1()
			detach2()
			detach3()
		}
	}
}
