package observed

// Pair is the element of a two-property publisher.
type Pair[T1, T2 any] struct {
	First  T1
	Second T2
}

func NewPair[T1, T2 any](first T1, second T2) Pair[T1, T2] {
	return Pair[T1, T2]{
		First:  first,
		Second: second,
	}
}

// Tuple is the element of a three-property publisher.
type Tuple[T1, T2, T3 any] struct {
	First  T1
	Second T2
	Third  T3
}

func NewTuple[T1, T2, T3 any](first T1, second T2, third T3) Tuple[T1, T2, T3] {
	return Tuple[T1, T2, T3]{
		First:  first,
		Second: second,
		Third:  third,
	}
}
