package observed

// Field names a readable value of T. get must be pure: it is called on every
// change of the object and for the initial value.
type Field[T, V any] struct {
	name string
	get  func(obj *T) V
}

func NewField[T, V any](name string, get func(obj *T) V) Field[T, V] {
	if get == nil {
		panic("observed: field " + name + " without accessor")
	}
	return Field[T, V]{name: name, get: get}
}

func (f Field[T, V]) Name() string {
	return f.name
}

func (f Field[T, V]) Get(obj *T) V {
	return f.get(obj)
}

// -------------------------------

// Set writes v to field, which must point into obj, and then notifies the
// observers of obj in the default registry.
func Set[T, V any](obj *T, field *V, v V) {
	SetIn(Default(), obj, field, v)
}

// SetIn is Set for objects observed through r.
func SetIn[T, V any](r *Registry, obj *T, field *V, v V) {
	*field = v
	NotifyIn(r, obj)
}

// Update applies mutate to obj and notifies once afterwards.
func Update[T any](obj *T, mutate func(obj *T)) {
	UpdateIn(Default(), obj, mutate)
}

func UpdateIn[T any](r *Registry, obj *T, mutate func(obj *T)) {
	mutate(obj)
	NotifyIn(r, obj)
}

// Notify tells the observers of obj that it changed. Objects nobody has
// observed yet are not registered.
func Notify[T any](obj *T) {
	NotifyIn(Default(), obj)
}

func NotifyIn[T any](r *Registry, obj *T) {
	if b, ok := lookup(r, obj); ok {
		b.Notify()
	}
}
