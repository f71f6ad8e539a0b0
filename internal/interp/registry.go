package interp

// registry assigns stable display ids to mutable values. Ids are
// monotonic in order of first observation, never reused, and survive for
// the life of the interpreter, so two events mentioning the same object
// carry the same id even if the object was mutated in between.
type registry struct {
	next int64
	ids  map[Value]int64
}

func newRegistry() registry {
	return registry{next: 1, ids: make(map[Value]int64)}
}

// id returns the display id for a mutable value, allocating one on first
// sight. Only pointer values should be passed.
func (r *registry) id(v Value) int64 {
	if id, ok := r.ids[v]; ok {
		return id
	}
	id := r.next
	r.next++
	r.ids[v] = id
	return id
}
