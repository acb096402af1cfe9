// Package registry owns driver and rider entities and allocates their
// sequential identifiers. Registries are not safe for concurrent use; the
// simulation engine serializes access.
package registry

import "sort"

// table is an id-keyed collection with a monotonic id counter.
type table[K ~int, V any] struct {
	next K
	data map[K]V
}

func newTable[K ~int, V any]() table[K, V] {
	return table[K, V]{next: 1, data: make(map[K]V)}
}

func (t *table[K, V]) allocate() K {
	id := t.next
	t.next++
	return id
}

func (t *table[K, V]) get(id K) (V, bool) {
	v, ok := t.data[id]
	return v, ok
}

func (t *table[K, V]) remove(id K) (V, bool) {
	v, ok := t.data[id]
	if ok {
		delete(t.data, id)
	}
	return v, ok
}

// ids returns the keys in ascending order.
func (t *table[K, V]) ids() []K {
	out := make([]K, 0, len(t.data))
	for id := range t.data {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *table[K, V]) reset() {
	t.next = 1
	t.data = make(map[K]V)
}
