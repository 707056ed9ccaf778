// Package roster keeps the people of a university: students with their grades
// and instructors with their enrollment counts, each keyed by CWID.
package roster

// Keyed is implemented by entities that can live in a Store.
type Keyed interface {
	Key() string
}

// Store is an in-memory keyed collection that remembers insertion order.
// A replaced entity keeps the slot of the one it replaced.
type Store[T Keyed] struct {
	items map[string]int
	order []T
}

// NewStore returns an empty store.
func NewStore[T Keyed]() *Store[T] {
	return &Store[T]{items: make(map[string]int)}
}

// Put inserts v, replacing any entity with the same key.
func (s *Store[T]) Put(v T) (replaced bool) {
	if i, ok := s.items[v.Key()]; ok {
		s.order[i] = v
		return true
	}
	s.items[v.Key()] = len(s.order)
	s.order = append(s.order, v)
	return false
}

// Get returns the entity stored under key.
func (s *Store[T]) Get(key string) (T, bool) {
	i, ok := s.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return s.order[i], true
}

// Has reports whether key is present.
func (s *Store[T]) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

func (s *Store[T]) Len() int { return len(s.order) }

// All returns every entity in insertion order. The slice is a copy.
func (s *Store[T]) All() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}
