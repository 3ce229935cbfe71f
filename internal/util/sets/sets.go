// Package sets holds a minimal generic set.
package sets

// Set is a hash set for comparable keys.
type Set[T comparable] map[T]struct{}

// New creates a set holding vals.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was missing.
func (s Set[T]) Add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Union appends the values of b missing from a, keeping first-seen order.
func Union[T comparable](a, b []T) []T {
	seen := New(a...)
	for _, v := range b {
		if seen.Add(v) {
			a = append(a, v)
		}
	}
	return a
}
