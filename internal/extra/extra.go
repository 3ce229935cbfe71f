// Package extra stores data derived from declarations during the documentables
// stage. Declarations stay immutable; anything computed about them is attached
// here, keyed by a typed key and the declaration's DRI.
package extra

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Key names one kind of derived data. The type parameter ties the key to the
// value type stored under it.
type Key[T any] struct {
	name string
}

// NewKey declares a key. Names must be unique per process.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) String() string { return k.name }

type slot struct {
	key string
	dri string
}

// Store is a concurrency-safe write-once map. A value for a (key, DRI) pair can
// be set exactly once; later writes are rejected.
type Store struct {
	mu     sync.RWMutex
	values map[slot]any
	sealed bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[slot]any)}
}

// Set stores v for dri under k. It fails if a value is already present or the
// store has been sealed.
func Set[T any](s *Store, k Key[T], dri model.DRI, v T) error {
	sl := slot{key: k.name, dri: dri.String()}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return errors.PipelineError("extra store is sealed").
			WithContext("key", k.name).
			WithContext("dri", sl.dri).
			Build()
	}
	if _, exists := s.values[sl]; exists {
		return errors.PipelineError(fmt.Sprintf("%s already set", k.name)).
			WithContext("key", k.name).
			WithContext("dri", sl.dri).
			Build()
	}
	s.values[sl] = v
	return nil
}

// Get returns the value stored for dri under k.
func Get[T any](s *Store, k Key[T], dri model.DRI) (T, bool) {
	s.mu.RLock()
	v, ok := s.values[slot{key: k.name, dri: dri.String()}]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Has reports whether a value is stored for dri under k.
func Has[T any](s *Store, k Key[T], dri model.DRI) bool {
	_, ok := Get(s, k, dri)
	return ok
}

// Seal rejects all further writes. The pipeline seals the store once the
// documentables stage finishes.
func (s *Store) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
