// Package symbols provides generic name scopes for model entities.
package symbols

import (
	"cmp"
	"slices"

	"github.com/retroenv/retrosvd/internal/device"
)

// Scope tracks uniquely named items in declaration order.
// T is the type of entity being managed (e.g., *device.Register).
type Scope[T any] struct {
	name string

	order []string
	items map[string]T
}

// New creates a new scope, the name is used in error messages.
func New[T any](name string) *Scope[T] {
	return &Scope[T]{
		name:  name,
		items: make(map[string]T),
	}
}

// Name returns the name of the scope.
func (s *Scope[T]) Name() string {
	return s.name
}

// Add adds a new item, reusing a name returns a *device.DuplicateNameError.
func (s *Scope[T]) Add(name string, item T) error {
	if _, ok := s.items[name]; ok {
		return &device.DuplicateNameError{Scope: s.name, Name: name}
	}
	s.order = append(s.order, name)
	s.items[name] = item
	return nil
}

// Get returns the item with the given name.
func (s *Scope[T]) Get(name string) (T, bool) {
	item, ok := s.items[name]
	return item, ok
}

// Has returns whether an item with the given name exists.
func (s *Scope[T]) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Len returns the number of items in the scope.
func (s *Scope[T]) Len() int {
	return len(s.order)
}

// Names returns all names in declaration order.
func (s *Scope[T]) Names() []string {
	return append([]string(nil), s.order...)
}

// Items returns all items in declaration order.
func (s *Scope[T]) Items() []T {
	items := make([]T, 0, len(s.order))
	for _, name := range s.order {
		items = append(items, s.items[name])
	}
	return items
}

// SortedByUint64 returns all items sorted by a uint64 key, items with equal
// keys keep their declaration order.
func (s *Scope[T]) SortedByUint64(keyFunc func(T) uint64) []T {
	items := s.Items()
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	})
	return items
}
