// Package idset collects identifiers pushed by concurrent workers into
// deduplicated sets.
package idset

import (
	"cmp"
	"slices"
)

// Set is a deduplicated collection of identifiers of one kind.
type Set[T cmp.Ordered] map[T]struct{}

// Of builds a set from the given ids.
func Of[T cmp.Ordered](ids ...T) Set[T] {
	s := make(Set[T], len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set[T]) Add(id T) { s[id] = struct{}{} }

// Contains reports whether id is in the set.
func (s Set[T]) Contains(id T) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s Set[T]) Len() int { return len(s) }

// Union returns a new set holding the ids of s and o.
func (s Set[T]) Union(o Set[T]) Set[T] {
	u := make(Set[T], len(s)+len(o))
	for id := range s {
		u.Add(id)
	}
	for id := range o {
		u.Add(id)
	}
	return u
}

// Sorted returns the ids in ascending order.
func (s Set[T]) Sorted() []T {
	ids := make([]T, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
