// Package mapset provides a small hash-set container used for UID sets and
// diagnostic bookkeeping.
package mapset

import "iter"

// MapSet is a mutable set of comparable values backed by a map.
// The zero value is not usable; construct with Make or FromSlice.
type MapSet[T comparable] struct {
	m map[T]struct{}
}

// Make returns an empty MapSet.
func Make[T comparable]() *MapSet[T] {
	return &MapSet[T]{m: map[T]struct{}{}}
}

// FromSlice returns a MapSet containing the distinct values in s.
func FromSlice[T comparable](s []T) *MapSet[T] {
	ms := &MapSet[T]{m: make(map[T]struct{}, len(s))}
	for _, v := range s {
		ms.m[v] = struct{}{}
	}
	return ms
}

// Add inserts v and returns true if it was not already present.
func (s *MapSet[T]) Add(v T) bool {
	_, exists := s.m[v]
	s.m[v] = struct{}{}
	return !exists
}

// Remove deletes v and returns true if it was present.
func (s *MapSet[T]) Remove(v T) bool {
	_, exists := s.m[v]
	delete(s.m, v)
	return exists
}

// Contains reports whether v is in the set.
func (s *MapSet[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[v]
	return ok
}

// Len returns the number of values in the set.
func (s *MapSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Slice returns the values in the set in unspecified order.
func (s *MapSet[T]) Slice() []T {
	if s == nil {
		return nil
	}
	res := make([]T, 0, len(s.m))
	for v := range s.m {
		res = append(res, v)
	}
	return res
}

// All returns an iterator over the values in the set.
func (s *MapSet[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for v := range s.m {
			if !yield(v) {
				return
			}
		}
	}
}

// Intersects reports whether the two sets share any value.
func (s *MapSet[T]) Intersects(o *MapSet[T]) bool {
	small, large := s, o
	if large.Len() < small.Len() {
		small, large = large, small
	}
	for v := range small.All() {
		if large.Contains(v) {
			return true
		}
	}
	return false
}
