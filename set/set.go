// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package set implements a generic set data structure. It backs the
// block-production domain's signer-index and node-id membership
// bookkeeping (bkset, blockstate, envelope, attestation) in place of the
// map[T]struct{} idiom those packages would otherwise hand-roll.
package set

import (
	"golang.org/x/exp/maps"
)

// Set is a set of unique elements.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with [elts].
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	s.Add(elts...)
	return s
}

// Add adds elements to the set.
func (s Set[T]) Add(elts ...T) {
	for _, elt := range elts {
		s[elt] = struct{}{}
	}
}

// Contains returns true if the set contains the element.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Remove removes elements from the set.
func (s Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(s, elt)
	}
}

// Clear removes all elements from the set.
func (s Set[T]) Clear() {
	maps.Clear(s)
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns the elements of the set as a slice.
// The order is non-deterministic.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// Equals returns true if the sets contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// Clone returns a copy of the set.
func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], s.Len())
	maps.Copy(result, s)
	return result
}
