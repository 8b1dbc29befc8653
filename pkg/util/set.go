package util

import (
	"maps"
	"slices"
)

// Set is an unordered collection of distinct comparable values
type Set[K comparable] map[K]struct{}

// SetOf returns a Set holding the distinct values of elems
func SetOf[K comparable](elems ...K) Set[K] {
	res := make(Set[K], len(elems))
	res.Add(elems...)
	return res
}

// Add inserts each of the keys
func (s Set[K]) Add(keys ...K) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Remove deletes each of the keys
func (s Set[K]) Remove(keys ...K) {
	for _, k := range keys {
		delete(s, k)
	}
}

// Contains reports whether key is a member
func (s Set[K]) Contains(key K) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of members
func (s Set[K]) Len() int {
	return len(s)
}

// Items returns the members in no particular order. The result does not
// alias the Set
func (s Set[K]) Items() []K {
	return slices.Collect(maps.Keys(s))
}
