// Package intern provides canonicalization of values under a caller-defined
// equivalence relation.
//
// A [Store] holds a set of unique values of a specific comparable type T.
// Calling [Store.Make] with two values that are equivalent according to the
// supplied [Hasher] returns identical [Handle] values. The zero [Handle]
// represents the zero value of T; Make never hashes the zero value.
//
// The engine's two intern tables — segments (by name, text, is_leaf) and
// facts (by canonical text) — are both built on this store, satisfying
// invariant I1: all equivalent values resolve to one shared entry for the
// lifetime of a knowledge base.
package intern

import "hash/maphash"

// A Hasher defines a hash function and an equivalence relation over values
// of type T. Hash and Equal must be consistent: if Equal(x, y) is true then
// Hash must write identical bytes for x and y.
type Hasher[T any] interface {
	Hash(*maphash.Hash, T)
	Equal(x, y T) bool
}

// New returns a new store holding unique values of type T, using h to decide
// whether two values are the same.
func New[T comparable, H Hasher[T]](h H) *Store[T, H] {
	return &Store[T, H]{
		h:       h,
		seed:    maphash.MakeSeed(),
		hashes:  make(map[T]uint64),
		entries: make(map[uint64][]T),
	}
}

// Store holds a set of unique values of type T.
type Store[T comparable, H Hasher[T]] struct {
	h       H
	seed    maphash.Seed
	entries map[uint64][]T
	hashes  map[T]uint64
}

// Handle represents a canonicalized value of type T. Two Handles that
// originated from the same Store and compare equal (by Go's ==) are
// guaranteed to satisfy the store's equivalence relation, and vice versa.
type Handle[T comparable] struct {
	x T
}

// Value returns the canonical value held by u.
func (u Handle[T]) Value() T { return u.x }

// Make returns the canonical handle for x: if an equivalent value has
// already been interned, its handle is returned; otherwise x becomes the
// new canonical representative.
func (s *Store[T, H]) Make(x T) Handle[T] {
	if isZero(x) {
		return Handle[T]{}
	}
	if _, ok := s.hashes[x]; ok {
		return Handle[T]{x}
	}
	var hasher maphash.Hash
	hasher.SetSeed(s.seed)
	s.h.Hash(&hasher, x)
	h := hasher.Sum64()
	entries := s.entries[h]
	for _, e := range entries {
		if s.h.Equal(x, e) {
			return Handle[T]{e}
		}
	}
	s.entries[h] = append(entries, x)
	s.hashes[x] = h
	return Handle[T]{x}
}

// Len reports the number of distinct canonical values interned so far.
func (s *Store[T, H]) Len() int { return len(s.hashes) }

func isZero[T comparable](x T) bool {
	return x == *new(T)
}
