// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package set provides an unordered set built on the unordered hash table:
// the key is the element, duplicates are forbidden, and every operation
// forwards to the table 1:1. Like the table, a Set is NOT goroutine-safe.
package set

import "github.com/cockroachdb/unordered"

// Set is an unordered collection of unique keys backed by a unique-key
// Table[K,struct{}]. The zero value is not usable; construct with New or
// Of.
type Set[K comparable] struct {
	t *unordered.Table[K, struct{}]
}

// Iterator is a forward cursor over the elements of a Set. It wraps the
// table's iterator and exposes only the key, which is immutable for the
// element's lifetime.
type Iterator[K comparable] struct {
	it unordered.Iterator[K, struct{}]
}

// Valid reports whether the iterator references an element.
func (it Iterator[K]) Valid() bool {
	return it.it.Valid()
}

// Next advances to the next element, returning the validity of the new
// position.
func (it *Iterator[K]) Next() bool {
	return it.it.Next()
}

// Key returns the current element.
func (it Iterator[K]) Key() K {
	return it.it.Key()
}

// Equal reports whether two iterators reference the same element. All
// exhausted iterators compare equal.
func (it Iterator[K]) Equal(other Iterator[K]) bool {
	return it.it.Equal(other.it)
}

// New constructs an empty Set with the specified initial capacity. Options
// are forwarded to the underlying table.
func New[K comparable](capacity int, options ...unordered.Option[K, struct{}]) *Set[K] {
	return &Set[K]{t: unordered.New[K, struct{}](capacity, options...)}
}

// Of constructs a Set holding the given keys, deduplicated.
func Of[K comparable](keys ...K) *Set[K] {
	s := New[K](len(keys))
	for _, k := range keys {
		s.Insert(k)
	}
	return s
}

// Insert adds key to the set, returning an iterator at the element and
// whether an insertion took place. Inserting a present key is a noop
// returning false.
func (s *Set[K]) Insert(key K) (Iterator[K], bool) {
	it, inserted := s.t.Insert(key, struct{}{})
	return Iterator[K]{it: it}, inserted
}

// Erase removes key from the set, returning the number of elements removed
// (0 or 1).
func (s *Set[K]) Erase(key K) int {
	return s.t.Erase(key)
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool {
	return s.t.Contains(key)
}

// Count returns 1 if key is in the set and 0 otherwise.
func (s *Set[K]) Count(key K) int {
	return s.t.Count(key)
}

// Find returns an iterator at key, or an invalid iterator if it is absent.
func (s *Set[K]) Find(key K) Iterator[K] {
	return Iterator[K]{it: s.t.Find(key)}
}

// EqualRange returns an iterator over the elements equal to key: at most
// one, since the set forbids duplicates.
func (s *Set[K]) EqualRange(key K) Iterator[K] {
	return Iterator[K]{it: s.t.EqualRange(key)}
}

// Len returns the number of elements in the set.
func (s *Set[K]) Len() int {
	return s.t.Len()
}

// Empty reports whether the set holds no elements.
func (s *Set[K]) Empty() bool {
	return s.t.Empty()
}

// Clear removes every element, retaining the bucket array.
func (s *Set[K]) Clear() {
	s.t.Clear()
}

// Clone returns a deep copy of the set.
func (s *Set[K]) Clone() *Set[K] {
	return &Set[K]{t: s.t.Clone()}
}

// Swap exchanges the contents of two sets in O(1).
func (s *Set[K]) Swap(other *Set[K]) {
	s.t.Swap(other.t)
}

// Equal reports whether two sets hold the same elements, irrespective of
// bucket layout or iteration order.
func (s *Set[K]) Equal(other *Set[K]) bool {
	return unordered.Equal(s.t, other.t)
}

// All calls yield sequentially for each element until yield returns false.
func (s *Set[K]) All(yield func(key K) bool) {
	s.t.All(func(k K, _ struct{}) bool {
		return yield(k)
	})
}

// Iter returns an iterator positioned at the first element. The iterator is
// invalid for an empty set.
func (s *Set[K]) Iter() Iterator[K] {
	return Iterator[K]{it: s.t.Iter()}
}

// BucketCount returns the current length of the bucket array.
func (s *Set[K]) BucketCount() int {
	return s.t.BucketCount()
}

// BucketSize returns the length of the chain at bucket i.
func (s *Set[K]) BucketSize(i int) int {
	return s.t.BucketSize(i)
}

// Bucket returns the bucket index key hashes to.
func (s *Set[K]) Bucket(key K) int {
	return s.t.Bucket(key)
}

// LoadFactor returns Len()/BucketCount().
func (s *Set[K]) LoadFactor() float64 {
	return s.t.LoadFactor()
}

// MaxLoadFactor returns the growth threshold.
func (s *Set[K]) MaxLoadFactor() float64 {
	return s.t.MaxLoadFactor()
}

// SetMaxLoadFactor changes the growth threshold, growing immediately if the
// current load factor now exceeds it. It panics unless f > 0.
func (s *Set[K]) SetMaxLoadFactor(f float64) {
	s.t.SetMaxLoadFactor(f)
}

// Rehash rebuilds the bucket array with max(n, Len(), 8) slots.
func (s *Set[K]) Rehash(n int) {
	s.t.Rehash(n)
}

// Reserve grows the bucket array to accommodate n elements.
func (s *Set[K]) Reserve(n int) {
	s.t.Reserve(n)
}

// Close releases the set's memory back to the table's allocator. Only
// needed with a custom Allocator.
func (s *Set[K]) Close() {
	s.t.Close()
}
