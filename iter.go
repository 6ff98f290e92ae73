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

package unordered

// Iterator is a forward cursor over the elements of a Table: a (bucket
// index, node) pair over a snapshot of the bucket array, advancing
// chain-then-bucket and skipping empty buckets. The zero value is an
// exhausted (end) iterator.
//
// Key is read-only; SetValue and ValueRef are the mutable half of the
// cursor. The set facade wraps an Iterator and re-exposes only the key side.
//
// Iteration order is unspecified, but is stable for the lifetime of a given
// bucket-array generation: two traversals observe the same order unless an
// insert, erase, or rehash happened in between. Any operation that triggers
// a rehash invalidates all outstanding iterators; Erase invalidates only
// iterators at the erased elements.
type Iterator[K comparable, V any] struct {
	buckets []*Node[K, V]
	bucket  int
	node    *Node[K, V]
	// When filter is non-nil the cursor is confined to the elements of the
	// current chain whose key equals filterKey (the EqualRange span).
	filter    func(a, b K) bool
	filterKey K
}

// makeIterator returns a cursor at the first element of the first non-empty
// bucket, or an exhausted cursor if there is none.
func makeIterator[K comparable, V any](buckets []*Node[K, V]) Iterator[K, V] {
	it := Iterator[K, V]{buckets: buckets, bucket: -1}
	it.Next()
	return it
}

// Valid reports whether the iterator references an element. Key, Value,
// ValueRef, and SetValue may only be called on a valid iterator.
func (it Iterator[K, V]) Valid() bool {
	return it.node != nil
}

// Next advances to the next element: the current node's successor, or the
// head of the next non-empty bucket once the chain is exhausted. It returns
// the validity of the new position and is a noop on an exhausted iterator.
func (it *Iterator[K, V]) Next() bool {
	if it.filter != nil {
		return it.nextMatch()
	}
	if it.node != nil {
		it.node = it.node.next
		if it.node != nil {
			return true
		}
	}
	for it.bucket++; it.bucket < len(it.buckets); it.bucket++ {
		if head := it.buckets[it.bucket]; head != nil {
			it.node = head
			return true
		}
	}
	it.node = nil
	return false
}

// nextMatch advances a key-filtered cursor. Matches all live in one bucket,
// so the search never leaves the current chain.
func (it *Iterator[K, V]) nextMatch() bool {
	if it.node == nil {
		return false
	}
	for n := it.node.next; n != nil; n = n.next {
		if it.filter(n.key, it.filterKey) {
			it.node = n
			return true
		}
	}
	it.node = nil
	return false
}

// Key returns the key of the current element.
func (it Iterator[K, V]) Key() K {
	return it.node.key
}

// Value returns the value of the current element.
func (it Iterator[K, V]) Value() V {
	return it.node.value
}

// ValueRef returns a pointer to the value of the current element, allowing
// in-place mutation. The key is immutable for the element's lifetime.
func (it *Iterator[K, V]) ValueRef() *V {
	return &it.node.value
}

// SetValue overwrites the value of the current element in place.
func (it *Iterator[K, V]) SetValue(v V) {
	it.node.value = v
}

// Equal reports whether two iterators reference the same element. All
// exhausted iterators compare equal, regardless of which bucket they
// reached the end through.
func (it Iterator[K, V]) Equal(other Iterator[K, V]) bool {
	return it.node == other.node
}
