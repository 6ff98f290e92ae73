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

// Package unordered provides a generic, separately-chained hash table that
// serves as the backing store for both map-shaped and set-shaped associative
// containers.
//
// # Design
//
// A Table[K,V] owns an array of buckets. Each bucket holds the head of a
// singly-linked chain of nodes and each node owns its successor, so the
// table transitively owns every node it stores. Collisions are resolved by
// walking the chain with the table's equality predicate. Insertion prepends
// to the chain head which is O(1) but reverses relative insertion order
// within a bucket; iteration order is unspecified in general.
//
// After an insertion completes, if the load factor (Len()/BucketCount())
// exceeds the configured maximum the bucket array is rebuilt at twice the
// size. Rebuilding relinks the existing nodes under the new array length; no
// per-element allocation is performed. Erase only relinks, so the bucket
// array never shrinks.
//
// Tables come in two modes fixed at construction: unique-key (New) and
// duplicate-allowed (NewMulti), the latter giving multimap/multiset
// behavior.
//
// By default keys are hashed with hash/maphash.Comparable under a per-table
// seed and compared with ==. Both can be replaced with the WithHash and
// WithEqual options.
//
// A Table is NOT goroutine-safe.
package unordered

import (
	"errors"
	"fmt"
	"hash/maphash"
	"strings"
)

const (
	debug = false

	// defaultBucketCount is the bucket array length used when a table
	// constructed with zero capacity receives its first element.
	defaultBucketCount = 16
	// minBucketCount is the smallest bucket array length Rehash and Reserve
	// will produce.
	minBucketCount = 8

	defaultMaxLoadFactor = 0.75
)

// ErrNotFound is returned by Table.At when the key is absent. All other
// lookups report absence via an ok boolean or an invalid iterator.
var ErrNotFound = errors.New("unordered: key not found")

// Node is one element of a bucket chain. It holds a key, the associated
// value, and an exclusively-owned link to the next node in the same bucket.
// Nodes have no public API; the type is exported only so that a custom
// Allocator can produce them.
type Node[K comparable, V any] struct {
	next  *Node[K, V]
	key   K
	value V
}

// Table is an unordered collection of key/value elements backed by an array
// of node chains. The zero value is not usable; construct with New or
// NewMulti.
type Table[K comparable, V any] struct {
	// buckets[i] is the head of the chain holding every element whose key
	// hashes to i modulo len(buckets). A nil bucket array is the lazy empty
	// state of a zero-capacity table.
	buckets []*Node[K, V]
	// The number of elements across all chains.
	count int
	// Growth threshold for count/len(buckets).
	maxLoad float64
	seed    maphash.Seed
	hash    func(seed maphash.Seed, key K) uint64
	equal   func(a, b K) bool
	// The allocator to use for nodes and the bucket array.
	allocator Allocator[K, V]
	// multi permits elements with equal keys. Fixed at construction.
	multi bool
}

// New constructs a unique-key Table with the specified initial capacity. If
// capacity is 0 the bucket array is allocated on the first insert; otherwise
// exactly capacity buckets are allocated up front.
func New[K comparable, V any](capacity int, options ...Option[K, V]) *Table[K, V] {
	return newTable[K, V](capacity, false, options)
}

// NewMulti constructs a Table that permits multiple elements with equal keys
// (multimap/multiset behavior). Lookups return the first match in chain
// order; Count and Erase consider every match.
func NewMulti[K comparable, V any](capacity int, options ...Option[K, V]) *Table[K, V] {
	return newTable[K, V](capacity, true, options)
}

func newTable[K comparable, V any](capacity int, multi bool, options []Option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		maxLoad:   defaultMaxLoadFactor,
		seed:      maphash.MakeSeed(),
		hash:      maphash.Comparable[K],
		equal:     func(a, b K) bool { return a == b },
		allocator: defaultAllocator[K, V]{},
		multi:     multi,
	}

	for _, op := range options {
		op.apply(t)
	}

	if capacity > 0 {
		t.buckets = t.allocator.AllocBuckets(capacity)
	}

	t.checkInvariants()
	return t
}

// Close releases the nodes and the bucket array back to the configured
// allocator. It is unnecessary to close a table using the default allocator.
// It is invalid to use a Table after it has been closed, though Close itself
// is idempotent.
func (t *Table[K, V]) Close() {
	if t.allocator == nil {
		return
	}
	t.Clear()
	if t.buckets != nil {
		t.allocator.FreeBuckets(t.buckets)
		t.buckets = nil
	}
	t.allocator = nil
}

// Insert adds an element to the table, returning an iterator at the element
// and true. In unique-key mode, if an equal key is already present nothing
// is inserted and Insert returns an iterator at the existing element and
// false.
func (t *Table[K, V]) Insert(key K, value V) (Iterator[K, V], bool) {
	t.ensureBuckets()
	i := t.bucketIndex(key)

	if !t.multi {
		if n := t.findInBucket(key, i); n != nil {
			if debug {
				fmt.Printf("insert(%v): rejected, key present in bucket %d\n", key, i)
			}
			return t.iterAt(i, n), false
		}
	}

	n := t.link(i, key, value)
	// link may have grown the bucket array; re-derive the node's bucket so
	// the returned iterator references the live layout.
	return t.iterAt(t.bucketIndex(key), n), true
}

// InsertOrAssign is like Insert, but on finding an equal key it overwrites
// the associated value in place instead of rejecting. The bool result is
// true if an insertion took place and false on assignment.
func (t *Table[K, V]) InsertOrAssign(key K, value V) (Iterator[K, V], bool) {
	t.ensureBuckets()
	i := t.bucketIndex(key)

	if n := t.findInBucket(key, i); n != nil {
		n.value = value
		return t.iterAt(i, n), false
	}

	n := t.link(i, key, value)
	return t.iterAt(t.bucketIndex(key), n), true
}

// TryInsert inserts an element whose value is constructed by makeValue, but
// only if no equal key is present; makeValue is never invoked otherwise. If
// makeValue panics nothing has been linked and the table is unchanged.
func (t *Table[K, V]) TryInsert(key K, makeValue func() V) (Iterator[K, V], bool) {
	t.ensureBuckets()
	i := t.bucketIndex(key)

	if !t.multi {
		if n := t.findInBucket(key, i); n != nil {
			return t.iterAt(i, n), false
		}
	}

	n := t.link(i, key, makeValue())
	return t.iterAt(t.bucketIndex(key), n), true
}

// link prepends a new node holding key/value to the chain at bucket i and
// restores the load-factor invariant. The returned node remains valid across
// any growth triggered by the insertion.
func (t *Table[K, V]) link(i int, key K, value V) *Node[K, V] {
	n := t.allocator.AllocNode()
	n.key = key
	n.value = value
	n.next = t.buckets[i]
	t.buckets[i] = n
	t.count++
	if debug {
		fmt.Printf("insert(%v): bucket %d, count=%d load=%.3f\n", key, i, t.count, t.LoadFactor())
	}
	t.checkLoad()
	t.checkInvariants()
	return n
}

// checkLoad grows the bucket array when the load factor exceeds the
// configured maximum. Growth doubles, repeatedly if the threshold was
// lowered far enough that one doubling does not suffice, so that
// count/len(buckets) <= maxLoad holds on return.
func (t *Table[K, V]) checkLoad() {
	if len(t.buckets) == 0 {
		return
	}
	if float64(t.count)/float64(len(t.buckets)) <= t.maxLoad {
		return
	}
	newCap := 2 * len(t.buckets)
	for float64(t.count)/float64(newCap) > t.maxLoad {
		newCap *= 2
	}
	t.rehash(newCap)
}

// rehash rebuilds the bucket array at exactly newCap slots, relinking every
// existing node into its recomputed bucket. Nodes are moved, not copied.
// This is the only operation that changes which bucket an element lives in,
// and it invalidates all outstanding iterators.
func (t *Table[K, V]) rehash(newCap int) {
	if newCap <= 0 {
		panic("unordered: rehash to non-positive bucket count")
	}
	oldBuckets := t.buckets
	t.buckets = t.allocator.AllocBuckets(newCap)
	for _, head := range oldBuckets {
		for n := head; n != nil; {
			next := n.next
			i := t.bucketIndex(n.key)
			n.next = t.buckets[i]
			t.buckets[i] = n
			n = next
		}
	}
	if oldBuckets != nil {
		t.allocator.FreeBuckets(oldBuckets)
	}
	if debug {
		fmt.Printf("rehash: %d -> %d buckets, count=%d\n", len(oldBuckets), newCap, t.count)
	}
	t.checkInvariants()
}

// Rehash rebuilds the bucket array with max(n, Len(), 8) slots.
func (t *Table[K, V]) Rehash(n int) {
	t.rehash(max(n, t.count, minBucketCount))
}

// Reserve grows the bucket array to accommodate n elements. Equivalent to
// Rehash(n).
func (t *Table[K, V]) Reserve(n int) {
	t.Rehash(n)
}

// Find returns an iterator at the first element whose key equals key, or an
// invalid iterator if there is none.
func (t *Table[K, V]) Find(key K) Iterator[K, V] {
	n, i := t.lookup(key)
	if n == nil {
		return Iterator[K, V]{}
	}
	return t.iterAt(i, n)
}

// Get retrieves the value stored for key, returning ok=false if the key is
// not present. In duplicate-allowed mode the first match in chain order is
// returned.
func (t *Table[K, V]) Get(key K) (value V, ok bool) {
	n, _ := t.lookup(key)
	if n == nil {
		return value, false
	}
	return n.value, true
}

// Contains reports whether an element with the given key is present.
func (t *Table[K, V]) Contains(key K) bool {
	n, _ := t.lookup(key)
	return n != nil
}

// Count returns the number of elements whose key equals key: 0 or 1 in
// unique-key mode, any count in duplicate-allowed mode.
func (t *Table[K, V]) Count(key K) int {
	if len(t.buckets) == 0 {
		return 0
	}
	var count int
	for n := t.buckets[t.bucketIndex(key)]; n != nil; n = n.next {
		if t.equal(n.key, key) {
			count++
		}
	}
	return count
}

// Erase removes every element whose key equals key (at most one in
// unique-key mode) by relinking its predecessor to its successor, and
// returns the number removed. The bucket array is never shrunk by Erase.
func (t *Table[K, V]) Erase(key K) int {
	if len(t.buckets) == 0 {
		return 0
	}
	i := t.bucketIndex(key)
	var removed int
	for pp := &t.buckets[i]; *pp != nil; {
		n := *pp
		if !t.equal(n.key, key) {
			pp = &n.next
			continue
		}
		*pp = n.next
		n.next = nil
		t.allocator.FreeNode(n)
		t.count--
		removed++
		if !t.multi {
			break
		}
	}
	if debug && removed > 0 {
		fmt.Printf("erase(%v): bucket %d, removed=%d count=%d\n", key, i, removed, t.count)
	}
	t.checkInvariants()
	return removed
}

// Ref returns a pointer to the value stored for key, inserting a zero value
// first if the key is absent. This mirrors associative-array access and is
// meaningful for map-shaped tables only; the set facade does not expose it.
// The pointer stays valid until the element is erased.
func (t *Table[K, V]) Ref(key K) *V {
	t.ensureBuckets()
	i := t.bucketIndex(key)
	if n := t.findInBucket(key, i); n != nil {
		return &n.value
	}
	var zero V
	n := t.link(i, key, zero)
	return &n.value
}

// At returns the value stored for key, or ErrNotFound (wrapped with the key)
// if it is absent.
func (t *Table[K, V]) At(key K) (V, error) {
	n, _ := t.lookup(key)
	if n == nil {
		var zero V
		return zero, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	return n.value, nil
}

// EqualRange returns an iterator over exactly the elements whose key equals
// key, in chain order. In unique-key mode it yields at most one element. The
// iterator is invalid if there is no match.
func (t *Table[K, V]) EqualRange(key K) Iterator[K, V] {
	n, i := t.lookup(key)
	if n == nil {
		return Iterator[K, V]{}
	}
	it := t.iterAt(i, n)
	it.filter = t.equal
	it.filterKey = key
	return it
}

// All calls yield sequentially for each key and value present in the table
// until yield returns false. yield must not mutate the table: growth relinks
// the very nodes being traversed.
func (t *Table[K, V]) All(yield func(key K, value V) bool) {
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			if !yield(n.key, n.value) {
				return
			}
		}
	}
}

// Iter returns an iterator positioned at the first element of the first
// non-empty bucket. The iterator is invalid for an empty table.
func (t *Table[K, V]) Iter() Iterator[K, V] {
	return makeIterator(t.buckets)
}

// iterAt returns an iterator positioned at node n in bucket i.
func (t *Table[K, V]) iterAt(i int, n *Node[K, V]) Iterator[K, V] {
	return Iterator[K, V]{buckets: t.buckets, bucket: i, node: n}
}

// Len returns the number of elements in the table.
func (t *Table[K, V]) Len() int {
	return t.count
}

// Empty reports whether the table holds no elements.
func (t *Table[K, V]) Empty() bool {
	return t.count == 0
}

// Clear removes every element, releasing all nodes to the allocator. The
// bucket array is retained at its current length.
func (t *Table[K, V]) Clear() {
	for i, head := range t.buckets {
		for n := head; n != nil; {
			next := n.next
			n.next = nil
			t.allocator.FreeNode(n)
			n = next
		}
		t.buckets[i] = nil
	}
	t.count = 0
	t.checkInvariants()
}

// BucketCount returns the current length of the bucket array.
func (t *Table[K, V]) BucketCount() int {
	return len(t.buckets)
}

// BucketSize returns the length of the chain at bucket i. It panics if i is
// outside the current bucket array.
func (t *Table[K, V]) BucketSize(i int) int {
	var size int
	for n := t.buckets[i]; n != nil; n = n.next {
		size++
	}
	return size
}

// Bucket returns the bucket index key hashes to under the current bucket
// array length. It panics on a table with no buckets.
func (t *Table[K, V]) Bucket(key K) int {
	if len(t.buckets) == 0 {
		panic("unordered: Bucket on a table with no buckets")
	}
	return t.bucketIndex(key)
}

// LoadFactor returns Len()/BucketCount(), or 0 for a table with no buckets.
func (t *Table[K, V]) LoadFactor() float64 {
	if len(t.buckets) == 0 {
		return 0
	}
	return float64(t.count) / float64(len(t.buckets))
}

// MaxLoadFactor returns the growth threshold.
func (t *Table[K, V]) MaxLoadFactor() float64 {
	return t.maxLoad
}

// SetMaxLoadFactor changes the growth threshold, growing immediately if the
// current load factor now exceeds it. It panics unless f > 0.
func (t *Table[K, V]) SetMaxLoadFactor(f float64) {
	if !(f > 0) {
		panic("unordered: max load factor must be positive")
	}
	t.maxLoad = f
	t.checkLoad()
}

// Clone returns a deep copy of the table: a fully independent bucket array
// and node graph with no aliasing to the source. The clone shares the
// source's seed, hash, equality predicate, allocator, and mode, so elements
// occupy the same buckets in both tables.
func (t *Table[K, V]) Clone() *Table[K, V] {
	c := &Table[K, V]{
		count:     t.count,
		maxLoad:   t.maxLoad,
		seed:      t.seed,
		hash:      t.hash,
		equal:     t.equal,
		allocator: t.allocator,
		multi:     t.multi,
	}
	if t.buckets == nil {
		return c
	}
	c.buckets = c.allocator.AllocBuckets(len(t.buckets))
	for i, head := range t.buckets {
		// Copy each chain preserving its order so that lookups in the clone
		// resolve duplicate keys the same way they do in the source.
		tail := &c.buckets[i]
		for n := head; n != nil; n = n.next {
			cn := c.allocator.AllocNode()
			cn.key = n.key
			cn.value = n.value
			*tail = cn
			tail = &cn.next
		}
	}
	c.checkInvariants()
	return c
}

// Swap exchanges the entire state of two tables in O(1).
func (t *Table[K, V]) Swap(other *Table[K, V]) {
	*t, *other = *other, *t
}

// Equal reports whether two tables hold the same elements, irrespective of
// bucket layout or iteration order. Elements match when their keys are equal
// under a's equality predicate and their values are equal under ==.
func Equal[K, V comparable](a, b *Table[K, V]) bool {
	return EqualFunc(a, b, func(x, y V) bool { return x == y })
}

// EqualFunc is like Equal but compares values with eq. For duplicate-allowed
// tables the comparison is multiset-correct: for every element, the number
// of matching (key, value) elements must agree between the two tables.
func EqualFunc[K comparable, V any](a, b *Table[K, V], eq func(V, V) bool) bool {
	if a.count != b.count {
		return false
	}
	if !a.multi && !b.multi {
		equal := true
		a.All(func(k K, v V) bool {
			n, _ := b.lookup(k)
			if n == nil || !eq(n.value, v) {
				equal = false
				return false
			}
			return true
		})
		return equal
	}

	equal := true
	a.All(func(k K, v V) bool {
		if countMatches(a, k, v, eq) != countMatches(b, k, v, eq) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// countMatches returns the number of elements in t whose key equals k and
// whose value matches v under eq.
func countMatches[K comparable, V any](t *Table[K, V], k K, v V, eq func(V, V) bool) int {
	if len(t.buckets) == 0 {
		return 0
	}
	var count int
	for n := t.buckets[t.bucketIndex(k)]; n != nil; n = n.next {
		if t.equal(n.key, k) && eq(n.value, v) {
			count++
		}
	}
	return count
}

// ensureBuckets allocates the initial bucket array for a table constructed
// with zero capacity.
func (t *Table[K, V]) ensureBuckets() {
	if t.buckets == nil {
		t.buckets = t.allocator.AllocBuckets(defaultBucketCount)
	}
}

func (t *Table[K, V]) bucketIndex(key K) int {
	return int(t.hash(t.seed, key) % uint64(len(t.buckets)))
}

// findInBucket scans the chain at bucket i for the first element whose key
// equals key.
func (t *Table[K, V]) findInBucket(key K, i int) *Node[K, V] {
	for n := t.buckets[i]; n != nil; n = n.next {
		if t.equal(n.key, key) {
			return n
		}
	}
	return nil
}

// lookup locates the first element whose key equals key, returning the node
// and its bucket index, or (nil, 0) if absent or the table has no buckets.
func (t *Table[K, V]) lookup(key K) (*Node[K, V], int) {
	if len(t.buckets) == 0 {
		return nil, 0
	}
	i := t.bucketIndex(key)
	return t.findInBucket(key, i), i
}

// checkInvariants verifies the structural invariants of the table when built
// with the invariants tag: the element count matches the number of reachable
// nodes, every node lives in the bucket its key hashes to, and unique-key
// tables hold no duplicate keys.
func (t *Table[K, V]) checkInvariants() {
	if invariants {
		var count int
		for i, head := range t.buckets {
			for n := head; n != nil; n = n.next {
				count++
				if j := t.bucketIndex(n.key); j != i {
					panic(fmt.Sprintf("invariant failed: key %v found in bucket %d, hashes to %d\n%s",
						n.key, i, j, t.debugString()))
				}
				if !t.multi {
					for m := n.next; m != nil; m = m.next {
						if t.equal(n.key, m.key) {
							panic(fmt.Sprintf("invariant failed: duplicate key %v in unique-key table\n%s",
								n.key, t.debugString()))
						}
					}
				}
			}
		}
		if count != t.count {
			panic(fmt.Sprintf("invariant failed: found %d nodes, but count is %d\n%s",
				count, t.count, t.debugString()))
		}
	}
}

func (t *Table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "count=%d  buckets=%d  max-load=%.2f  multi=%t\n",
		t.count, len(t.buckets), t.maxLoad, t.multi)
	for i, head := range t.buckets {
		if head == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", i)
		for n := head; n != nil; n = n.next {
			fmt.Fprintf(&buf, " %v=%v", n.key, n.value)
		}
		fmt.Fprintf(&buf, "\n")
	}
	return buf.String()
}
