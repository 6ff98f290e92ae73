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

import "hash/maphash"

// Option provides an interface to do work on a Table while it is being
// created.
type Option[K comparable, V any] interface {
	apply(t *Table[K, V])
}

type hashOption[K comparable, V any] struct {
	hash func(seed maphash.Seed, key K) uint64
}

func (op hashOption[K, V]) apply(t *Table[K, V]) {
	t.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a
// Table[K,V]. The function is handed the table's seed; it must be
// consistent with the table's equality predicate (equal keys hash equally).
// The default is maphash.Comparable.
func WithHash[K comparable, V any](hash func(seed maphash.Seed, key K) uint64) Option[K, V] {
	return hashOption[K, V]{hash}
}

type equalOption[K comparable, V any] struct {
	equal func(a, b K) bool
}

func (op equalOption[K, V]) apply(t *Table[K, V]) {
	t.equal = op.equal
}

// WithEqual is an option to specify the key equality predicate for a
// Table[K,V]. The default is ==.
func WithEqual[K comparable, V any](equal func(a, b K) bool) Option[K, V] {
	return equalOption[K, V]{equal}
}

type maxLoadFactorOption[K comparable, V any] struct {
	maxLoad float64
}

func (op maxLoadFactorOption[K, V]) apply(t *Table[K, V]) {
	if !(op.maxLoad > 0) {
		panic("unordered: max load factor must be positive")
	}
	t.maxLoad = op.maxLoad
}

// WithMaxLoadFactor is an option to specify the load factor above which the
// bucket array grows. The default is 0.75. It panics unless f > 0.
func WithMaxLoadFactor[K comparable, V any](f float64) Option[K, V] {
	return maxLoadFactorOption[K, V]{f}
}

// Allocator specifies an interface for allocating and releasing the memory
// used by a Table. The default allocator utilizes Go's builtin make()/new()
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory then Table.Close must be
// called in order to ensure FreeNode and FreeBuckets are called for all
// outstanding allocations.
type Allocator[K comparable, V any] interface {
	// AllocNode should return a zeroed node, equivalent to new(Node[K,V]).
	AllocNode() *Node[K, V]

	// FreeNode can optionally release a node that is guaranteed to have been
	// allocated by AllocNode and is no longer linked into any chain.
	FreeNode(n *Node[K, V])

	// AllocBuckets should return a slice equivalent to make([]*Node[K,V], n).
	AllocBuckets(n int) []*Node[K, V]

	// FreeBuckets can optionally release the memory associated with the
	// supplied bucket array that is guaranteed to have been allocated by
	// AllocBuckets. Every chain head has been unlinked from the array before
	// it is freed.
	FreeBuckets(v []*Node[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocNode() *Node[K, V] {
	return new(Node[K, V])
}

func (defaultAllocator[K, V]) FreeNode(n *Node[K, V]) {
}

func (defaultAllocator[K, V]) AllocBuckets(n int) []*Node[K, V] {
	return make([]*Node[K, V], n)
}

func (defaultAllocator[K, V]) FreeBuckets(v []*Node[K, V]) {
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(t *Table[K, V]) {
	t.allocator = op.allocator
}

// WithAllocator is an option for specifying the Allocator to use for a
// Table[K,V].
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}
