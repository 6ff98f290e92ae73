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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterEmpty(t *testing.T) {
	t.Run("no-buckets", func(t *testing.T) {
		m := New[int, int](0)
		it := m.Iter()
		require.False(t, it.Valid())
		require.False(t, it.Next())
	})
	t.Run("all-buckets-empty", func(t *testing.T) {
		m := New[int, int](64)
		it := m.Iter()
		require.False(t, it.Valid())
	})
	t.Run("unaddressed", func(t *testing.T) {
		// The read-only half of the cursor works directly on the returned
		// value, without binding it to a variable first.
		m := New[int, int](0)
		require.False(t, m.Iter().Valid())
		require.False(t, m.Find(1).Valid())
		require.True(t, m.Find(1).Equal(m.EqualRange(2)))

		m.Insert(1, 10)
		require.True(t, m.Find(1).Valid())
		require.EqualValues(t, 1, m.Find(1).Key())
		require.EqualValues(t, 10, m.Find(1).Value())
	})
}

func TestIterVisitsEverything(t *testing.T) {
	test := func(t *testing.T, m *Table[int, int]) {
		e := make(map[int]int)
		for i := 0; i < 100; i++ {
			m.Insert(i, 2*i)
			e[i] = 2 * i
		}
		got := make(map[int]int)
		for it := m.Iter(); it.Valid(); it.Next() {
			_, seen := got[it.Key()]
			require.False(t, seen, "key %d visited twice", it.Key())
			got[it.Key()] = it.Value()
		}
		require.Equal(t, e, got)
	}

	t.Run("normal", func(t *testing.T) {
		test(t, New[int, int](0))
	})
	t.Run("sparse", func(t *testing.T) {
		// A large bucket array with few elements exercises the empty-bucket
		// skip on construction and on advance.
		test(t, New[int, int](4096))
	})
	t.Run("degenerate", func(t *testing.T) {
		test(t, New[int, int](0, constantHash[int](42)))
	})
}

func TestIterStableWithinGeneration(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 100; i++ {
		m.Insert(i, i)
	}

	collect := func() []int {
		var keys []int
		for it := m.Iter(); it.Valid(); it.Next() {
			keys = append(keys, it.Key())
		}
		return keys
	}

	// Two traversals with no intervening mutation observe the same order.
	first := collect()
	require.Len(t, first, 100)
	require.Equal(t, first, collect())
}

func TestIterEqual(t *testing.T) {
	m := New[int, int](0)
	m.Insert(1, 10)
	m.Insert(2, 20)

	a := m.Find(1)
	b := m.Find(1)
	require.True(t, a.Equal(b))

	c := m.Find(2)
	require.False(t, a.Equal(c))

	// All exhausted iterators compare equal, regardless of how they reached
	// the end.
	end1 := m.Find(3)
	end2 := m.Iter()
	for end2.Valid() {
		end2.Next()
	}
	require.True(t, end1.Equal(end2))
	require.True(t, end1.Equal(Iterator[int, int]{}))
}

func TestIterResumesFromFind(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 50; i++ {
		m.Insert(i, i)
	}

	// Advancing from a Find position must reach the end without revisiting
	// anything before it, i.e. Find yields a genuine mid-traversal cursor.
	full := make(map[int]bool)
	var order []int
	for it := m.Iter(); it.Valid(); it.Next() {
		full[it.Key()] = true
		order = append(order, it.Key())
	}
	require.Len(t, order, 50)

	mid := order[len(order)/2]
	var tail []int
	for it := m.Find(mid); it.Valid(); it.Next() {
		tail = append(tail, it.Key())
	}
	require.Equal(t, order[len(order)/2:], tail)
}

func TestIterSetValue(t *testing.T) {
	m := New[string, int](0)
	m.Insert("a", 1)

	it := m.Find("a")
	require.True(t, it.Valid())
	it.SetValue(2)
	v, _ := m.Get("a")
	require.EqualValues(t, 2, v)

	// ValueRef mutates in place with no relocation: the element stays where
	// it is and the length is unchanged.
	*it.ValueRef() = 3
	v, _ = m.Get("a")
	require.EqualValues(t, 3, v)
	require.EqualValues(t, 1, m.Len())
	require.True(t, it.Equal(m.Find("a")))
}

func TestIterSurvivesUnrelatedErase(t *testing.T) {
	// Erase only relinks, so iterators at other elements remain valid.
	// Use a constant hash so every element shares one chain, the worst case
	// for relinking around a cursor.
	m := New[int, int](0, WithMaxLoadFactor[int, int](1000), constantHash[int](3))
	for i := 0; i < 10; i++ {
		m.Insert(i, i)
	}

	it := m.Iter()
	require.True(t, it.Valid())
	held := it.Key()

	for i := 0; i < 10; i++ {
		if i != held {
			require.EqualValues(t, 1, m.Erase(i))
		}
	}
	require.True(t, it.Valid())
	require.EqualValues(t, held, it.Key())
	require.False(t, it.Next())
}

func TestInsertReturnsLiveIterator(t *testing.T) {
	// The 4th insert into 4 buckets triggers growth; the returned iterator
	// must reference the element under the post-growth layout.
	m := New[int, int](4)
	for i := 0; i < 3; i++ {
		m.Insert(i, i)
	}
	it, inserted := m.Insert(3, 33)
	require.True(t, inserted)
	require.GreaterOrEqual(t, m.BucketCount(), 8)
	require.True(t, it.Valid())
	require.EqualValues(t, 3, it.Key())
	require.EqualValues(t, 33, it.Value())

	// Walking from the returned position stays within the live table.
	var n int
	for ; it.Valid(); it.Next() {
		n++
		require.True(t, m.Contains(it.Key()))
	}
	require.LessOrEqual(t, n, m.Len())
}
