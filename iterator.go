// Copyright 2024 The hashindex Authors
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

package hashindex

import "unsafe"

// Iterator walks a Map one value at a time, visiting every value of a slot
// before moving to the next live slot. It carries two cursors: the current
// slot and the position inside that slot's value stream, with a count of
// values remaining in the stream. The end-of-table position points at the
// table's sentinel slot, which never compares equal to a real position, so
// iterators are compared directly with ==.
//
// Iterators are invalidated by any mutation of the table: a resize, an
// overflow-list growth or a deletion at the iterated slot. Advancing or
// dereferencing an invalidated iterator, or one equal to End, is undefined.
type Iterator[K any, V any] struct {
	m  *Map[K, V]
	s  *Slot[K, V]
	si uint64
	v  *V
	vi uint32
	// remaining counts the values left in the current slot including the
	// one the iterator is on. The end iterator carries remaining == 1 so
	// that a full Next from the last real value lands exactly on it.
	remaining uint32
	// pinned restricts the iterator to a single slot: exhausting the slot's
	// values advances straight to End.
	pinned bool
}

// Key returns the key of the slot the iterator is positioned on.
func (it Iterator[K, V]) Key() K {
	return it.s.key.get()
}

// Value returns the address of the value the iterator is positioned on. The
// value may be mutated in place through it.
func (it Iterator[K, V]) Value() *V {
	return it.v
}

// Next advances to the next value: the next value inside the current slot's
// stream, or the first value of the next live slot once the stream is
// exhausted.
func (it *Iterator[K, V]) Next() {
	it.remaining--
	if it.remaining > 0 {
		it.vi++
		it.v = it.s.list.at(int(it.vi))
		return
	}
	if it.pinned {
		*it = it.m.End()
		return
	}
	it.m.seek(it, it.si+1)
}

// seek positions the iterator on the first live slot at or after index i,
// or on End if there is none. The scan needs no bounds check: the sentinel
// slot reports hasValues and stops it.
func (m *Map[K, V]) seek(it *Iterator[K, V], i uint64) {
	s := m.slots.At(i)
	for !s.hasValues() {
		i++
		s = m.slots.At(i)
	}
	it.s, it.si = s, i
	if i == m.capacity {
		it.v, it.vi, it.remaining, it.pinned = nil, 0, 1, false
		return
	}
	it.vi = 0
	if s.state == slotInline {
		it.v, it.remaining = s.value.ptr(), 1
	} else {
		it.v, it.remaining = s.list.first(), uint32(s.list.size())
	}
}

// Begin returns an iterator on the table's first value, or End if the table
// is empty.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	it := Iterator[K, V]{m: m}
	m.seek(&it, 0)
	return it
}

// End returns the end-of-table iterator.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{m: m, s: m.sentinel(), si: m.capacity, remaining: 1}
}

// FindKey returns an iterator pinned to key's slot, traversing only that
// key's values, or End if the key is absent.
func (m *Map[K, V]) FindKey(key K) Iterator[K, V] {
	s := m.findSlot(m.hash(key), key)
	if s == nil {
		return m.End()
	}
	si := uint64(uintptr(unsafe.Pointer(s))-uintptr(m.slots.ptr)) / uint64(unsafe.Sizeof(Slot[K, V]{}))
	it := Iterator[K, V]{m: m, s: s, si: si, vi: 0, pinned: true}
	if s.state == slotInline {
		it.v, it.remaining = s.value.ptr(), 1
	} else {
		it.v, it.remaining = s.list.first(), uint32(s.list.size())
	}
	return it
}

// KeyRange returns the pair (FindKey(key), End()), delimiting the values
// stored under key.
func (m *Map[K, V]) KeyRange(key K) (Iterator[K, V], Iterator[K, V]) {
	return m.FindKey(key), m.End()
}
