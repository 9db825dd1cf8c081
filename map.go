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

import (
	"fmt"
	"unsafe"
)

const debug = false

// slotState tags the four states a Map slot can be in. The tags are ordered
// so that "slot holds at least one value" is a single comparison against
// slotInline: the first two tags mark slots with no live key, the last two
// mark slots whose key storage is live.
type slotState uint8

const (
	// slotFree is the zero value so that a freshly allocated slot array
	// needs no initialization pass.
	slotFree slotState = iota
	slotTombstone
	slotInline
	slotList
)

// Slot is one cell of a Map's open-addressing array. The key cell is live
// iff state >= slotInline. The value cell is live iff state == slotInline;
// once a key overflows to a list, every value for it lives in the list and
// none inline. The list pointer is non-nil iff state == slotList, and a live
// list always holds at least two values.
type Slot[K any, V any] struct {
	state slotState
	hash  uint64
	key   cell[K]
	value cell[V]
	list  *valueList[V]
}

// hasValues reports whether the slot holds a live key with one or more
// values.
func (s *Slot[K, V]) hasValues() bool {
	return s.state >= slotInline
}

// Map is an open-addressing hash table from keys to one or more values,
// resolving collisions with linear probing. A key's first value is stored
// inline in its slot; further values for the same key move to a single
// heap-allocated overflow list. Deleted keys leave tombstones that probing
// skips and insertion reuses.
//
// A Map is NOT goroutine-safe. Pointers returned by Lookup and iterators
// remain valid only until the next Insert, Delete, DeleteKey or Close on
// the same Map.
type Map[K any, V any] struct {
	hash      HashFunc[K]
	eq        EqualFunc[K]
	lf        LoadFactor
	allocator Allocator[K, V]
	// slots is capacity+1 in length. The extra slot is a sentinel that is
	// permanently in state slotInline with no key or value initialized; it
	// exists only so that an end-of-table iterator has a distinct position
	// to point at.
	slots unsafeSlice[Slot[K, V]]
	// The number of real slots, always a power of two. mask == capacity-1
	// converts a hash into a slot index.
	capacity uint64
	mask     uint64
	// The number of live keys.
	used uint64
	// The number of slots still in state slotFree. Probing terminates only
	// at free slots, so the table rehashes before the last one is consumed.
	free uint64
	// The live-key count at which the next new-key insert grows the table,
	// recomputed from the load-factor policy at every capacity change.
	threshold uint64
}

// New constructs an empty Map. The initial capacity request is rounded up
// to a power of two, floored at 32 slots and at the slot count that fills
// one VM page. hash and eq must agree: keys that compare equal must hash
// equal. The default load-factor policy is LoadFactorHalfFull; it and the
// slot allocator can be replaced with options.
func New[K any, V any](initialCapacity int, hash HashFunc[K], eq EqualFunc[K], opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		hash:      hash,
		eq:        eq,
		lf:        LoadFactorHalfFull,
		allocator: defaultAllocator[K, V]{},
	}
	for _, op := range opts {
		op.apply(m)
	}

	if initialCapacity < 0 {
		initialCapacity = 0
	}
	requested := uint64(initialCapacity)
	if perPage := pageSize / uint64(unsafe.Sizeof(Slot[K, V]{})); requested < perPage {
		requested = perPage
	}
	capacity := roundCapacity(requested)
	m.install(m.allocSlots(capacity), capacity)

	if debug {
		fmt.Printf("new: capacity=%d threshold=%d\n", m.capacity, m.threshold)
	}

	m.checkInvariants()
	return m
}

// Close releases the slot array back to the configured allocator. It is
// unnecessary to call Close on a Map using the default allocator. Using a
// Map after Close is invalid, though Close itself is idempotent.
func (m *Map[K, V]) Close() {
	if m.capacity > 0 {
		m.allocator.FreeSlots(unsafe.Slice((*Slot[K, V])(m.slots.ptr), m.capacity+1))
		m.slots = unsafeSlice[Slot[K, V]]{}
		m.capacity = 0
		m.mask = 0
		m.used = 0
		m.free = 0
	}
	m.allocator = nil
}

// allocSlots obtains a zeroed array of capacity+1 slots and marks the
// sentinel.
func (m *Map[K, V]) allocSlots(capacity uint64) []Slot[K, V] {
	slots := m.allocator.AllocSlots(int(capacity + 1))
	if uint64(len(slots)) != capacity+1 {
		panic("hashindex: allocator returned short slot array")
	}
	slots[capacity].state = slotInline
	return slots
}

// install points the table at a fresh slot array and recomputes the derived
// counters for its capacity.
func (m *Map[K, V]) install(slots []Slot[K, V], capacity uint64) {
	m.slots = makeUnsafeSlice(slots)
	m.capacity = capacity
	m.mask = capacity - 1
	m.free = capacity - m.used
	m.threshold = m.boundedThreshold(capacity)
}

// boundedThreshold applies the load-factor policy, capping the result so
// that at least one slot stays free to terminate probing.
func (m *Map[K, V]) boundedThreshold(capacity uint64) uint64 {
	t := m.lf(capacity)
	if t >= capacity {
		t = capacity - 1
	}
	if t == 0 {
		t = 1
	}
	return t
}

// sentinel returns the terminal slot one past the real array.
func (m *Map[K, V]) sentinel() *Slot[K, V] {
	return m.slots.At(m.capacity)
}

// findForInsert probes for key with hash h. If the key is live in the table
// its slot is returned with ok=true. Otherwise the returned slot is where a
// new entry for the key belongs: the first tombstone seen on the probe run,
// or failing that the free slot that terminated it. The whole run up to the
// terminating free slot is scanned even when a tombstone appears early,
// because the key may still be live beyond it and must not end up occupying
// two slots.
func (m *Map[K, V]) findForInsert(h uint64, key K) (_ *Slot[K, V], ok bool) {
	var vacant *Slot[K, V]
	i := h & m.mask
	for {
		s := m.slots.At(i)
		switch {
		case s.state == slotFree:
			if vacant == nil {
				vacant = s
			}
			return vacant, false
		case s.state == slotTombstone:
			if vacant == nil {
				vacant = s
			}
		case s.hash == h && m.eq(key, s.key.get()):
			return s, true
		}
		i = (i + 1) & m.mask
	}
}

// Insert adds a value for key. A key inserted for the first time occupies a
// slot inline; inserting it again promotes the slot to an overflow list and
// appends there. Only a new key counts toward the resize threshold.
func (m *Map[K, V]) Insert(key K, value V) {
	h := m.hash(key)
	s, ok := m.findForInsert(h, key)
	if ok {
		m.appendValue(s, value)
		m.checkInvariants()
		return
	}

	// The table grows before the insert that would push the live count past
	// the threshold, and rehashes at the same capacity when tombstones have
	// eaten all but one free slot. Either way the new array has no
	// tombstones, so the key's slot must be found again.
	if m.used == m.threshold {
		m.rehash(2 * m.capacity)
		s, _ = m.findForInsert(h, key)
	} else if s.state == slotFree && m.free == 1 {
		m.rehash(m.capacity)
		s, _ = m.findForInsert(h, key)
	}

	if s.state == slotFree {
		m.free--
	}
	s.state = slotInline
	s.hash = h
	s.key.place(key)
	s.value.place(value)
	m.used++

	if debug {
		fmt.Printf("insert: hash=%016x used=%d free=%d\n", h, m.used, m.free)
	}
	m.checkInvariants()
}

// appendValue adds a value to a slot whose key is already live.
func (m *Map[K, V]) appendValue(s *Slot[K, V], value V) {
	if s.state == slotInline {
		s.list = newValueList(s.value.get(), value)
		s.value.clear()
		s.state = slotList
		return
	}
	s.list.append(value)
}

// findSlot probes for key with hash h, stopping only at a free slot.
// Tombstones are skipped but never terminate the search.
func (m *Map[K, V]) findSlot(h uint64, key K) *Slot[K, V] {
	i := h & m.mask
	for {
		s := m.slots.At(i)
		if s.state == slotFree {
			return nil
		}
		if s.state >= slotInline && s.hash == h && m.eq(key, s.key.get()) {
			return s
		}
		i = (i + 1) & m.mask
	}
}

// Lookup returns the address of the first value stored for key and the
// number of values, or (nil, 0) if the key is absent. With a single value
// the pointer refers to the slot's inline storage; with several it refers to
// element 0 of the overflow list and the remaining values follow
// contiguously. The pointer stays valid until the next operation that may
// resize the table or mutate the key's slot.
func (m *Map[K, V]) Lookup(key K) (*V, int) {
	s := m.findSlot(m.hash(key), key)
	if s == nil {
		return nil, 0
	}
	if s.state == slotInline {
		return s.value.ptr(), 1
	}
	return s.list.first(), s.list.size()
}

// GetFirstValue returns the address of the first value stored for key, or
// nil if the key is absent.
func (m *Map[K, V]) GetFirstValue(key K) *V {
	v, _ := m.Lookup(key)
	return v
}

// GetValue invokes fn once for every value stored under key.
func (m *Map[K, V]) GetValue(key K, fn func(value V)) {
	s := m.findSlot(m.hash(key), key)
	if s == nil {
		return
	}
	if s.state == slotInline {
		fn(s.value.get())
		return
	}
	for i := 0; i < s.list.size(); i++ {
		fn(*s.list.at(i))
	}
}

// AppendValues appends every value stored under key to dst and returns the
// extended slice.
func (m *Map[K, V]) AppendValues(key K, dst []V) []V {
	m.GetValue(key, func(v V) {
		dst = append(dst, v)
	})
	return dst
}

// DeleteKey removes key and all of its values, leaving a tombstone in the
// slot. It returns false if the key is not present.
func (m *Map[K, V]) DeleteKey(key K) bool {
	s := m.findSlot(m.hash(key), key)
	if s == nil {
		return false
	}
	m.collapseSlot(s)
	if debug {
		fmt.Printf("delete: used=%d free=%d\n", m.used, m.free)
	}
	m.checkInvariants()
	return true
}

// collapseSlot drops a live slot's key and values and turns it into a
// tombstone.
func (m *Map[K, V]) collapseSlot(s *Slot[K, V]) {
	s.key.clear()
	s.value.clear()
	s.list = nil
	s.state = slotTombstone
	m.used--
}

// Delete removes the single value the iterator is positioned on. If that
// value is the slot's only one the whole slot collapses to a tombstone as in
// DeleteKey; otherwise the value is removed from the overflow list and the
// list collapses back to inline storage when one value remains. The iterator
// and any other iterator or pointer into the same slot are invalidated.
func (m *Map[K, V]) Delete(it Iterator[K, V]) {
	s := it.s
	if s.state == slotInline || s.list.size() == 1 {
		m.collapseSlot(s)
		m.checkInvariants()
		return
	}
	s.list.removeAt(int(it.vi))
	if s.list.size() == 1 {
		s.value.place(*s.list.first())
		s.list = nil
		s.state = slotInline
	}
	m.checkInvariants()
}

// All calls yield for each key and value in the table, in slot order, until
// yield returns false. A key with several values is yielded once per value.
// The table must not be mutated during the iteration.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	for i := uint64(0); i < m.capacity; i++ {
		s := m.slots.At(i)
		if !s.hasValues() {
			continue
		}
		if s.state == slotInline {
			if !yield(s.key.get(), s.value.get()) {
				return
			}
			continue
		}
		for j := 0; j < s.list.size(); j++ {
			if !yield(s.key.get(), *s.list.at(j)) {
				return
			}
		}
	}
}

// Len returns the number of live keys in the table. Keys with several
// values count once.
func (m *Map[K, V]) Len() int {
	return int(m.used)
}

// Capacity returns the current slot count.
func (m *Map[K, V]) Capacity() uint64 {
	return m.capacity
}

// ResizeThreshold returns the live-key count at which the next new-key
// insert will grow the table.
func (m *Map[K, V]) ResizeThreshold() uint64 {
	return m.threshold
}

// rehash moves every live slot into a fresh array of newCapacity slots,
// probing with the stored hashes only. The fresh array has no tombstones,
// so every probe run ends at the first free slot. Slot contents, including
// any overflow-list pointer, relocate wholesale; the live keys and values
// are not logically disturbed and used is unchanged. All iterators and
// lookup pointers are invalidated.
func (m *Map[K, V]) rehash(newCapacity uint64) {
	oldSlots := m.slots
	oldCapacity := m.capacity

	slots := m.allocSlots(newCapacity)
	fresh := makeUnsafeSlice(slots)
	mask := newCapacity - 1
	for i := uint64(0); i < oldCapacity; i++ {
		src := oldSlots.At(i)
		if !src.hasValues() {
			continue
		}
		j := src.hash & mask
		for fresh.At(j).state != slotFree {
			j = (j + 1) & mask
		}
		*fresh.At(j) = *src
		src.key.clear()
		src.value.clear()
		src.list = nil
	}

	m.install(slots, newCapacity)
	m.allocator.FreeSlots(unsafe.Slice((*Slot[K, V])(oldSlots.ptr), oldCapacity+1))

	if debug {
		fmt.Printf("rehash: capacity=%d->%d threshold=%d\n",
			oldCapacity, newCapacity, m.threshold)
	}
	m.checkInvariants()
}

func (m *Map[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	if m.capacity&(m.capacity-1) != 0 {
		panic(fmt.Sprintf("hashindex: capacity %d is not a power of two", m.capacity))
	}
	if m.used > m.threshold {
		panic(fmt.Sprintf("hashindex: used %d above threshold %d", m.used, m.threshold))
	}
	if m.sentinel().state != slotInline {
		panic("hashindex: sentinel slot is not in its terminal state")
	}

	var used, free uint64
	for i := uint64(0); i < m.capacity; i++ {
		s := m.slots.At(i)
		switch s.state {
		case slotFree:
			free++
			continue
		case slotTombstone:
			continue
		}
		used++
		if h := m.hash(s.key.get()); h != s.hash {
			panic(fmt.Sprintf("hashindex: slot %d stored hash %016x but key hashes to %016x", i, s.hash, h))
		}
		switch s.state {
		case slotInline:
			if s.list != nil {
				panic(fmt.Sprintf("hashindex: inline slot %d carries an overflow list", i))
			}
		case slotList:
			if s.list == nil || s.list.size() < 2 {
				panic(fmt.Sprintf("hashindex: overflow slot %d has fewer than two values", i))
			}
		}
	}
	if used != m.used {
		panic(fmt.Sprintf("hashindex: found %d live slots, used count is %d", used, m.used))
	}
	if free != m.free {
		panic(fmt.Sprintf("hashindex: found %d free slots, free count is %d", free, m.free))
	}
}
