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

import "fmt"

// chainEntry is one heap-allocated entry of a ChainMap. The hash is stored
// in full so that resize and run-boundary checks never recompute it.
type chainEntry[K any, V any] struct {
	hash  uint64
	next  *chainEntry[K, V]
	key   K
	value V
}

// ChainMap is a closed-addressing hash table whose entries form one global
// singly-linked list headed by a dummy node owned by the table. Entries
// that share a home bucket are adjacent in the list, and each non-empty
// bucket points at the list node preceding its run: for every non-nil
// buckets[b], buckets[b].next is the first entry with home bucket b. That
// predecessor encoding is what makes insertion at the global head cheap —
// it redirects at most one other bucket, the one whose run the new entry
// now precedes.
//
// The global thread gives full-table iteration constant cost per step. The
// engine supports insertion and lookup only; there is no deletion.
//
// A ChainMap is NOT goroutine-safe.
type ChainMap[K any, V any] struct {
	hash HashFunc[K]
	eq   EqualFunc[K]
	lf   LoadFactor
	// buckets[b] is nil or points at the predecessor of bucket b's run in
	// the global list. For the run at the head of the list the predecessor
	// is the dummy node.
	buckets   []*chainEntry[K, V]
	dummy     chainEntry[K, V]
	capacity  uint64
	mask      uint64
	used      uint64
	threshold uint64
}

// NewChainMap constructs an empty ChainMap. The initial capacity request is
// rounded up to a power of two and floored at 32 buckets; a request of zero
// gets the bucket count that fills one VM page with pointers. The default
// load-factor policy is LoadFactorPercent(400): the table tolerates four
// entries per bucket before doubling.
func NewChainMap[K any, V any](initialCapacity int, hash HashFunc[K], eq EqualFunc[K], opts ...ChainOption[K, V]) *ChainMap[K, V] {
	m := &ChainMap[K, V]{
		hash: hash,
		eq:   eq,
		lf:   LoadFactorPercent(400),
	}
	for _, op := range opts {
		op.applyChain(m)
	}

	if initialCapacity < 0 {
		initialCapacity = 0
	}
	requested := uint64(initialCapacity)
	if requested == 0 {
		requested = pageSize / 8
	}
	m.capacity = roundCapacity(requested)
	m.mask = m.capacity - 1
	m.threshold = m.lf(m.capacity)
	m.buckets = make([]*chainEntry[K, V], m.capacity)

	if debug {
		fmt.Printf("newchain: capacity=%d threshold=%d\n", m.capacity, m.threshold)
	}
	return m
}

// insertIntoBucket threads e into the global list as the new first entry of
// bucket b's run. It does not touch the entry count; resize reuses it to
// re-thread existing entries.
func (m *ChainMap[K, V]) insertIntoBucket(e *chainEntry[K, V], b uint64) {
	p := m.buckets[b]
	if p == nil {
		// The bucket has no run yet. Splice e in right after the dummy
		// head; its predecessor is the dummy, which is what the bucket
		// records.
		first := m.dummy.next
		e.next = first
		m.dummy.next = e
		m.buckets[b] = &m.dummy
		if first != nil {
			// first led its own bucket's run with the dummy as predecessor.
			// e now precedes that run, so the one other bucket pointer
			// moves onto e. first's home bucket cannot be b, which had no
			// entries.
			m.buckets[first.hash&m.mask] = e
		}
		return
	}
	// The bucket already has a run. e becomes its new first entry, between
	// the recorded predecessor and the old first; the predecessor, and with
	// it the bucket pointer, is unchanged.
	e.next = p.next
	p.next = e
}

// resize doubles the bucket array and re-threads every entry of the global
// list against the new mask, exactly as if each were being inserted into a
// fresh table. Each entry's successor is saved before re-threading mutates
// it.
func (m *ChainMap[K, V]) resize() {
	m.capacity <<= 1
	m.mask = m.capacity - 1
	m.threshold = m.lf(m.capacity)
	m.buckets = make([]*chainEntry[K, V], m.capacity)

	e := m.dummy.next
	m.dummy.next = nil
	for e != nil {
		next := e.next
		m.insertIntoBucket(e, e.hash&m.mask)
		e = next
	}

	if debug {
		fmt.Printf("chainresize: capacity=%d threshold=%d\n", m.capacity, m.threshold)
	}
}

// Insert adds a key value pair to the table. Every insert creates a new
// entry; duplicate keys accumulate.
func (m *ChainMap[K, V]) Insert(key K, value V) {
	if m.used == m.threshold {
		m.resize()
	}
	h := m.hash(key)
	e := &chainEntry[K, V]{hash: h, key: key, value: value}
	m.insertIntoBucket(e, h&m.mask)
	m.used++
	m.checkInvariants()
}

// GetValue invokes fn once for every value stored under key. The walk
// starts at the bucket's recorded predecessor and covers the bucket's
// contiguous run; entries are emitted when the stored hash and the equality
// predicate both match.
func (m *ChainMap[K, V]) GetValue(key K, fn func(value V)) {
	h := m.hash(key)
	b := h & m.mask
	p := m.buckets[b]
	if p == nil {
		return
	}
	for e := p.next; e != nil && e.hash&m.mask == b; e = e.next {
		if e.hash == h && m.eq(key, e.key) {
			fn(e.value)
		}
	}
}

// AppendValues appends every value stored under key to dst and returns the
// extended slice.
func (m *ChainMap[K, V]) AppendValues(key K, dst []V) []V {
	m.GetValue(key, func(v V) {
		dst = append(dst, v)
	})
	return dst
}

// All calls yield for each key and value in the table until yield returns
// false. The walk follows the global list, so each step is constant time
// regardless of how sparse the bucket array is. The table must not be
// mutated during the iteration.
func (m *ChainMap[K, V]) All(yield func(key K, value V) bool) {
	for e := m.dummy.next; e != nil; e = e.next {
		if !yield(e.key, e.value) {
			return
		}
	}
}

// Len returns the number of entries in the table. Duplicate keys count once
// per inserted value.
func (m *ChainMap[K, V]) Len() int {
	return int(m.used)
}

// Capacity returns the current bucket count.
func (m *ChainMap[K, V]) Capacity() uint64 {
	return m.capacity
}

// ResizeThreshold returns the entry count at which the next insert will
// double the bucket array.
func (m *ChainMap[K, V]) ResizeThreshold() uint64 {
	return m.threshold
}

func (m *ChainMap[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	if m.capacity&(m.capacity-1) != 0 {
		panic(fmt.Sprintf("hashindex: capacity %d is not a power of two", m.capacity))
	}
	// Every non-nil bucket's successor must exist and open that bucket's
	// run.
	for b, p := range m.buckets {
		if p == nil {
			continue
		}
		if p.next == nil {
			panic(fmt.Sprintf("hashindex: bucket %d points at the list tail", b))
		}
		if home := p.next.hash & m.mask; home != uint64(b) {
			panic(fmt.Sprintf("hashindex: bucket %d run opens with home bucket %d", b, home))
		}
	}
	// The global list holds exactly used entries and keeps each bucket's
	// entries contiguous.
	var n uint64
	seen := make(map[uint64]bool)
	prev := ^uint64(0)
	for e := m.dummy.next; e != nil; e = e.next {
		n++
		home := e.hash & m.mask
		if home != prev {
			if seen[home] {
				panic(fmt.Sprintf("hashindex: bucket %d run is not contiguous", home))
			}
			seen[home] = true
			prev = home
		}
	}
	if n != m.used {
		panic(fmt.Sprintf("hashindex: global list holds %d entries, used count is %d", n, m.used))
	}
}
