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

// bucketEntry is one heap-allocated entry of a BucketMap.
type bucketEntry[K any, V any] struct {
	hash  uint64
	next  *bucketEntry[K, V]
	key   K
	value V
}

// BucketMap is a closed-addressing hash table with one independent
// collision chain per bucket. Insertion pushes onto the chain head in
// constant time with no cross-bucket bookkeeping; the price is that
// iterating the whole table must scan the bucket array. The engine supports
// insertion and lookup only; there is no deletion.
//
// A BucketMap is NOT goroutine-safe.
type BucketMap[K any, V any] struct {
	hash      HashFunc[K]
	eq        EqualFunc[K]
	lf        LoadFactor
	buckets   []*bucketEntry[K, V]
	capacity  uint64
	mask      uint64
	used      uint64
	threshold uint64
}

// NewBucketMap constructs an empty BucketMap. The initial capacity request
// is rounded up to a power of two and floored at 32 buckets; a request of
// zero gets the bucket count that fills one VM page with pointers. The
// default load-factor policy is LoadFactorPercent(400).
func NewBucketMap[K any, V any](initialCapacity int, hash HashFunc[K], eq EqualFunc[K], opts ...BucketOption[K, V]) *BucketMap[K, V] {
	m := &BucketMap[K, V]{
		hash: hash,
		eq:   eq,
		lf:   LoadFactorPercent(400),
	}
	for _, op := range opts {
		op.applyBucket(m)
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
	m.buckets = make([]*bucketEntry[K, V], m.capacity)

	if debug {
		fmt.Printf("newbucket: capacity=%d threshold=%d\n", m.capacity, m.threshold)
	}
	return m
}

// resize doubles the bucket array and relinks every entry onto the head of
// its new chain. Entries are rehomed using their stored hashes, not
// reallocated.
func (m *BucketMap[K, V]) resize() {
	old := m.buckets
	m.capacity <<= 1
	m.mask = m.capacity - 1
	m.threshold = m.lf(m.capacity)
	m.buckets = make([]*bucketEntry[K, V], m.capacity)

	for _, e := range old {
		for e != nil {
			next := e.next
			b := e.hash & m.mask
			e.next = m.buckets[b]
			m.buckets[b] = e
			e = next
		}
	}

	if debug {
		fmt.Printf("bucketresize: capacity=%d threshold=%d\n", m.capacity, m.threshold)
	}
}

// Insert adds a key value pair to the table. Every insert creates a new
// entry; duplicate keys accumulate.
func (m *BucketMap[K, V]) Insert(key K, value V) {
	if m.used == m.threshold {
		m.resize()
	}
	h := m.hash(key)
	b := h & m.mask
	m.buckets[b] = &bucketEntry[K, V]{hash: h, next: m.buckets[b], key: key, value: value}
	m.used++
	m.checkInvariants()
}

// GetValue invokes fn once for every value stored under key. The stored
// hash is compared before the equality predicate, which keeps the walk
// correct under any pair of functors and skips the predicate for entries
// that merely share the bucket.
func (m *BucketMap[K, V]) GetValue(key K, fn func(value V)) {
	h := m.hash(key)
	for e := m.buckets[h&m.mask]; e != nil; e = e.next {
		if e.hash == h && m.eq(key, e.key) {
			fn(e.value)
		}
	}
}

// AppendValues appends every value stored under key to dst and returns the
// extended slice.
func (m *BucketMap[K, V]) AppendValues(key K, dst []V) []V {
	m.GetValue(key, func(v V) {
		dst = append(dst, v)
	})
	return dst
}

// All calls yield for each key and value in the table until yield returns
// false, scanning the bucket array and walking each chain. The table must
// not be mutated during the iteration.
func (m *BucketMap[K, V]) All(yield func(key K, value V) bool) {
	for _, e := range m.buckets {
		for ; e != nil; e = e.next {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Len returns the number of entries in the table. Duplicate keys count once
// per inserted value.
func (m *BucketMap[K, V]) Len() int {
	return int(m.used)
}

// Capacity returns the current bucket count.
func (m *BucketMap[K, V]) Capacity() uint64 {
	return m.capacity
}

// ResizeThreshold returns the entry count at which the next insert will
// double the bucket array.
func (m *BucketMap[K, V]) ResizeThreshold() uint64 {
	return m.threshold
}

func (m *BucketMap[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	if m.capacity&(m.capacity-1) != 0 {
		panic(fmt.Sprintf("hashindex: capacity %d is not a power of two", m.capacity))
	}
	var n uint64
	for b, e := range m.buckets {
		for ; e != nil; e = e.next {
			n++
			if home := e.hash & m.mask; home != uint64(b) {
				panic(fmt.Sprintf("hashindex: entry with home bucket %d chained under bucket %d", home, b))
			}
		}
	}
	if n != m.used {
		panic(fmt.Sprintf("hashindex: chains hold %d entries, used count is %d", n, m.used))
	}
}
