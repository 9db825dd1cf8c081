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

// Option configures a Map while it is being created.
type Option[K any, V any] interface {
	apply(m *Map[K, V])
}

type loadFactorOption[K any, V any] struct {
	lf LoadFactor
}

func (op loadFactorOption[K, V]) apply(m *Map[K, V]) {
	m.lf = op.lf
}

// WithLoadFactor is an option replacing a Map's load-factor policy. The
// policy must return strictly fewer entries than the capacity it is given;
// the Map caps policies that do not.
func WithLoadFactor[K any, V any](lf LoadFactor) Option[K, V] {
	return loadFactorOption[K, V]{lf}
}

// Allocator specifies an interface for allocating and releasing the slot
// array used by a Map. The default allocator uses Go's builtin make() and
// lets the GC reclaim memory.
//
// If the allocator manages memory manually and requires that slot arrays be
// freed then Map.Close must be called to ensure FreeSlots is invoked for
// the final array.
type Allocator[K any, V any] interface {
	// AllocSlots returns a slice equivalent to make([]Slot[K,V], n). The
	// slots must be zeroed.
	AllocSlots(n int) []Slot[K, V]

	// FreeSlots may release the memory of the supplied slice, which is
	// guaranteed to have been returned by AllocSlots.
	FreeSlots(v []Slot[K, V])
}

type defaultAllocator[K any, V any] struct{}

func (defaultAllocator[K, V]) AllocSlots(n int) []Slot[K, V] {
	return make([]Slot[K, V], n)
}

func (defaultAllocator[K, V]) FreeSlots(v []Slot[K, V]) {
}

type allocatorOption[K any, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option replacing the Allocator used for a Map's slot
// arrays.
func WithAllocator[K any, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}

// ChainOption configures a ChainMap while it is being created.
type ChainOption[K any, V any] interface {
	applyChain(m *ChainMap[K, V])
}

type chainLoadFactorOption[K any, V any] struct {
	lf LoadFactor
}

func (op chainLoadFactorOption[K, V]) applyChain(m *ChainMap[K, V]) {
	m.lf = op.lf
}

// WithChainLoadFactor is an option replacing a ChainMap's load-factor
// policy. Policies above 100% are the norm for this engine.
func WithChainLoadFactor[K any, V any](lf LoadFactor) ChainOption[K, V] {
	return chainLoadFactorOption[K, V]{lf}
}

// BucketOption configures a BucketMap while it is being created.
type BucketOption[K any, V any] interface {
	applyBucket(m *BucketMap[K, V])
}

type bucketLoadFactorOption[K any, V any] struct {
	lf LoadFactor
}

func (op bucketLoadFactorOption[K, V]) applyBucket(m *BucketMap[K, V]) {
	m.lf = op.lf
}

// WithBucketLoadFactor is an option replacing a BucketMap's load-factor
// policy. Policies above 100% are the norm for this engine.
func WithBucketLoadFactor[K any, V any](lf LoadFactor) BucketOption[K, V] {
	return bucketLoadFactorOption[K, V]{lf}
}
