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

// Package hashindex provides in-process hash table engines intended for use
// as database index primitives: mappings from a key to one or more values
// with bulk insertion, point lookup, per-key value iteration and (where the
// engine supports it) deletion.
//
// Three engines share the same external purpose but use different internal
// layouts, so the engine can be chosen to match the workload mix (unique vs
// duplicate-heavy keys, insert- vs read-dominant, small vs large payloads):
//
//   - Map is an open-addressing table with linear probing. Each slot stores
//     one key inline together with either a single inline value or a
//     heap-allocated overflow list holding every value for that key. It
//     supports insertion, lookup, deletion of whole keys or single values,
//     full-table iteration and per-key iteration. This is the cache-friendly
//     engine: a lookup for a unique key touches a single contiguous run of
//     slots and no out-of-line memory.
//
//   - ChainMap is a closed-addressing table whose buckets point into a
//     single global singly-linked list threading every live entry. Entries
//     that share a bucket are adjacent in the list, and each bucket slot
//     points at the list node preceding its first entry, so insertion at the
//     head of a bucket's run redirects at most one other bucket. Iterating
//     the whole table is a plain list walk, constant time per step. Insert
//     and lookup only; no deletion.
//
//   - BucketMap is a closed-addressing table with one independent collision
//     chain per bucket. It has the simplest insert path of the three and the
//     cheapest lookup per probe, at the cost of iteration having to scan the
//     bucket array. Insert and lookup only; no deletion.
//
// All engines take the hash function, the key equality predicate and the
// load-factor policy as parameters, which makes the key type unconstrained:
// any type can be a key as long as the caller can hash and compare it. The
// hashers package provides ready-made hash functions for common key types.
//
// None of the engines is goroutine-safe. Pointers and iterators returned by
// lookups remain valid only until the next mutating operation on the same
// table; a resize, an overflow-list growth or a deletion at the same slot
// invalidates them.
package hashindex
