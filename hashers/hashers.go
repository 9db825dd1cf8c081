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

// Package hashers provides ready-made hash functions and equality
// predicates for the hashindex engines. Every hash function here is plain
// and assignable to hashindex.HashFunc for its key type.
//
// For byte-slice and string keys the functions delegate to established
// hashing libraries (xxhash, xxh3, murmur3). For 64-bit integer keys Uint64
// applies a finalizer-style mixer: integer keys tend to cluster in narrow
// intervals, and an open-addressing table indexed by the low bits of the
// raw value would degenerate into long contiguous runs.
package hashers

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/sha3"
)

// Uint64 mixes a 64-bit integer key with the MurmurHash3 finalizer,
// spreading consecutive keys across the whole 64-bit range.
func Uint64(v uint64) uint64 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	v *= 0xc4ceb9fe1a85ec53
	v ^= v >> 33
	return v
}

// Uint64Identity maps a 64-bit integer key to itself. Adequate for
// chaining engines when keys are already well spread; poor for
// open addressing.
func Uint64Identity(v uint64) uint64 {
	return v
}

// Zero hashes every key to zero. It degrades any engine to a single probe
// run or chain and exists to exercise worst-case collision behavior in
// tests.
func Zero[K any](K) uint64 {
	return 0
}

// Bytes hashes a byte-slice key with xxhash (XXH64).
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// BytesString hashes a string key with xxhash (XXH64), without copying.
func BytesString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// String hashes a string key with XXH3.
func String(s string) uint64 {
	return xxh3.HashString(s)
}

// StringSeed hashes a string key with XXH3 under the given seed. Distinct
// seeds give independent tables distinct probe orders for the same keys.
func StringSeed(s string, seed uint64) uint64 {
	return xxh3.HashStringSeed(s, seed)
}

// Murmur hashes a byte-slice key with MurmurHash3's 128-bit variant,
// truncated to 64 bits.
func Murmur(b []byte) uint64 {
	return murmur3.Sum64(b)
}

// Strong hashes a byte-slice key with SHA3-256 truncated to 64 bits. It is
// far slower than the other byte hashers and is meant for keys supplied by
// untrusted parties, where an attacker who can predict the hash function
// can manufacture collisions and degenerate probe runs.
func Strong(b []byte) uint64 {
	d := sha3.Sum256(b)
	return binary.LittleEndian.Uint64(d[:8])
}

// EqualOf returns the == predicate for a comparable key type.
func EqualOf[K comparable]() func(K, K) bool {
	return func(a, b K) bool {
		return a == b
	}
}

// BytesEqual is the equality predicate for byte-slice keys.
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
