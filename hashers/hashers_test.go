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

package hashers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64Mixes(t *testing.T) {
	// Consecutive keys must not collide, and their low bits (which become
	// slot indexes) must cover every value of the low six bits.
	seen := make(map[uint64]bool)
	lowBits := make(map[uint64]bool)
	for i := uint64(0); i < 1000; i++ {
		h := Uint64(i)
		require.False(t, seen[h], "collision at %d", i)
		seen[h] = true
		lowBits[h&63] = true
	}
	require.Len(t, lowBits, 64)

	// The finalizer is a fixed function of its input.
	require.Equal(t, Uint64(12345), Uint64(12345))
	require.Zero(t, Uint64(0))
}

func TestUint64Identity(t *testing.T) {
	require.EqualValues(t, 42, Uint64Identity(42))
}

func TestZero(t *testing.T) {
	require.Zero(t, Zero(uint64(99)))
	require.Zero(t, Zero("anything"))
}

func TestByteHashersDeterministic(t *testing.T) {
	key := []byte("index-key-0001")
	for _, fn := range []func([]byte) uint64{Bytes, Murmur, Strong} {
		h1 := fn(key)
		h2 := fn(append([]byte(nil), key...))
		require.Equal(t, h1, h2)
		require.NotEqual(t, h1, fn([]byte("index-key-0002")))
	}
}

func TestBytesStringMatchesBytes(t *testing.T) {
	s := "index-key-0001"
	require.Equal(t, Bytes([]byte(s)), BytesString(s))
}

func TestStringSeed(t *testing.T) {
	s := "index-key-0001"
	require.Equal(t, String(s), StringSeed(s, 0))
	require.NotEqual(t, StringSeed(s, 1), StringSeed(s, 2))
}

func TestEqualOf(t *testing.T) {
	eq := EqualOf[uint64]()
	require.True(t, eq(5, 5))
	require.False(t, eq(5, 6))

	seq := EqualOf[string]()
	require.True(t, seq("a", "a"))
	require.False(t, seq("a", "b"))
}

func TestBytesEqual(t *testing.T) {
	require.True(t, BytesEqual([]byte("ab"), []byte("ab")))
	require.False(t, BytesEqual([]byte("ab"), []byte("ac")))
	require.True(t, BytesEqual(nil, []byte{}))
}
