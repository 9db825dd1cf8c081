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
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	var cases = []int{
		64,
		512,
		4096,
		1 << 16,
		1 << 20,
	}
	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func benchKeys(n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i)
	}
	return keys
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(func(b *testing.B, n int) {
		m := make(map[uint64]uint64, n)
		keys := benchKeys(n)
		for _, k := range keys {
			m[k] = k
		}
		b.ResetTimer()
		cs := perfbench.Open(b)
		for i := 0; i < b.N; i++ {
			_ = m[keys[i%n]]
		}
		cs.Stop()
	}))
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		m := newUint64Map(n)
		keys := benchKeys(n)
		for _, k := range keys {
			m.Insert(k, k)
		}
		b.ResetTimer()
		cs := perfbench.Open(b)
		for i := 0; i < b.N; i++ {
			_ = m.GetFirstValue(keys[i%n])
		}
		cs.Stop()
	}))
	b.Run("impl=bucket", benchSizes(func(b *testing.B, n int) {
		m := newUint64BucketMap(n)
		keys := benchKeys(n)
		for _, k := range keys {
			m.Insert(k, k)
		}
		b.ResetTimer()
		cs := perfbench.Open(b)
		var sink uint64
		for i := 0; i < b.N; i++ {
			m.GetValue(keys[i%n], func(v uint64) { sink = v })
		}
		cs.Stop()
		_ = sink
	}))
	b.Run("impl=chain", benchSizes(func(b *testing.B, n int) {
		m := newUint64ChainMap(n)
		keys := benchKeys(n)
		for _, k := range keys {
			m.Insert(k, k)
		}
		b.ResetTimer()
		cs := perfbench.Open(b)
		var sink uint64
		for i := 0; i < b.N; i++ {
			m.GetValue(keys[i%n], func(v uint64) { sink = v })
		}
		cs.Stop()
		_ = sink
	}))
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		m := newUint64Map(0)
		keys := benchKeys(n)
		for _, k := range keys {
			m.Insert(k, k)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = m.GetFirstValue(uint64(n + i%n))
		}
	}))
}

func BenchmarkInsertGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n)
		for i := 0; i < b.N; i++ {
			m := make(map[uint64]uint64)
			for _, k := range keys {
				m[k] = k
			}
		}
	}))
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n)
		for i := 0; i < b.N; i++ {
			m := newUint64Map(0)
			for _, k := range keys {
				m.Insert(k, k)
			}
		}
	}))
	b.Run("impl=chain", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n)
		for i := 0; i < b.N; i++ {
			m := newUint64ChainMap(0)
			for _, k := range keys {
				m.Insert(k, k)
			}
		}
	}))
	b.Run("impl=bucket", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n)
		for i := 0; i < b.N; i++ {
			m := newUint64BucketMap(0)
			for _, k := range keys {
				m.Insert(k, k)
			}
		}
	}))
}

func BenchmarkInsertDuplicates(b *testing.B) {
	// Four values per key exercises the overflow-list promotion and append
	// paths that a unique-key workload never touches.
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n / 4)
		for i := 0; i < b.N; i++ {
			m := newUint64Map(0)
			for d := uint64(0); d < 4; d++ {
				for _, k := range keys {
					m.Insert(k, k+d)
				}
			}
		}
	}))
}

func BenchmarkIterate(b *testing.B) {
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		m := newUint64Map(n)
		for _, k := range benchKeys(n) {
			m.Insert(k, k)
		}
		b.ResetTimer()
		var sink uint64
		for i := 0; i < b.N; i++ {
			for it := m.Begin(); it != m.End(); it.Next() {
				sink += *it.Value()
			}
		}
		_ = sink
	}))
	b.Run("impl=chain", benchSizes(func(b *testing.B, n int) {
		m := newUint64ChainMap(n)
		for _, k := range benchKeys(n) {
			m.Insert(k, k)
		}
		b.ResetTimer()
		var sink uint64
		for i := 0; i < b.N; i++ {
			m.All(func(_, v uint64) bool {
				sink += v
				return true
			})
		}
		_ = sink
	}))
	b.Run("impl=bucket", benchSizes(func(b *testing.B, n int) {
		m := newUint64BucketMap(n)
		for _, k := range benchKeys(n) {
			m.Insert(k, k)
		}
		b.ResetTimer()
		var sink uint64
		for i := 0; i < b.N; i++ {
			m.All(func(_, v uint64) bool {
				sink += v
				return true
			})
		}
		_ = sink
	}))
}

func BenchmarkDeleteKey(b *testing.B) {
	b.Run("impl=kvl", benchSizes(func(b *testing.B, n int) {
		keys := benchKeys(n)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			m := newUint64Map(n)
			for _, k := range keys {
				m.Insert(k, k)
			}
			b.StartTimer()
			for _, k := range keys {
				m.DeleteKey(k)
			}
		}
	}))
}
