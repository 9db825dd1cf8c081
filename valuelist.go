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

const (
	// valueListInitCap is the capacity of a freshly promoted overflow list.
	valueListInitCap = 4

	// valueListMaxCap bounds overflow-list capacity. Growth past it is
	// treated the same as allocation exhaustion.
	valueListMaxCap = 1 << 31
)

// valueList is the overflow buffer for a Map slot whose key maps to more
// than one value. A live list always holds at least two values: a slot with
// a single value stores it inline, and deletion collapses the list back to
// inline storage when it drops to one.
//
// Growth is managed by hand rather than through append so that capacity
// moves exactly through valueListInitCap, 2*valueListInitCap, ... and
// lookups can hand out stable interior pointers between mutations.
type valueList[V any] struct {
	data []V
}

// newValueList builds a list from the inline value being demoted and the
// value being inserted, in that order.
func newValueList[V any](first, second V) *valueList[V] {
	l := &valueList[V]{data: make([]V, 2, valueListInitCap)}
	l.data[0] = first
	l.data[1] = second
	return l
}

func (l *valueList[V]) size() int {
	return len(l.data)
}

// append adds a value at position size, doubling the backing array first if
// the list is full.
func (l *valueList[V]) append(v V) {
	if len(l.data) == cap(l.data) {
		if cap(l.data) >= valueListMaxCap {
			panic("hashindex: overflow list exceeds maximum capacity")
		}
		grown := make([]V, len(l.data), 2*cap(l.data))
		copy(grown, l.data)
		l.data = grown
	}
	l.data = append(l.data, v)
}

// removeAt deletes the value at index i, shifting subsequent values down.
// The caller is responsible for collapsing the list when it drops to a
// single value.
func (l *valueList[V]) removeAt(i int) {
	copy(l.data[i:], l.data[i+1:])
	var zero V
	l.data[len(l.data)-1] = zero
	l.data = l.data[:len(l.data)-1]
}

// first returns the address of element 0. It stays valid until the next
// operation that grows or shrinks the list.
func (l *valueList[V]) first() *V {
	return &l.data[0]
}

func (l *valueList[V]) at(i int) *V {
	return &l.data[i]
}
