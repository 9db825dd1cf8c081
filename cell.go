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

// cell wraps a T whose liveness is decided by the enclosing slot's state tag
// rather than by the cell itself. A slot array is allocated zeroed and cells
// in slots that were never live are never written. place stores a value,
// clear re-zeroes the storage so that a dead slot does not pin whatever K or
// V references, and ptr borrows the stored value in place.
type cell[T any] struct {
	v T
}

func (c *cell[T]) place(v T) {
	c.v = v
}

func (c *cell[T]) clear() {
	var zero T
	c.v = zero
}

func (c *cell[T]) ptr() *T {
	return &c.v
}

func (c *cell[T]) get() T {
	return c.v
}

// unsafeSlice provides semi-ergonomic limited slice-like functionality
// without bounds checking for fixed sized slices.
type unsafeSlice[T any] struct {
	ptr unsafe.Pointer
}

func makeUnsafeSlice[T any](s []T) unsafeSlice[T] {
	return unsafeSlice[T]{ptr: unsafe.Pointer(unsafe.SliceData(s))}
}

// At returns a pointer to the element at index i.
func (s unsafeSlice[T]) At(i uint64) *T {
	var t T
	return (*T)(unsafe.Add(s.ptr, uintptr(unsafe.Sizeof(t))*uintptr(i)))
}
