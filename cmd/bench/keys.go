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

package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// mapKeysFile maps a binary workload file of 8-byte little-endian keys and
// decodes it. The mapping is read sequentially exactly once, which the
// kernel is advised of on platforms that support it. The returned cleanup
// unmaps the file.
func mapKeysFile(path string) (keys []uint64, cleanup func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(data)%8 != 0 {
		data.Unmap()
		return nil, nil, fmt.Errorf("size %d is not a multiple of 8", len(data))
	}
	adviseSequential(data)

	keys = make([]uint64, len(data)/8)
	for i := range keys {
		keys[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
	return keys, func() { data.Unmap() }, nil
}
