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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFactorPolicies(t *testing.T) {
	require.EqualValues(t, 32, LoadFactorHalfFull(64))
	require.EqualValues(t, 48, LoadFactorThreeQuarters(64))
	require.EqualValues(t, 48, LoadFactorPercent(75)(64))
	// Percentages are floored.
	require.EqualValues(t, 0, LoadFactorPercent(75)(1))
	require.EqualValues(t, 21, LoadFactorPercent(33)(64))
	// Chaining policies exceed the capacity.
	require.EqualValues(t, 256, LoadFactorPercent(400)(64))
}

func TestRoundCapacity(t *testing.T) {
	testCases := []struct {
		requested uint64
		expected  uint64
	}{
		{0, 32},
		{1, 32},
		{31, 32},
		{32, 32},
		{33, 64},
		{100, 128},
		{512, 512},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			require.Equal(t, c.expected, roundCapacity(c.requested))
		})
	}
}
