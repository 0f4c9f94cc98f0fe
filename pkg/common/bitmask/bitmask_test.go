/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package bitmask

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
	"pgregory.net/rapid"

	"github.com/megha-sim/megha-core/pkg/common"
)

func TestParseBitString(t *testing.T) {
	m, err := ParseBitString("0b10110")
	assert.NilError(t, err)
	assert.Equal(t, 5, m.Size())
	assert.DeepEqual(t, []int{0, 2, 3}, m.SetBits())
	assert.Equal(t, "0b10110", m.String())

	m, err = ParseBitString("0111")
	assert.NilError(t, err, "prefix should be optional")
	assert.DeepEqual(t, []int{1, 2, 3}, m.SetBits())

	_, err = ParseBitString("0b")
	assert.ErrorContains(t, err, "empty bit string")
	_, err = ParseBitString("0b10x1")
	assert.ErrorContains(t, err, "invalid character")
}

func TestFullMask(t *testing.T) {
	for _, size := range []int{0, 1, 63, 64, 65, 130} {
		m := NewFullMask(size)
		assert.Equal(t, size, m.FreeCount(), "size %d", size)
		assert.Equal(t, 0, m.BusyCount(), "size %d", size)
		assert.Equal(t, size == 0, m.IsZero(), "size %d", size)
	}
}

func TestAllocateFree(t *testing.T) {
	m := NewFullMask(70)
	assert.NilError(t, m.Allocate(65))
	assert.Assert(t, !m.IsFree(65))
	assert.Equal(t, 69, m.FreeCount())

	err := m.Allocate(65)
	assert.Assert(t, errors.Is(err, common.ErrAlreadyBusy), "double allocate should fail: %v", err)
	assert.NilError(t, m.Free(65))
	err = m.Free(65)
	assert.Assert(t, errors.Is(err, common.ErrAlreadyFree), "double free should fail: %v", err)

	err = m.Allocate(70)
	assert.Assert(t, errors.Is(err, common.ErrNodeOutOfRange))
	err = m.Free(-1)
	assert.Assert(t, errors.Is(err, common.ErrNodeOutOfRange))
	assert.Assert(t, !m.IsFree(100))
}

func TestSetIsIdempotent(t *testing.T) {
	m := NewFullMask(4)
	assert.NilError(t, m.Set(1, false))
	assert.NilError(t, m.Set(1, false))
	assert.Equal(t, "0b1011", m.String())
	assert.NilError(t, m.Set(1, true))
	assert.NilError(t, m.Set(1, true))
	assert.Equal(t, "0b1111", m.String())
	assert.Assert(t, m.Set(4, true) != nil)
}

func TestAndAndClone(t *testing.T) {
	a, _ := ParseBitString("0b1100")
	b, _ := ParseBitString("0b1010")
	c := a.And(b)
	assert.Equal(t, "0b1000", c.String())
	assert.Equal(t, "0b1100", a.String(), "And must not change the receiver")

	clone := a.Clone()
	assert.Assert(t, clone.Equal(a))
	assert.NilError(t, clone.Allocate(0))
	assert.Assert(t, !clone.Equal(a))
	assert.Assert(t, !a.Equal(nil))
	assert.Assert(t, !a.Equal(NewFullMask(5)))
}

// Every allocate is paired with one free before the node can be allocated again, and the
// free and busy counts always add up to the width.
func TestMaskConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 200).Draw(t, "size")
		m := NewFullMask(size)
		allocated := make(map[int]bool)
		ops := rapid.SliceOfN(rapid.IntRange(0, size-1), 1, 500).Draw(t, "ops")
		for _, node := range ops {
			if allocated[node] {
				if err := m.Allocate(node); !errors.Is(err, common.ErrAlreadyBusy) {
					t.Fatalf("allocate of busy node %d returned %v", node, err)
				}
				if err := m.Free(node); err != nil {
					t.Fatalf("free of busy node %d failed: %v", node, err)
				}
				delete(allocated, node)
			} else {
				if err := m.Allocate(node); err != nil {
					t.Fatalf("allocate of free node %d failed: %v", node, err)
				}
				allocated[node] = true
			}
			if m.FreeCount()+m.BusyCount() != size {
				t.Fatalf("free %d + busy %d != size %d", m.FreeCount(), m.BusyCount(), size)
			}
			if m.BusyCount() != len(allocated) {
				t.Fatalf("busy count %d, expected %d", m.BusyCount(), len(allocated))
			}
		}
	})
}
