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
	"testing"

	"gotest.tools/v3/assert"
)

func newTable(t *testing.T, bitStrings ...string) *CapabilityTable {
	masks := make([]*Mask, len(bitStrings))
	size := 0
	for i, s := range bitStrings {
		m, err := ParseBitString(s)
		assert.NilError(t, err)
		masks[i] = m
		size = m.Size()
	}
	ct, err := NewCapabilityTable(size, masks)
	assert.NilError(t, err)
	return ct
}

func TestCapabilityTable(t *testing.T) {
	ct := newTable(t, "0b1101", "0b0111", "0b0000")
	assert.Equal(t, 4, ct.Size())
	assert.Equal(t, 3, ct.NumConstraints())
	assert.DeepEqual(t, []int{0}, ct.NodeConstraints(0))
	assert.DeepEqual(t, []int{0, 1}, ct.NodeConstraints(3))
	assert.DeepEqual(t, []int{1}, ct.NodeConstraints(2))
	assert.Assert(t, ct.NodeConstraints(4) == nil)

	assert.Assert(t, ct.NodeSatisfies(1, []int{0, 1}))
	assert.Assert(t, !ct.NodeSatisfies(2, []int{0, 1}))
	assert.Assert(t, ct.NodeSatisfies(2, nil))
	assert.Assert(t, !ct.NodeSatisfies(9, nil))
}

func TestCapabilityTableSizeMismatch(t *testing.T) {
	a, _ := ParseBitString("0b11")
	b, _ := ParseBitString("0b111")
	_, err := NewCapabilityTable(2, []*Mask{a, b})
	assert.ErrorContains(t, err, "constraint 1")
}

func TestMatch(t *testing.T) {
	ct := newTable(t, "0b1101", "0b0111", "0b0000")
	free := NewFullMask(4)

	candidates, ok := ct.Match(free, []int{0, 1})
	assert.Assert(t, ok)
	assert.DeepEqual(t, []int{1, 3}, candidates)

	// availability only removes candidates, the requirement stays satisfiable
	assert.NilError(t, free.Allocate(1))
	assert.NilError(t, free.Allocate(3))
	candidates, ok = ct.Match(free, []int{0, 1})
	assert.Assert(t, ok)
	assert.Equal(t, 0, len(candidates))

	// no node has constraint 2: permanently unsatisfiable
	candidates, ok = ct.Match(NewFullMask(4), []int{2})
	assert.Assert(t, !ok)
	assert.Equal(t, 0, len(candidates))

	// undeclared constraint ids are held by no node
	_, ok = ct.Match(NewFullMask(4), []int{7})
	assert.Assert(t, !ok)

	// no requirement: every free node is a candidate
	candidates, ok = ct.Match(NewFullMask(4), nil)
	assert.Assert(t, ok)
	assert.DeepEqual(t, []int{0, 1, 2, 3}, candidates)
}
