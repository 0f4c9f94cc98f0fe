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
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"

	"github.com/megha-sim/megha-core/pkg/common"
)

const wordSize = 64

// Mask is a fixed width bit vector with one bit per node of a partition. A set bit means the node is free.
// The width is fixed at construction.
type Mask struct {
	size  int
	words []uint64
}

// NewMask creates a mask of the given width with all bits cleared.
func NewMask(size int) *Mask {
	if size < 0 {
		size = 0
	}
	return &Mask{
		size:  size,
		words: make([]uint64, (size+wordSize-1)/wordSize),
	}
}

// NewFullMask creates a mask of the given width with all bits set.
func NewFullMask(size int) *Mask {
	m := NewMask(size)
	for i := range m.words {
		m.words[i] = ^uint64(0)
	}
	m.trim()
	return m
}

// ParseBitString parses the "0b1011" notation used by the topology configuration.
// The first character after the prefix is node 0.
func ParseBitString(s string) (*Mask, error) {
	body := strings.TrimPrefix(strings.TrimSpace(s), "0b")
	if len(body) == 0 {
		return nil, fmt.Errorf("empty bit string %q", s)
	}
	m := NewMask(len(body))
	for i, c := range body {
		switch c {
		case '1':
			m.words[i/wordSize] |= 1 << uint(i%wordSize)
		case '0':
		default:
			return nil, fmt.Errorf("invalid character %q in bit string %q", c, s)
		}
	}
	return m, nil
}

// Size returns the number of nodes covered by the mask.
func (m *Mask) Size() int {
	return m.size
}

func (m *Mask) check(node int) error {
	if node < 0 || node >= m.size {
		return errors.Wrapf(common.ErrNodeOutOfRange, "node %d, partition size %d", node, m.size)
	}
	return nil
}

// IsFree returns true if the bit for the node is set. Out of range nodes are never free.
func (m *Mask) IsFree(node int) bool {
	if node < 0 || node >= m.size {
		return false
	}
	return m.words[node/wordSize]&(1<<uint(node%wordSize)) != 0
}

// Allocate clears the bit of a free node.
func (m *Mask) Allocate(node int) error {
	if err := m.check(node); err != nil {
		return err
	}
	if !m.IsFree(node) {
		return errors.Wrapf(common.ErrAlreadyBusy, "node %d", node)
	}
	m.words[node/wordSize] &^= 1 << uint(node%wordSize)
	return nil
}

// Free sets the bit of a busy node.
func (m *Mask) Free(node int) error {
	if err := m.check(node); err != nil {
		return err
	}
	if m.IsFree(node) {
		return errors.Wrapf(common.ErrAlreadyFree, "node %d", node)
	}
	m.words[node/wordSize] |= 1 << uint(node%wordSize)
	return nil
}

// Set forces the state of a node regardless of its current state.
// Shadow copies use this to mirror reports that may repeat what they already know.
func (m *Mask) Set(node int, free bool) error {
	if err := m.check(node); err != nil {
		return err
	}
	if free {
		m.words[node/wordSize] |= 1 << uint(node%wordSize)
	} else {
		m.words[node/wordSize] &^= 1 << uint(node%wordSize)
	}
	return nil
}

// FreeCount returns the number of set bits.
func (m *Mask) FreeCount() int {
	count := 0
	for _, w := range m.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// BusyCount returns the number of cleared bits.
func (m *Mask) BusyCount() int {
	return m.size - m.FreeCount()
}

// IsZero returns true if no node is free.
func (m *Mask) IsZero() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// And returns a new mask with the bitwise AND of both masks. The widths must match.
func (m *Mask) And(other *Mask) *Mask {
	result := m.Clone()
	result.AndWith(other)
	return result
}

// AndWith does an in place bitwise AND. Bits beyond the width of the other mask are cleared.
func (m *Mask) AndWith(other *Mask) {
	for i := range m.words {
		if i < len(other.words) {
			m.words[i] &= other.words[i]
		} else {
			m.words[i] = 0
		}
	}
	if other.size < m.size {
		for node := other.size; node < m.size; node++ {
			m.words[node/wordSize] &^= 1 << uint(node%wordSize)
		}
	}
}

// SetBits returns the positions of all set bits in ascending order.
func (m *Mask) SetBits() []int {
	var result []int
	for i, w := range m.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			result = append(result, i*wordSize+tz)
			w &= w - 1
		}
	}
	return result
}

func (m *Mask) Clone() *Mask {
	words := make([]uint64, len(m.words))
	copy(words, m.words)
	return &Mask{size: m.size, words: words}
}

// Equal returns true if both masks have the same width and bits.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.size != other.size {
		return false
	}
	for i := range m.words {
		if m.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String returns the mask in the "0b..." notation, node 0 first.
func (m *Mask) String() string {
	var sb strings.Builder
	sb.Grow(m.size + 2)
	sb.WriteString("0b")
	for node := 0; node < m.size; node++ {
		if m.IsFree(node) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// clear the unused bits of the last word
func (m *Mask) trim() {
	if rem := m.size % wordSize; rem != 0 && len(m.words) > 0 {
		m.words[len(m.words)-1] &= (1 << uint(rem)) - 1
	}
}
