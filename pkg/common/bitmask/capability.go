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
)

// CapabilityTable describes which node of one partition has which constraint.
// It is built once from the topology and never changes.
type CapabilityTable struct {
	size        int
	constraints []*Mask
	nodes       [][]int
	nodeSets    []map[int]bool
}

// NewCapabilityTable creates the table for a partition of size nodes. Each mask lists the nodes
// that have the constraint with the same index.
func NewCapabilityTable(size int, constraints []*Mask) (*CapabilityTable, error) {
	ct := &CapabilityTable{
		size:        size,
		constraints: make([]*Mask, len(constraints)),
		nodes:       make([][]int, size),
		nodeSets:    make([]map[int]bool, size),
	}
	for node := 0; node < size; node++ {
		ct.nodes[node] = make([]int, 0)
		ct.nodeSets[node] = make(map[int]bool)
	}
	for id, mask := range constraints {
		if mask == nil || mask.Size() != size {
			return nil, fmt.Errorf("constraint %d does not cover the %d nodes of the partition", id, size)
		}
		ct.constraints[id] = mask.Clone()
		for _, node := range mask.SetBits() {
			ct.nodes[node] = append(ct.nodes[node], id)
			ct.nodeSets[node][id] = true
		}
	}
	return ct, nil
}

// Size returns the number of nodes in the partition.
func (ct *CapabilityTable) Size() int {
	return ct.size
}

// NumConstraints returns the number of declared constraints.
func (ct *CapabilityTable) NumConstraints() int {
	return len(ct.constraints)
}

// NodeConstraints returns the ids of the constraints the node has, in ascending order.
func (ct *CapabilityTable) NodeConstraints(node int) []int {
	if node < 0 || node >= ct.size {
		return nil
	}
	return ct.nodes[node]
}

// NodeSatisfies returns true if the node has every required constraint.
func (ct *CapabilityTable) NodeSatisfies(node int, required []int) bool {
	if node < 0 || node >= ct.size {
		return false
	}
	set := ct.nodeSets[node]
	for _, id := range required {
		if !set[id] {
			return false
		}
	}
	return true
}

// Eligible returns the nodes of the partition that have all required constraints, ignoring availability.
// A constraint id the table does not declare is held by no node.
func (ct *CapabilityTable) Eligible(required []int) *Mask {
	result := NewFullMask(ct.size)
	for _, id := range required {
		if id < 0 || id >= len(ct.constraints) {
			return NewMask(ct.size)
		}
		result.AndWith(ct.constraints[id])
	}
	return result
}

// Match returns the free nodes in mask that satisfy the required constraints.
// satisfiable is false when no node of the partition can ever satisfy the requirement.
func (ct *CapabilityTable) Match(mask *Mask, required []int) (candidates []int, satisfiable bool) {
	eligible := ct.Eligible(required)
	if eligible.IsZero() {
		return nil, false
	}
	eligible.AndWith(mask)
	return eligible.SetBits(), true
}
