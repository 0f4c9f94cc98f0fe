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

package common

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestSortedIDs(t *testing.T) {
	m := map[string]int{"10": 1, "2": 1, "1": 1, "b": 1, "a": 1}
	assert.DeepEqual(t, []string{"1", "2", "10", "a", "b"}, SortedIDs(m))
	assert.Equal(t, 0, len(SortedIDs(map[string]bool{})))
}

func TestIsSubset(t *testing.T) {
	super := map[int]bool{0: true, 3: true, 5: true}
	assert.Assert(t, IsSubset(nil, super))
	assert.Assert(t, IsSubset([]int{0, 5}, super))
	assert.Assert(t, !IsSubset([]int{0, 4}, super))
	assert.Assert(t, !IsSubset([]int{1}, map[int]bool{}))
}

func TestGetNewUUID(t *testing.T) {
	a := GetNewUUID()
	b := GetNewUUID()
	assert.Equal(t, 36, len(a))
	assert.Assert(t, a != b)
}

func TestWaitFor(t *testing.T) {
	calls := 0
	err := WaitFor(time.Millisecond, time.Second, func() bool {
		calls++
		return calls == 3
	})
	assert.NilError(t, err)
	assert.Equal(t, calls, 3)

	err = WaitFor(time.Millisecond, 10*time.Millisecond, func() bool { return false })
	assert.ErrorContains(t, err, "timeout waiting for condition")
}
