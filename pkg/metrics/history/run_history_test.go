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

package history

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestRunHistory(t *testing.T) {
	limit := 2
	h := NewRunHistory(limit)

	assert.Equal(t, limit, h.GetLimit(), "Limit should have been set to 2!")
	assert.Equal(t, 0, len(h.GetRecords()))

	h.Store(1.0, 2, 3, 10)
	records := h.GetRecords()
	assert.Equal(t, 1, len(records), "Expected to have 1 record")

	h.Store(2.0, 3, 4, 20)
	h.Store(3.0, 5, 6, 30)
	records = h.GetRecords()
	assert.Equal(t, 2, len(records), "Expected to have 2 records")
	assert.Equal(t, 2.0, records[0].SimulatedTime)
	assert.Equal(t, 3, records[0].ActiveJobs)
	assert.Equal(t, 4, records[0].QueuedTasks)
	assert.Equal(t, 3.0, records[1].SimulatedTime)
	assert.Equal(t, uint64(30), records[1].EventsProcessed)
	assert.Assert(t, !records[1].Timestamp.Before(records[0].Timestamp))

	// returned slice is a copy
	records[0] = nil
	assert.Assert(t, h.GetRecords()[0] != nil)
}
