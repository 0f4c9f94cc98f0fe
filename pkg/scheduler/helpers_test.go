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

package scheduler

import (
	"fmt"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/common/configs"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// one local master, two global masters, four nodes per partition, one constraint every node has
const oneLMTwoGMs = `
LMs:
  "1":
    LM_id: "1"
    partitions:
      "1": ["0b1111"]
      "2": ["0b1111"]
`

// one local master, two global masters, a single node per partition
const singleNodes = `
LMs:
  "1":
    partitions:
      "1": ["0b1"]
      "2": ["0b1"]
`

const singleGMSingleNode = `
LMs:
  "1":
    partitions:
      "1": ["0b1"]
`

type testCluster struct {
	*Cluster
	queue    *common.EventQueue
	recorder *recorder.MemoryRecorder
	now      float64
}

func newTestCluster(t *testing.T, topology string) *testCluster {
	conf, err := configs.LoadSimulatorConfigFromByteArray([]byte(topology))
	assert.NilError(t, err, "topology should be valid")
	queue := common.NewEventQueue("test")
	rec := recorder.NewMemoryRecorder()
	c, err := NewCluster(conf, queue, rec)
	assert.NilError(t, err, "cluster creation failed")
	return &testCluster{Cluster: c, queue: queue, recorder: rec}
}

// runUntil processes all events up to and including the given time.
func (tc *testCluster) runUntil(t *testing.T, until float64) []string {
	var names []string
	for {
		at, ok := tc.queue.Peek()
		if !ok || at > until {
			return names
		}
		at, ev, _ := tc.queue.Pop()
		assert.Assert(t, at >= tc.now, "time went backwards: %f < %f", at, tc.now)
		tc.now = at
		assert.NilError(t, ev.Run(at), "event %v failed", ev)
		names = append(names, fmt.Sprintf("%v@%.3f", ev, at))
	}
}

func (tc *testCluster) drain(t *testing.T) []string {
	return tc.runUntil(t, 1e18)
}

func newJob(id string, start float64, durations ...float64) *objects.Job {
	job := objects.NewJob(id, start, len(durations), 100)
	for _, d := range durations {
		job.AddTask(d, nil)
	}
	return job
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func taskKeys(tasks []*objects.Task) []string {
	keys := make([]string, len(tasks))
	for i, task := range tasks {
		keys[i] = task.Key()
	}
	return keys
}
