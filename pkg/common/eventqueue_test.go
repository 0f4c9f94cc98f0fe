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

	"gotest.tools/v3/assert"
)

type testEvent struct {
	name string
	ran  *[]string
}

func (e *testEvent) Run(_ float64) error {
	*e.ran = append(*e.ran, e.name)
	return nil
}

func TestEventQueueOrdering(t *testing.T) {
	var ran []string
	queue := NewEventQueue("test")
	queue.Schedule(2.0, &testEvent{name: "c", ran: &ran})
	queue.Schedule(1.0, &testEvent{name: "a", ran: &ran})
	queue.Schedule(2.0, &testEvent{name: "d", ran: &ran})
	queue.Schedule(1.5, &testEvent{name: "b", ran: &ran})
	queue.Schedule(2.0, nil)
	assert.Equal(t, 4, queue.Len())
	assert.Equal(t, uint64(4), queue.seq)

	at, ok := queue.Peek()
	assert.Assert(t, ok)
	assert.Equal(t, 1.0, at)

	var times []float64
	for {
		at, ev, ok := queue.Pop()
		if !ok {
			break
		}
		times = append(times, at)
		assert.NilError(t, ev.Run(at))
	}
	assert.DeepEqual(t, []float64{1.0, 1.5, 2.0, 2.0}, times)
	// same timestamp events keep scheduling order
	assert.DeepEqual(t, []string{"a", "b", "c", "d"}, ran)
	_, ok = queue.Peek()
	assert.Assert(t, !ok)
}

func TestEventQueueTieBreak(t *testing.T) {
	var ran []string
	queue := NewEventQueue("tie")
	names := []string{"e0", "e1", "e2", "e3", "e4", "e5", "e6", "e7", "e8", "e9"}
	for _, name := range names {
		queue.Schedule(5.0, &testEvent{name: name, ran: &ran})
	}
	for queue.Len() > 0 {
		at, ev, _ := queue.Pop()
		assert.NilError(t, ev.Run(at))
	}
	assert.DeepEqual(t, names, ran)
}
