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
	"container/list"

	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// pendingQueue is the FIFO of tasks a global master could not place. Rejected tasks jump the line.
type pendingQueue struct {
	tasks *list.List
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{tasks: list.New()}
}

func (pq *pendingQueue) pushBack(task *objects.Task) {
	pq.tasks.PushBack(task)
}

func (pq *pendingQueue) pushFront(task *objects.Task) {
	pq.tasks.PushFront(task)
}

func (pq *pendingQueue) len() int {
	return pq.tasks.Len()
}

// popFirstMatch removes and returns the oldest task accepted by fits, nil if there is none.
// This is the only way queued tasks leave the queue.
func (pq *pendingQueue) popFirstMatch(fits func(task *objects.Task) bool) *objects.Task {
	for e := pq.tasks.Front(); e != nil; e = e.Next() {
		task := e.Value.(*objects.Task) //nolint:errcheck
		if fits(task) {
			pq.tasks.Remove(e)
			return task
		}
	}
	return nil
}

// snapshot returns the queued tasks in queue order.
func (pq *pendingQueue) snapshot() []*objects.Task {
	out := make([]*objects.Task, 0, pq.tasks.Len())
	for e := pq.tasks.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*objects.Task)) //nolint:errcheck
	}
	return out
}
