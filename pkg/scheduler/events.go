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
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// VerifyRequestsEvent delivers a batch of proposals from a global master to a local master.
type VerifyRequestsEvent struct {
	GM    *GlobalMaster
	LM    *LocalMaster
	Tasks []*objects.Task
}

func (e *VerifyRequestsEvent) Run(now float64) error {
	return e.LM.VerifyRequests(e.GM, e.Tasks, now)
}

func (e *VerifyRequestsEvent) String() string {
	return "VerifyRequests"
}

// LaunchOnNodeEvent starts an accepted task on its node.
type LaunchOnNodeEvent struct {
	LM   *LocalMaster
	Task *objects.Task
}

func (e *LaunchOnNodeEvent) Run(now float64) error {
	if err := e.Task.HandleTaskEvent(objects.LaunchTask); err != nil {
		return err
	}
	e.Task.LaunchTime = now
	e.LM.cluster.schedule(now+e.Task.Duration, &TaskEndEvent{LM: e.LM, Task: e.Task})
	return nil
}

func (e *LaunchOnNodeEvent) String() string {
	return "LaunchOnNode"
}

// TaskEndEvent fires when a task finished executing.
type TaskEndEvent struct {
	LM   *LocalMaster
	Task *objects.Task
}

func (e *TaskEndEvent) Run(now float64) error {
	e.Task.EndTime = now
	return e.LM.TaskCompleted(e.Task)
}

func (e *TaskEndEvent) String() string {
	return "TaskEnd"
}

// TaskResponseEvent delivers a completion notice to the global master that placed the task.
type TaskResponseEvent struct {
	GM   *GlobalMaster
	Task *objects.Task
}

func (e *TaskResponseEvent) Run(now float64) error {
	return e.GM.ReceiveTaskResponse(e.Task, now)
}

func (e *TaskResponseEvent) String() string {
	return "TaskResponse"
}

// RejectionEvent returns the inconsistent proposals of a batch to the proposer.
type RejectionEvent struct {
	GM     *GlobalMaster
	LM     int
	Tasks  []*objects.Task
	Deltas []PartitionDelta
}

func (e *RejectionEvent) Run(now float64) error {
	return e.GM.HandleRejection(e.LM, e.Tasks, e.Deltas, now)
}

func (e *RejectionEvent) String() string {
	return "Rejection"
}

// StatusUpdateEvent is the heartbeat of a local master to one global master.
type StatusUpdateEvent struct {
	GM     *GlobalMaster
	LM     int
	Deltas []PartitionDelta
}

func (e *StatusUpdateEvent) Run(now float64) error {
	return e.GM.UpdateStatus(e.LM, e.Deltas, now)
}

func (e *StatusUpdateEvent) String() string {
	return "StatusUpdate"
}
