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

package objects

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/metrics"
)

// ----------------------------------
// task events
// ----------------------------------
type taskEvent int

const (
	QueueTask taskEvent = iota
	ProposeTask
	RejectTask
	LaunchTask
	CompleteTask
	DeleteTask
)

func (te taskEvent) String() string {
	return [...]string{"queueTask", "proposeTask", "rejectTask", "launchTask", "completeTask", "deleteTask"}[te]
}

// ----------------------------------
// task states
// ----------------------------------
type taskState int

const (
	New taskState = iota
	Pending
	Proposed
	Running
	Completed
	Deleted
)

func (ts taskState) String() string {
	return [...]string{"New", "Pending", "Proposed", "Running", "Completed", "Deleted"}[ts]
}

// NewTaskState creates the lifecycle of a single task. A task is in exactly one
// place at a time: a pending queue, an in-flight proposal or running on a node.
func NewTaskState() *fsm.FSM {
	return fsm.NewFSM(
		New.String(), fsm.Events{
			{
				Name: QueueTask.String(),
				Src:  []string{New.String()},
				Dst:  Pending.String(),
			}, {
				Name: ProposeTask.String(),
				Src:  []string{New.String(), Pending.String()},
				Dst:  Proposed.String(),
			}, {
				Name: RejectTask.String(),
				Src:  []string{Proposed.String()},
				Dst:  Pending.String(),
			}, {
				Name: LaunchTask.String(),
				Src:  []string{Proposed.String()},
				Dst:  Running.String(),
			}, {
				Name: CompleteTask.String(),
				Src:  []string{Running.String()},
				Dst:  Completed.String(),
			}, {
				Name: DeleteTask.String(),
				Src:  []string{New.String()},
				Dst:  Deleted.String(),
			},
		},
		fsm.Callbacks{
			// The first argument must always be a Task, otherwise a runtime panic will occur.
			"enter_state": func(_ context.Context, event *fsm.Event) {
				task := event.Args[0].(*Task) //nolint:errcheck
				if log.IsDebugEnabled(log.TaskFSM) {
					log.Log(log.TaskFSM).Debug("Task state transition",
						zap.String("jobID", task.Job.JobID),
						zap.String("taskID", task.TaskID),
						zap.String("source", event.Src),
						zap.String("destination", event.Dst),
						zap.String("event", event.Event))
				}
			},
			fmt.Sprintf("enter_%s", Pending.String()): func(_ context.Context, event *fsm.Event) {
				if event.Src == Proposed.String() {
					event.Args[0].(*Task).Rejections++ //nolint:errcheck
					metrics.GetSimulatorMetrics().IncTasksRequeued()
					return
				}
				metrics.GetSimulatorMetrics().IncTasksQueued()
			},
			fmt.Sprintf("enter_%s", Proposed.String()): func(_ context.Context, event *fsm.Event) {
				event.Args[0].(*Task).SchedulingAttempts++ //nolint:errcheck
			},
			fmt.Sprintf("enter_%s", Completed.String()): func(_ context.Context, _ *fsm.Event) {
				metrics.GetSimulatorMetrics().IncTasksCompleted()
			},
			fmt.Sprintf("enter_%s", Deleted.String()): func(_ context.Context, _ *fsm.Event) {
				metrics.GetSimulatorMetrics().IncTasksDeleted()
			},
		},
	)
}
