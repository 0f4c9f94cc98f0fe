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
	"sort"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
)

// Unassigned marks an empty assignment field on a task.
const Unassigned = -1

// PartitionKey identifies one physical partition: the share of local master LM owned by global master GM.
type PartitionKey struct {
	GM int
	LM int
}

func (pk PartitionKey) String() string {
	return fmt.Sprintf("%d/%d", pk.LM, pk.GM)
}

// Task is one unit of work of a job. The global master holding the task is the only writer.
type Task struct {
	TaskID      string
	Job         *Job
	Duration    float64
	Constraints []int

	// assignment, Unassigned when not placed
	NodeID      int
	PartitionID int
	GMID        int
	LMID        int

	LaunchTime float64
	EndTime    float64

	SchedulingAttempts int
	Rejections         int
	Repartitions       int

	noMatch      map[PartitionKey]struct{}
	stateMachine *fsm.FSM
}

// NewTask creates a task in the New state. The constraint list is copied, sorted and de-duplicated.
func NewTask(taskID string, job *Job, duration float64, constraints []int) *Task {
	cs := make([]int, 0, len(constraints))
	seen := make(map[int]bool, len(constraints))
	for _, c := range constraints {
		if !seen[c] {
			seen[c] = true
			cs = append(cs, c)
		}
	}
	sort.Ints(cs)
	return &Task{
		TaskID:       taskID,
		Job:          job,
		Duration:     duration,
		Constraints:  cs,
		NodeID:       Unassigned,
		PartitionID:  Unassigned,
		GMID:         Unassigned,
		LMID:         Unassigned,
		noMatch:      make(map[PartitionKey]struct{}),
		stateMachine: NewTaskState(),
	}
}

// Key returns the cluster wide unique identifier of the task.
func (t *Task) Key() string {
	return t.Job.JobID + "/" + t.TaskID
}

func (t *Task) String() string {
	return fmt.Sprintf("job:%s task:%s constraints:%v", t.Job.JobID, t.TaskID, t.Constraints)
}

// Assign binds the task to a node. The partition is external when it differs from the proposing global master.
func (t *Task) Assign(gm, lm, partition, node int) {
	t.GMID = gm
	t.LMID = lm
	t.PartitionID = partition
	t.NodeID = node
	if partition != gm {
		t.Repartitions++
	}
}

// ClearAssignment resets the placement fields. The owning global master is kept.
func (t *Task) ClearAssignment() {
	t.LMID = Unassigned
	t.PartitionID = Unassigned
	t.NodeID = Unassigned
}

func (t *Task) IsAssigned() bool {
	return t.NodeID != Unassigned && t.LMID != Unassigned && t.PartitionID != Unassigned
}

// Partition returns the key of the partition the task is bound to.
func (t *Task) Partition() PartitionKey {
	return PartitionKey{GM: t.PartitionID, LM: t.LMID}
}

// AddNoMatch records that the partition can never satisfy the task. Entries are never removed.
func (t *Task) AddNoMatch(key PartitionKey) {
	t.noMatch[key] = struct{}{}
}

func (t *Task) HasNoMatch(key PartitionKey) bool {
	_, ok := t.noMatch[key]
	return ok
}

func (t *Task) noMatchCount() int {
	return len(t.noMatch)
}

func (t *Task) CurrentState() string {
	return t.stateMachine.Current()
}

func (t *Task) isState(state taskState) bool {
	return t.stateMachine.Is(state.String())
}

// HandleTaskEvent moves the task through its lifecycle. An illegal transition is returned as an error,
// the callers treat it as a protocol violation.
func (t *Task) HandleTaskEvent(event taskEvent) error {
	if err := t.stateMachine.Event(context.Background(), event.String(), t); err != nil {
		return errors.Wrapf(err, "task %s in state %s cannot handle %s", t.Key(), t.CurrentState(), event)
	}
	return nil
}
