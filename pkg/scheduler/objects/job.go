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
	"strconv"

	"github.com/pkg/errors"

	"github.com/megha-sim/megha-core/pkg/common"
)

// ShortJobThreshold is the priority marker below which a job counts as short.
const ShortJobThreshold = 90.5811

// Job groups the tasks that arrived together.
type Job struct {
	JobID               string
	StartTime           float64
	DeclaredTasks       int
	PriorityMarker      float64
	IdealCompletionTime float64
	CompletionTime      float64
	GMID                int

	tasks     []*Task
	active    map[string]*Task
	completed map[string]*Task
	remaining int
	deleted   int
}

func NewJob(jobID string, startTime float64, declaredTasks int, priorityMarker float64) *Job {
	return &Job{
		JobID:          jobID,
		StartTime:      startTime,
		DeclaredTasks:  declaredTasks,
		PriorityMarker: priorityMarker,
		CompletionTime: -1,
		GMID:           Unassigned,
		active:         make(map[string]*Task),
		completed:      make(map[string]*Task),
	}
}

// AddTask creates the next task of the job, task ids are assigned in order starting at 0.
func (j *Job) AddTask(duration float64, constraints []int) *Task {
	task := NewTask(strconv.Itoa(len(j.tasks)), j, duration, constraints)
	j.tasks = append(j.tasks, task)
	j.active[task.TaskID] = task
	j.remaining++
	return task
}

// Tasks returns all tasks in creation order, including completed and deleted ones.
func (j *Job) Tasks() []*Task {
	return j.tasks
}

func (j *Job) Remaining() int {
	return j.remaining
}

func (j *Job) CompletedCount() int {
	return len(j.completed)
}

func (j *Job) DeletedCount() int {
	return j.deleted
}

func (j *Job) IsShort() bool {
	return j.PriorityMarker < ShortJobThreshold
}

func (j *Job) IsComplete() bool {
	return j.remaining == 0 && len(j.tasks) > 0
}

// isDeleted is true when no task of the job can ever run.
func (j *Job) isDeleted() bool {
	return j.IsComplete() && len(j.completed) == 0
}

// ObserveTask extends the ideal completion time with a task that will be scheduled.
func (j *Job) ObserveTask(task *Task) {
	if task.Duration > j.IdealCompletionTime {
		j.IdealCompletionTime = task.Duration
	}
}

// CompleteTask books the completion of a task. It returns true when this was the last remaining task.
func (j *Job) CompleteTask(task *Task, now float64) (bool, error) {
	if _, ok := j.completed[task.TaskID]; ok {
		return false, errors.Wrapf(common.ErrDuplicateCompletion, "job %s task %s", j.JobID, task.TaskID)
	}
	if _, ok := j.active[task.TaskID]; !ok {
		return false, errors.Wrapf(common.ErrUnknownJob, "job %s has no active task %s", j.JobID, task.TaskID)
	}
	delete(j.active, task.TaskID)
	j.completed[task.TaskID] = task
	j.remaining--
	if j.remaining == 0 {
		j.CompletionTime = now
		return true, nil
	}
	return false, nil
}

// DeleteTask removes a task that can never be satisfied. It returns true when no task remains.
func (j *Job) DeleteTask(task *Task) bool {
	if _, ok := j.active[task.TaskID]; !ok {
		return j.remaining == 0
	}
	delete(j.active, task.TaskID)
	j.deleted++
	j.remaining--
	return j.remaining == 0
}

// ResponseTime is the time spent above the ideal completion time, only valid for a completed job.
func (j *Job) ResponseTime() float64 {
	return j.CompletionTime - j.StartTime - j.IdealCompletionTime
}
