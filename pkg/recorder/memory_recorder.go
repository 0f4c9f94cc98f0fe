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

package recorder

import (
	"strconv"
	"sync"

	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// JobRecord is the outcome of one job.
type JobRecord struct {
	JobID          string  `json:"jobID"`
	StartTime      float64 `json:"startTime"`
	CompletionTime float64 `json:"completionTime"`
	ResponseTime   float64 `json:"responseTime"`
	IdealTime      float64 `json:"idealCompletionTime"`
	Short          bool    `json:"short"`
	Deleted        bool    `json:"deleted"`
	Tasks          int     `json:"tasks"`
	DeletedTasks   int     `json:"deletedTasks"`
}

// TaskRecord is one task completion.
type TaskRecord struct {
	JobID      string  `json:"jobID"`
	TaskID     string  `json:"taskID"`
	LM         int     `json:"lm"`
	Partition  int     `json:"partition"`
	Node       int     `json:"node"`
	LaunchTime float64 `json:"launchTime"`
	EndTime    float64 `json:"endTime"`
	NoticeTime float64 `json:"noticeTime"`
}

// MemoryRecorder keeps everything in memory. It is safe to read while a run is in progress.
type MemoryRecorder struct {
	jobs            []JobRecord
	tasks           []TaskRecord
	taskConstraints map[string][]int
	nodeConstraints map[string][]int
	inconsistencies int

	sync.RWMutex
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		taskConstraints: make(map[string][]int),
		nodeConstraints: make(map[string][]int),
	}
}

func (mr *MemoryRecorder) TaskConstraints(task *objects.Task) {
	mr.Lock()
	defer mr.Unlock()
	mr.taskConstraints[task.Key()] = task.Constraints
}

func (mr *MemoryRecorder) NodeConstraints(lmID, gmID string, node int, constraints []int) {
	mr.Lock()
	defer mr.Unlock()
	mr.nodeConstraints[lmID+"_"+gmID+"_"+strconv.Itoa(node)] = constraints
}

func (mr *MemoryRecorder) TaskCompleted(task *objects.Task, now float64) {
	mr.Lock()
	defer mr.Unlock()
	mr.tasks = append(mr.tasks, TaskRecord{
		JobID:      task.Job.JobID,
		TaskID:     task.TaskID,
		LM:         task.LMID,
		Partition:  task.PartitionID,
		Node:       task.NodeID,
		LaunchTime: task.LaunchTime,
		EndTime:    task.EndTime,
		NoticeTime: now,
	})
}

func newJobRecord(job *objects.Job) JobRecord {
	return JobRecord{
		JobID:          job.JobID,
		StartTime:      job.StartTime,
		CompletionTime: job.CompletionTime,
		IdealTime:      job.IdealCompletionTime,
		Short:          job.IsShort(),
		Tasks:          len(job.Tasks()),
		DeletedTasks:   job.DeletedCount(),
	}
}

func (mr *MemoryRecorder) JobCompleted(job *objects.Job, _ float64) {
	mr.Lock()
	defer mr.Unlock()
	rec := newJobRecord(job)
	rec.ResponseTime = job.ResponseTime()
	mr.jobs = append(mr.jobs, rec)
}

func (mr *MemoryRecorder) JobDeleted(job *objects.Job, now float64) {
	mr.Lock()
	defer mr.Unlock()
	rec := newJobRecord(job)
	rec.CompletionTime = now
	rec.Deleted = true
	mr.jobs = append(mr.jobs, rec)
}

func (mr *MemoryRecorder) Inconsistency(*objects.Task, float64) {
	mr.Lock()
	defer mr.Unlock()
	mr.inconsistencies++
}

func (mr *MemoryRecorder) Close() error {
	return nil
}

// Jobs returns the finished jobs in the order they finished.
func (mr *MemoryRecorder) Jobs() []JobRecord {
	mr.RLock()
	defer mr.RUnlock()
	out := make([]JobRecord, len(mr.jobs))
	copy(out, mr.jobs)
	return out
}

// Tasks returns the completed tasks in completion order.
func (mr *MemoryRecorder) Tasks() []TaskRecord {
	mr.RLock()
	defer mr.RUnlock()
	out := make([]TaskRecord, len(mr.tasks))
	copy(out, mr.tasks)
	return out
}

func (mr *MemoryRecorder) Inconsistencies() int {
	mr.RLock()
	defer mr.RUnlock()
	return mr.inconsistencies
}

// TaskConstraintsOf returns the constraints recorded for a task key (job/task).
func (mr *MemoryRecorder) TaskConstraintsOf(key string) ([]int, bool) {
	mr.RLock()
	defer mr.RUnlock()
	c, ok := mr.taskConstraints[key]
	return c, ok
}

// NodeConstraintsOf returns the constraints recorded for a node key (lm_gm_node).
func (mr *MemoryRecorder) NodeConstraintsOf(key string) ([]int, bool) {
	mr.RLock()
	defer mr.RUnlock()
	c, ok := mr.nodeConstraints[key]
	return c, ok
}
