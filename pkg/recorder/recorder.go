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
	"go.uber.org/multierr"

	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// Recorder receives the observational output of a run. Scheduling never depends on it.
type Recorder interface {
	// TaskConstraints is called once for every task when its job is created.
	TaskConstraints(task *objects.Task)
	// NodeConstraints is called once per node when the cluster is built.
	NodeConstraints(lmID, gmID string, node int, constraints []int)
	TaskCompleted(task *objects.Task, now float64)
	JobCompleted(job *objects.Job, now float64)
	JobDeleted(job *objects.Job, now float64)
	// Inconsistency is called for every proposal a local master rejects.
	Inconsistency(task *objects.Task, now float64)
	Close() error
}

// NopRecorder drops everything.
type NopRecorder struct{}

func (NopRecorder) TaskConstraints(*objects.Task) {}

func (NopRecorder) NodeConstraints(string, string, int, []int) {}

func (NopRecorder) TaskCompleted(*objects.Task, float64) {}

func (NopRecorder) JobCompleted(*objects.Job, float64) {}

func (NopRecorder) JobDeleted(*objects.Job, float64) {}

func (NopRecorder) Inconsistency(*objects.Task, float64) {}

func (NopRecorder) Close() error { return nil }

// Tee sends everything to all recorders.
type Tee []Recorder

func (t Tee) TaskConstraints(task *objects.Task) {
	for _, r := range t {
		r.TaskConstraints(task)
	}
}

func (t Tee) NodeConstraints(lmID, gmID string, node int, constraints []int) {
	for _, r := range t {
		r.NodeConstraints(lmID, gmID, node, constraints)
	}
}

func (t Tee) TaskCompleted(task *objects.Task, now float64) {
	for _, r := range t {
		r.TaskCompleted(task, now)
	}
}

func (t Tee) JobCompleted(job *objects.Job, now float64) {
	for _, r := range t {
		r.JobCompleted(job, now)
	}
}

func (t Tee) JobDeleted(job *objects.Job, now float64) {
	for _, r := range t {
		r.JobDeleted(job, now)
	}
}

func (t Tee) Inconsistency(task *objects.Task, now float64) {
	for _, r := range t {
		r.Inconsistency(task, now)
	}
}

func (t Tee) Close() error {
	var errs error
	for _, r := range t {
		errs = multierr.Append(errs, r.Close())
	}
	return errs
}
