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

package simulation

import (
	"time"
)

// Summary is the outcome of a run.
type Summary struct {
	RunID           string         `json:"runID"`
	Checksum        string         `json:"checksum,omitempty"`
	JobsArrived     int            `json:"jobsArrived"`
	JobsCompleted   int            `json:"jobsCompleted"`
	JobsDeleted     int            `json:"jobsDeleted"`
	UnfinishedJobs  int            `json:"unfinishedJobs"`
	TasksCompleted  int            `json:"tasksCompleted"`
	TasksDeleted    int            `json:"tasksDeleted"`
	TotalTasks      int            `json:"totalTasks"`
	Inconsistencies int            `json:"inconsistencies"`
	EventsProcessed uint64         `json:"eventsProcessed"`
	SimulatedTime   float64        `json:"simulatedTime"`
	QueuedTasks     map[string]int `json:"queuedTasks"`
	Elapsed         string         `json:"elapsed"`
}

// Progress is the live state of a run.
type Progress struct {
	RunID           string  `json:"runID"`
	SimulatedTime   float64 `json:"simulatedTime"`
	EventsProcessed uint64  `json:"eventsProcessed"`
	Running         bool    `json:"running"`
	Finished        bool    `json:"finished"`
}

func (s *Simulation) buildSummary(elapsed time.Duration) *Summary {
	summary := &Summary{
		RunID:           s.runID,
		Checksum:        s.checksum,
		JobsArrived:     s.jobsArrived,
		UnfinishedJobs:  s.cluster.ActiveJobs(),
		TotalTasks:      s.ingestor.TotalTasks(),
		Inconsistencies: s.cluster.Inconsistencies(),
		EventsProcessed: s.processed.Load(),
		SimulatedTime:   s.now.Load(),
		QueuedTasks:     make(map[string]int, len(s.cluster.GMs)),
		Elapsed:         elapsed.String(),
	}
	for _, gm := range s.cluster.GMs {
		summary.JobsCompleted += gm.CompletedJobs()
		summary.JobsDeleted += gm.DeletedJobs()
		summary.TasksCompleted += gm.CompletedTasks()
		summary.TasksDeleted += gm.DeletedTasks()
		summary.QueuedTasks[gm.ID] = gm.QueueLength()
	}
	return summary
}
