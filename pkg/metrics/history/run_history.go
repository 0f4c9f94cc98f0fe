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

package history

import (
	"sync"
	"time"
)

// RunHistory keeps the most recent samples of a run for the web service.
// For more detailed metrics collection use Prometheus.
type RunHistory struct {
	records []*RunRecord
	limit   int
	mutex   sync.Mutex
}

type RunRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	SimulatedTime   float64   `json:"simulatedTime"`
	ActiveJobs      int       `json:"activeJobs"`
	QueuedTasks     int       `json:"queuedTasks"`
	EventsProcessed uint64    `json:"eventsProcessed"`
}

func NewRunHistory(limit int) *RunHistory {
	return &RunHistory{
		records: make([]*RunRecord, 0, limit),
		limit:   limit,
	}
}

func (h *RunHistory) Store(simulatedTime float64, activeJobs, queuedTasks int, events uint64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.records = append(h.records,
		&RunRecord{
			Timestamp:       time.Now(),
			SimulatedTime:   simulatedTime,
			ActiveJobs:      activeJobs,
			QueuedTasks:     queuedTasks,
			EventsProcessed: events,
		})
	if len(h.records) > h.limit {
		// remove oldest entry
		h.records = h.records[1:]
	}
}

// GetRecords returns the samples oldest first.
func (h *RunHistory) GetRecords() []*RunRecord {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	records := make([]*RunRecord, len(h.records))
	copy(records, h.records)
	return records
}

func (h *RunHistory) GetLimit() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.limit
}
