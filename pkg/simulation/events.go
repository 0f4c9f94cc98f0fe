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
	"io"

	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// JobArrivalEvent hands a job to a global master and schedules the arrival of the next job of the trace.
// Global masters take turns in id order.
type JobArrivalEvent struct {
	sim *Simulation
	Job *objects.Job
}

func (e *JobArrivalEvent) Run(now float64) error {
	s := e.sim
	gm := s.cluster.GMs[s.nextGM]
	s.nextGM = (s.nextGM + 1) % len(s.cluster.GMs)
	s.jobsArrived++
	if err := gm.ScheduleJob(e.Job, now); err != nil {
		return err
	}
	next, err := s.ingestor.Next()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	s.queue.Schedule(next.StartTime, &JobArrivalEvent{sim: s, Job: next})
	return nil
}

func (e *JobArrivalEvent) String() string {
	return "JobArrival"
}

// HeartbeatEvent makes every local master send its status update. It re-arms itself while jobs can still
// arrive or while unfinished jobs can still make progress.
type HeartbeatEvent struct {
	sim *Simulation
}

func (e *HeartbeatEvent) Run(now float64) error {
	s := e.sim
	inFlight := s.queue.Len() > 0
	buffered := s.cluster.HasPendingUpdates()
	s.cluster.SendStatusUpdates(now)
	s.history.Store(now, s.cluster.ActiveJobs(), s.queuedTasks(), s.processed.Load())
	if !s.ingestor.Exhausted() || (s.cluster.ActiveJobs() > 0 && (inFlight || buffered)) {
		s.queue.Schedule(now+s.cluster.Settings().HeartbeatInterval, e)
	}
	return nil
}

func (e *HeartbeatEvent) String() string {
	return "Heartbeat"
}
