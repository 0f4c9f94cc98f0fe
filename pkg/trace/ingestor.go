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

package trace

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// Ingestor turns trace records into jobs. It owns the job id counter and the start time table used to
// separate jobs that arrive at the same time.
type Ingestor struct {
	reader      *Reader
	generator   ConstraintGenerator
	recorder    recorder.Recorder
	startOffset float64

	nextJobID  int
	startTimes map[float64]float64
	lastRecord float64
	lastStart  float64
	started    bool
	totalTasks int
	exhausted  bool
}

// NewIngestor creates an ingestor. A job arriving at an already used start time is moved by startOffset
// past the latest job with that start time. In a sorted trace the start times handed out never decrease,
// a job that would land before an earlier shifted job arrives together with it.
func NewIngestor(reader *Reader, generator ConstraintGenerator, rec recorder.Recorder, startOffset float64) *Ingestor {
	if rec == nil {
		rec = recorder.NopRecorder{}
	}
	return &Ingestor{
		reader:      reader,
		generator:   generator,
		recorder:    rec,
		startOffset: startOffset,
		nextJobID:   1,
		startTimes:  make(map[float64]float64),
	}
}

// Next returns the next job of the trace, io.EOF when the trace is exhausted.
func (in *Ingestor) Next() (*objects.Job, error) {
	rec, err := in.reader.Next()
	if err != nil {
		in.exhausted = true
		return nil, err
	}
	return in.NewJob(rec), nil
}

// NewJob creates the job for a record, one task per duration.
func (in *Ingestor) NewJob(rec *Record) *objects.Job {
	start := rec.StartTime
	if shifted, seen := in.startTimes[start]; seen {
		shifted += in.startOffset
		in.startTimes[start] = shifted
		start = shifted
	} else {
		in.startTimes[start] = start
	}
	// an unsorted trace is left alone, the engine rejects it
	if in.started && rec.StartTime >= in.lastRecord && start < in.lastStart {
		start = in.lastStart
	}
	in.started = true
	in.lastRecord = rec.StartTime
	in.lastStart = start
	job := objects.NewJob(strconv.Itoa(in.nextJobID), start, rec.DeclaredTasks, rec.PriorityMarker)
	in.nextJobID++
	if rec.DeclaredTasks != len(rec.Durations) {
		log.Log(log.Trace).Warn("declared task count does not match durations",
			zap.String("jobID", job.JobID),
			zap.Int("declared", rec.DeclaredTasks),
			zap.Int("durations", len(rec.Durations)))
	}
	in.totalTasks += rec.DeclaredTasks
	for _, d := range rec.Durations {
		task := job.AddTask(d, in.generator.Constraints())
		in.recorder.TaskConstraints(task)
	}
	return job
}

// Exhausted is true once Next returned an error.
func (in *Ingestor) Exhausted() bool {
	return in.exhausted
}

// JobsCreated returns the number of jobs handed out.
func (in *Ingestor) JobsCreated() int {
	return in.nextJobID - 1
}

// TotalTasks returns the number of tasks declared by all records.
func (in *Ingestor) TotalTasks() int {
	return in.totalTasks
}
