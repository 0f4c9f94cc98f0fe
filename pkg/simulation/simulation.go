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
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/common/configs"
	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/metrics"
	"github.com/megha-sim/megha-core/pkg/metrics/history"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/scheduler"
	"github.com/megha-sim/megha-core/pkg/trace"
)

const (
	progressInterval   = 5 * time.Second
	defaultHistorySize = 1440
)

// Simulation drives one run: it feeds the trace into the cluster and processes events in time order
// until nothing is left to do.
type Simulation struct {
	runID    string
	checksum string
	cluster  *scheduler.Cluster
	queue    *common.EventQueue
	ingestor *trace.Ingestor
	maxTime  float64

	nextGM      int
	jobsArrived int
	history     *history.RunHistory

	now       *atomic.Float64
	processed *atomic.Uint64
	started   *atomic.Bool
	finished  *atomic.Bool

	summary *Summary
	sync.RWMutex
}

// Options changes the behaviour of a run.
type Options struct {
	// MaxTime stops the run once simulated time passes it, 0 runs until all work is done.
	MaxTime float64
	// HistorySize is the number of heartbeat samples kept, 0 uses the default.
	HistorySize int
}

// New creates a simulation for a validated configuration. The recorder receives the node constraints
// while the cluster is built.
func New(conf *configs.SimulatorConfig, ingestor *trace.Ingestor, rec recorder.Recorder, opts Options) (*Simulation, error) {
	queue := common.NewEventQueue("simulation")
	cluster, err := scheduler.NewCluster(conf, queue, rec)
	if err != nil {
		return nil, err
	}
	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Simulation{
		runID:     common.GetNewUUID(),
		checksum:  conf.Checksum,
		cluster:   cluster,
		queue:     queue,
		ingestor:  ingestor,
		maxTime:   opts.MaxTime,
		history:   history.NewRunHistory(historySize),
		now:       atomic.NewFloat64(0),
		processed: atomic.NewUint64(0),
		started:   atomic.NewBool(false),
		finished:  atomic.NewBool(false),
	}, nil
}

func (s *Simulation) RunID() string {
	return s.runID
}

// Checksum identifies the configuration the run uses.
func (s *Simulation) Checksum() string {
	return s.checksum
}

// History returns the state sampled at every heartbeat.
func (s *Simulation) History() *history.RunHistory {
	return s.history
}

func (s *Simulation) queuedTasks() int {
	queued := 0
	for _, gm := range s.cluster.GMs {
		queued += gm.QueueLength()
	}
	return queued
}

func (s *Simulation) Cluster() *scheduler.Cluster {
	return s.cluster
}

// Run processes events until the queue is empty, the context is cancelled or an event fails. The summary
// is returned in all cases, an event failure means the state of the run is corrupt.
func (s *Simulation) Run(ctx context.Context) (*Summary, error) {
	if !s.started.CAS(false, true) {
		return nil, errors.New("simulation already started")
	}
	defer s.finished.Store(true)
	start := time.Now()
	if err := s.bootstrap(); err != nil {
		return s.finish(start), err
	}
	log.Log(log.Engine).Info("simulation running",
		zap.String("runID", s.runID))

	lastLog := time.Now()
	sm := metrics.GetSimulatorMetrics()
	for s.queue.Len() > 0 {
		select {
		case <-ctx.Done():
			log.Log(log.Engine).Warn("simulation cancelled",
				zap.Float64("time", s.now.Load()))
			return s.finish(start), ctx.Err()
		default:
		}
		at, ev, _ := s.queue.Pop()
		now := s.now.Load()
		if at < now {
			return s.finish(start), errors.Wrapf(common.ErrTimeWentBackwards, "event %v at %f, current time %f", ev, at, now)
		}
		if s.maxTime > 0 && at > s.maxTime {
			log.Log(log.Engine).Info("simulated time limit reached, stopping",
				zap.Float64("limit", s.maxTime),
				zap.Int("pendingEvents", s.queue.Len()+1))
			break
		}
		s.now.Store(at)
		if err := ev.Run(at); err != nil {
			log.Log(log.Engine).Error("event failed, aborting simulation",
				zap.Stringer("event", eventName{ev}),
				zap.Float64("time", at),
				zap.Error(err))
			return s.finish(start), errors.Wrapf(err, "event %v at %f", ev, at)
		}
		s.processed.Inc()
		sm.IncEventsProcessed(eventName{ev}.String())
		sm.SetEventQueueDepth(s.queue.Len())
		sm.SetSimulatedTime(at)
		if time.Since(lastLog) >= progressInterval {
			log.Log(log.Engine).Info("simulation progress",
				zap.Float64("time", at),
				zap.Uint64("events", s.processed.Load()),
				zap.Int("activeJobs", s.cluster.ActiveJobs()))
			lastLog = time.Now()
		}
	}
	summary := s.finish(start)
	log.Log(log.Engine).Info("simulation finished",
		zap.String("runID", s.runID),
		zap.Float64("time", summary.SimulatedTime),
		zap.Int("jobsCompleted", summary.JobsCompleted),
		zap.Int("jobsDeleted", summary.JobsDeleted),
		zap.Int("inconsistencies", summary.Inconsistencies),
		zap.Duration("elapsed", time.Since(start)))
	return summary, nil
}

// bootstrap schedules the arrival of the first job and the first heartbeat just before it.
func (s *Simulation) bootstrap() error {
	job, err := s.ingestor.Next()
	if err == io.EOF {
		log.Log(log.Sim).Warn("workload trace is empty")
		return nil
	}
	if err != nil {
		return err
	}
	offset := s.cluster.Settings().HeartbeatOffset
	s.now.Store(job.StartTime - offset)
	s.queue.Schedule(job.StartTime-offset, &HeartbeatEvent{sim: s})
	s.queue.Schedule(job.StartTime, &JobArrivalEvent{sim: s, Job: job})
	return nil
}

func (s *Simulation) finish(start time.Time) *Summary {
	summary := s.buildSummary(time.Since(start))
	s.Lock()
	s.summary = summary
	s.Unlock()
	return summary
}

// Summary returns the summary of a finished run, nil while the run is in progress.
func (s *Simulation) Summary() *Summary {
	s.RLock()
	defer s.RUnlock()
	return s.summary
}

// Progress is safe to call while the run is in progress.
func (s *Simulation) Progress() Progress {
	return Progress{
		RunID:           s.runID,
		SimulatedTime:   s.now.Load(),
		EventsProcessed: s.processed.Load(),
		Running:         s.started.Load() && !s.finished.Load(),
		Finished:        s.finished.Load(),
	}
}

// eventName gives events without a name their type.
type eventName struct {
	common.Event
}

func (en eventName) String() string {
	if s, ok := en.Event.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", en.Event)
}
