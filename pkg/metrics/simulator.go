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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
)

// SimulatorMetrics to declare the metrics of the scheduling protocol and the event engine.
// Response times are simulated seconds, latencies are wall clock.
type SimulatorMetrics struct {
	proposals       *prometheus.CounterVec
	tasks           *prometheus.CounterVec
	jobs            *prometheus.CounterVec
	repartitions    prometheus.Counter
	eagerMatches    *prometheus.CounterVec
	heartbeats      prometheus.Counter
	events          *prometheus.CounterVec
	eventQueueDepth prometheus.Gauge
	simulatedTime   prometheus.Gauge
	jobResponseTime prometheus.Histogram
	batchLatency    prometheus.Histogram
}

// InitSimulatorMetrics to initialize simulator metrics
func InitSimulatorMetrics() *SimulatorMetrics {
	s := &SimulatorMetrics{}

	s.proposals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "placement_proposal_total",
			Help:      "Total number of placement proposals verified by local masters. Result of the verification is `accepted` or `rejected`.",
		}, []string{"result"})

	s.tasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "task_total",
			Help:      "Total number of task state changes. State includes `queued`, `requeued`, `completed` and `deleted`.",
		}, []string{"state"})

	s.jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "job_total",
			Help:      "Total number of jobs. State includes `arrived`, `completed` and `deleted`.",
		}, []string{"state"})

	s.repartitions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "repartition_total",
			Help:      "Total number of placements on a partition owned by another global master.",
		})

	s.eagerMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "queue_match_total",
			Help:      "Total number of pending tasks bound directly to a vacated node. Source is `completion` or `heartbeat`.",
		}, []string{"source"})

	s.heartbeats = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "heartbeat_total",
			Help:      "Total number of status updates sent from local masters to global masters.",
		})

	s.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "event_total",
			Help:      "Total number of events processed by the engine, by event type.",
		}, []string{"type"})

	s.eventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "event_queue_depth",
			Help:      "Number of events waiting in the engine queue.",
		})

	s.simulatedTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "simulated_time_seconds",
			Help:      "Timestamp of the last processed event, in simulated seconds.",
		})

	s.jobResponseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "job_response_time_seconds",
			Help:      "Job response time above the ideal completion time, in simulated seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		})

	s.batchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SimulatorSubsystem,
			Name:      "job_scheduling_latency_milliseconds",
			Help:      "Wall clock latency of scheduling one job batch on a global master, in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 6), // start from 0.1ms
		})

	// Register the metrics
	var metricsList = []prometheus.Collector{
		s.proposals,
		s.tasks,
		s.jobs,
		s.repartitions,
		s.eagerMatches,
		s.heartbeats,
		s.events,
		s.eventQueueDepth,
		s.simulatedTime,
		s.jobResponseTime,
		s.batchLatency,
	}
	for _, metric := range metricsList {
		if err := prometheus.Register(metric); err != nil {
			log.Log(log.Metrics).Warn("failed to register metrics collector", zap.Error(err))
		}
	}
	return s
}

// Reset clears all counters, used between runs in the same process.
func (s *SimulatorMetrics) Reset() {
	s.proposals.Reset()
	s.tasks.Reset()
	s.jobs.Reset()
	s.eagerMatches.Reset()
	s.events.Reset()
	s.eventQueueDepth.Set(0)
	s.simulatedTime.Set(0)
}

func SinceInSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (s *SimulatorMetrics) IncProposalsAccepted(value int) {
	s.proposals.With(prometheus.Labels{"result": "accepted"}).Add(float64(value))
}

func (s *SimulatorMetrics) IncProposalsRejected(value int) {
	s.proposals.With(prometheus.Labels{"result": "rejected"}).Add(float64(value))
}

func (s *SimulatorMetrics) GetProposalsRejected() (int, error) {
	return counterValue(s.proposals.With(prometheus.Labels{"result": "rejected"}))
}

func (s *SimulatorMetrics) IncTasksQueued() {
	s.tasks.With(prometheus.Labels{"state": "queued"}).Inc()
}

func (s *SimulatorMetrics) IncTasksRequeued() {
	s.tasks.With(prometheus.Labels{"state": "requeued"}).Inc()
}

func (s *SimulatorMetrics) IncTasksCompleted() {
	s.tasks.With(prometheus.Labels{"state": "completed"}).Inc()
}

func (s *SimulatorMetrics) GetTasksCompleted() (int, error) {
	return counterValue(s.tasks.With(prometheus.Labels{"state": "completed"}))
}

func (s *SimulatorMetrics) IncTasksDeleted() {
	s.tasks.With(prometheus.Labels{"state": "deleted"}).Inc()
}

func (s *SimulatorMetrics) GetTasksDeleted() (int, error) {
	return counterValue(s.tasks.With(prometheus.Labels{"state": "deleted"}))
}

func (s *SimulatorMetrics) IncJobsArrived() {
	s.jobs.With(prometheus.Labels{"state": "arrived"}).Inc()
}

func (s *SimulatorMetrics) IncJobsCompleted() {
	s.jobs.With(prometheus.Labels{"state": "completed"}).Inc()
}

func (s *SimulatorMetrics) GetJobsCompleted() (int, error) {
	return counterValue(s.jobs.With(prometheus.Labels{"state": "completed"}))
}

func (s *SimulatorMetrics) IncJobsDeleted() {
	s.jobs.With(prometheus.Labels{"state": "deleted"}).Inc()
}

func (s *SimulatorMetrics) IncRepartitions() {
	s.repartitions.Inc()
}

func (s *SimulatorMetrics) IncCompletionMatches() {
	s.eagerMatches.With(prometheus.Labels{"source": "completion"}).Inc()
}

func (s *SimulatorMetrics) IncHeartbeatMatches() {
	s.eagerMatches.With(prometheus.Labels{"source": "heartbeat"}).Inc()
}

func (s *SimulatorMetrics) IncHeartbeats() {
	s.heartbeats.Inc()
}

func (s *SimulatorMetrics) IncEventsProcessed(eventType string) {
	s.events.With(prometheus.Labels{"type": eventType}).Inc()
}

func (s *SimulatorMetrics) SetEventQueueDepth(depth int) {
	s.eventQueueDepth.Set(float64(depth))
}

func (s *SimulatorMetrics) SetSimulatedTime(now float64) {
	s.simulatedTime.Set(now)
}

func (s *SimulatorMetrics) ObserveJobResponseTime(seconds float64) {
	s.jobResponseTime.Observe(seconds)
}

func (s *SimulatorMetrics) ObserveJobSchedulingLatency(start time.Time) {
	s.batchLatency.Observe(SinceInSeconds(start) * 1000)
}

func counterValue(counter prometheus.Counter) (int, error) {
	metricDto := &dto.Metric{}
	err := counter.Write(metricDto)
	if err == nil {
		return int(*metricDto.Counter.Value), nil
	}
	return -1, err
}
