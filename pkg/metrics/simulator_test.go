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
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gotest.tools/v3/assert"
)

var sm *SimulatorMetrics

func TestProposals(t *testing.T) {
	sm = getSimulatorMetrics(t)
	defer unregisterMetrics()

	sm.IncProposalsAccepted(3)
	sm.IncProposalsRejected(2)
	verifyCounter(t, "placement_proposal_total", "result", "accepted", 3)
	verifyCounter(t, "placement_proposal_total", "result", "rejected", 2)
	rejected, err := sm.GetProposalsRejected()
	assert.NilError(t, err)
	assert.Equal(t, 2, rejected)
}

func TestTasksAndJobs(t *testing.T) {
	sm = getSimulatorMetrics(t)
	defer unregisterMetrics()

	sm.IncTasksCompleted()
	sm.IncTasksCompleted()
	sm.IncTasksDeleted()
	sm.IncJobsCompleted()
	completed, err := sm.GetTasksCompleted()
	assert.NilError(t, err)
	assert.Equal(t, 2, completed)
	deleted, err := sm.GetTasksDeleted()
	assert.NilError(t, err)
	assert.Equal(t, 1, deleted)
	jobs, err := sm.GetJobsCompleted()
	assert.NilError(t, err)
	assert.Equal(t, 1, jobs)

	sm.Reset()
	completed, err = sm.GetTasksCompleted()
	assert.NilError(t, err)
	assert.Equal(t, 0, completed)
}

func TestJobResponseTime(t *testing.T) {
	sm = getSimulatorMetrics(t)
	defer unregisterMetrics()

	sm.ObserveJobResponseTime(0.015)
	verifyHistogram(t, "job_response_time_seconds", 0.015, 0.0001)
}

func TestSchedulingLatency(t *testing.T) {
	sm = getSimulatorMetrics(t)
	defer unregisterMetrics()

	sm.ObserveJobSchedulingLatency(time.Now().Add(-1 * time.Second))
	verifyHistogram(t, "job_scheduling_latency_milliseconds", 1000, 100)
}

func getSimulatorMetrics(t *testing.T) *SimulatorMetrics {
	unregisterMetrics()
	s := InitSimulatorMetrics()
	assert.Assert(t, s != nil)
	return s
}

func unregisterMetrics() {
	s := GetSimulatorMetrics()
	prometheus.Unregister(s.proposals)
	prometheus.Unregister(s.tasks)
	prometheus.Unregister(s.jobs)
	prometheus.Unregister(s.repartitions)
	prometheus.Unregister(s.eagerMatches)
	prometheus.Unregister(s.heartbeats)
	prometheus.Unregister(s.events)
	prometheus.Unregister(s.eventQueueDepth)
	prometheus.Unregister(s.simulatedTime)
	prometheus.Unregister(s.jobResponseTime)
	prometheus.Unregister(s.batchLatency)
	if sm != nil && sm != s {
		prometheus.Unregister(sm.proposals)
		prometheus.Unregister(sm.tasks)
		prometheus.Unregister(sm.jobs)
		prometheus.Unregister(sm.repartitions)
		prometheus.Unregister(sm.eagerMatches)
		prometheus.Unregister(sm.heartbeats)
		prometheus.Unregister(sm.events)
		prometheus.Unregister(sm.eventQueueDepth)
		prometheus.Unregister(sm.simulatedTime)
		prometheus.Unregister(sm.jobResponseTime)
		prometheus.Unregister(sm.batchLatency)
	}
}

func verifyCounter(t *testing.T, name, label, value string, expected float64) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	assert.NilError(t, err)
	var checked bool
	for _, metric := range mfs {
		if !strings.Contains(metric.GetName(), name) {
			continue
		}
		assert.Equal(t, dto.MetricType_COUNTER, metric.GetType())
		for _, m := range metric.Metric {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					assert.Equal(t, expected, m.GetCounter().GetValue())
					checked = true
				}
			}
		}
	}
	assert.Assert(t, checked, "failed to find counter %s{%s=%s}", name, label, value)
}

func verifyHistogram(t *testing.T, name string, value float64, delta float64) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	assert.NilError(t, err)
	var checked bool
	for _, metric := range mfs {
		if strings.Contains(metric.GetName(), name) {
			assert.Equal(t, 1, len(metric.Metric))
			assert.Equal(t, dto.MetricType_HISTOGRAM, metric.GetType())
			m := metric.Metric[0]
			realDelta := math.Abs(*m.Histogram.SampleSum - value)
			assert.Check(t, realDelta < delta, fmt.Sprintf("wrong delta, expected <= %f, was %f", delta, realDelta))
			checked = true
		}
	}
	assert.Assert(t, checked, "failed to find histogram %s", name)
}
