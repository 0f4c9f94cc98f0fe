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

package common

import (
	"reflect"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
)

// Event is a unit of simulated work. Running an event may schedule follow-up events on the queue.
// A returned error is fatal for the run.
type Event interface {
	Run(now float64) error
}

// Scheduler accepts events for a future point in simulated time.
type Scheduler interface {
	Schedule(at float64, ev Event)
}

type queuedEvent struct {
	at    float64
	seq   uint64
	event Event
}

// Less orders by timestamp first and by the insertion sequence number second.
func (qe queuedEvent) Less(than btree.Item) bool {
	other, ok := than.(queuedEvent)
	if !ok {
		return false
	}
	if qe.at != other.at {
		return qe.at < other.at
	}
	return qe.seq < other.seq
}

// EventQueue is the time ordered queue of pending simulation events.
// Events with the same timestamp are returned in the order they were scheduled.
type EventQueue struct {
	name string
	tree *btree.BTree
	seq  uint64
}

func NewEventQueue(name string) *EventQueue {
	return &EventQueue{
		name: name,
		tree: btree.New(32),
	}
}

func (q *EventQueue) Schedule(at float64, ev Event) {
	if ev == nil {
		return
	}
	q.tree.ReplaceOrInsert(queuedEvent{at: at, seq: q.seq, event: ev})
	q.seq++
	if ce := log.Log(log.Engine).Check(zap.DebugLevel, "enqueued event"); ce != nil {
		ce.Write(zap.String("eventType", reflect.TypeOf(ev).String()),
			zap.Float64("at", at),
			zap.String("EventQueueName", q.name),
			zap.Int("currentQueueSize", q.tree.Len()))
	}
}

// Pop removes and returns the earliest event. The last return value is false if the queue is empty.
func (q *EventQueue) Pop() (float64, Event, bool) {
	item := q.tree.DeleteMin()
	if item == nil {
		return 0, nil, false
	}
	qe := item.(queuedEvent) //nolint:errcheck
	return qe.at, qe.event, true
}

// Peek returns the timestamp of the earliest event without removing it.
func (q *EventQueue) Peek() (float64, bool) {
	item := q.tree.Min()
	if item == nil {
		return 0, false
	}
	return item.(queuedEvent).at, true //nolint:errcheck
}

func (q *EventQueue) Len() int {
	return q.tree.Len()
}
