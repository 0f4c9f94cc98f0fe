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

package scheduler

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/common/bitmask"
	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/metrics"
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// LocalMaster owns the authoritative state of its nodes, one partition per global master. Changes are
// buffered per destination global master until the next heartbeat or rejection.
type LocalMaster struct {
	ID    string
	index int

	cluster    *Cluster
	partitions []*bitmask.Mask    // [gm]
	updates    [][]PartitionDelta // [destination gm][partition]
	rejected   int
}

func newLocalMaster(c *Cluster, id string, index int) *LocalMaster {
	lm := &LocalMaster{
		ID:         id,
		index:      index,
		cluster:    c,
		partitions: make([]*bitmask.Mask, c.NumGMs()),
		updates:    make([][]PartitionDelta, c.NumGMs()),
	}
	for g := 0; g < c.NumGMs(); g++ {
		lm.partitions[g] = bitmask.NewFullMask(c.Capability(index, g).Size())
		lm.updates[g] = make([]PartitionDelta, c.NumGMs())
	}
	return lm
}

func (lm *LocalMaster) Index() int {
	return lm.index
}

// Partition returns a copy of the authoritative state of the partition owned by global master gm.
func (lm *LocalMaster) Partition(gm int) *bitmask.Mask {
	return lm.partitions[gm].Clone()
}

// VerifyRequests checks a batch of proposals from one global master against the authoritative state.
// Free nodes are committed and launched, the others are returned to the proposer in one rejection that
// also carries the changes buffered for it.
func (lm *LocalMaster) VerifyRequests(gm *GlobalMaster, tasks []*objects.Task, now float64) error {
	delay := lm.cluster.networkDelay()
	var inconsistent []*objects.Task
	for _, task := range tasks {
		if task.LMID != lm.index {
			return errors.Wrapf(common.ErrForeignProposal, "local master %s received %s for local master %d", lm.ID, task.Key(), task.LMID)
		}
		if task.PartitionID < 0 || task.PartitionID >= len(lm.partitions) {
			return errors.Wrapf(common.ErrNodeOutOfRange, "local master %s has no partition %d", lm.ID, task.PartitionID)
		}
		mask := lm.partitions[task.PartitionID]
		if task.NodeID < 0 || task.NodeID >= mask.Size() {
			return errors.Wrapf(common.ErrNodeOutOfRange, "local master %s partition %d node %d", lm.ID, task.PartitionID, task.NodeID)
		}
		if !mask.IsFree(task.NodeID) {
			inconsistent = append(inconsistent, task)
			lm.cluster.recorder.Inconsistency(task, now)
			continue
		}
		if err := mask.Allocate(task.NodeID); err != nil {
			return err
		}
		lm.cluster.schedule(now+delay, &LaunchOnNodeEvent{LM: lm, Task: task})
		for g := range lm.updates {
			if g == task.GMID {
				continue
			}
			delta := &lm.updates[g][task.PartitionID]
			delta.Busy = append(delta.Busy, task.NodeID)
		}
	}
	metrics.GetSimulatorMetrics().IncProposalsAccepted(len(tasks) - len(inconsistent))
	if len(inconsistent) == 0 {
		return nil
	}
	lm.rejected += len(inconsistent)
	metrics.GetSimulatorMetrics().IncProposalsRejected(len(inconsistent))
	log.Log(log.LM).Debug("inconsistent proposals",
		zap.String("lm", lm.ID),
		zap.String("gm", gm.ID),
		zap.Int("rejected", len(inconsistent)),
		zap.Int("batch", len(tasks)))
	lm.cluster.schedule(now+delay, &RejectionEvent{
		GM:     gm,
		LM:     lm.index,
		Tasks:  inconsistent,
		Deltas: lm.takeUpdates(gm.index),
	})
	return nil
}

// TaskCompleted releases the node of a finished task and notifies the owning global master. The notice
// is timed from the end of the task.
func (lm *LocalMaster) TaskCompleted(task *objects.Task) error {
	if task.PartitionID < 0 || task.PartitionID >= len(lm.partitions) {
		return errors.Wrapf(common.ErrNodeOutOfRange, "local master %s has no partition %d", lm.ID, task.PartitionID)
	}
	if err := lm.partitions[task.PartitionID].Free(task.NodeID); err != nil {
		return errors.Wrapf(err, "local master %s releasing %s", lm.ID, task.Key())
	}
	for g := range lm.updates {
		if g == task.GMID {
			continue
		}
		delta := &lm.updates[g][task.PartitionID]
		delta.Available = append(delta.Available, task.NodeID)
	}
	lm.cluster.schedule(task.EndTime+lm.cluster.networkDelay(), &TaskResponseEvent{
		GM:   lm.cluster.GMs[task.GMID],
		Task: task,
	})
	return nil
}

// SendStatusUpdate sends the buffered changes to every global master and resets the buffers.
func (lm *LocalMaster) SendStatusUpdate(now float64) {
	for g, gm := range lm.cluster.GMs {
		lm.cluster.schedule(now+lm.cluster.networkDelay(), &StatusUpdateEvent{
			GM:     gm,
			LM:     lm.index,
			Deltas: lm.takeUpdates(g),
		})
		metrics.GetSimulatorMetrics().IncHeartbeats()
	}
}

// takeUpdates returns the buffer of one destination and replaces it with an empty one.
func (lm *LocalMaster) takeUpdates(gm int) []PartitionDelta {
	out := lm.updates[gm]
	lm.updates[gm] = make([]PartitionDelta, len(lm.partitions))
	return out
}

// Rejected returns the number of proposals this local master found inconsistent.
func (lm *LocalMaster) Rejected() int {
	return lm.rejected
}

// HasPendingUpdates returns true if a change is buffered for any global master.
func (lm *LocalMaster) HasPendingUpdates() bool {
	for _, deltas := range lm.updates {
		for _, delta := range deltas {
			if !delta.isEmpty() {
				return true
			}
		}
	}
	return false
}

// PendingUpdates returns a copy of the changes buffered for one global master.
func (lm *LocalMaster) PendingUpdates(gm int) []PartitionDelta {
	out := make([]PartitionDelta, len(lm.updates[gm]))
	for p, delta := range lm.updates[gm] {
		out[p] = PartitionDelta{
			Available: append([]int(nil), delta.Available...),
			Busy:      append([]int(nil), delta.Busy...),
		}
	}
	return out
}
