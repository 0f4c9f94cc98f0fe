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
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/common/bitmask"
	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/metrics"
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

// Mode is the placement strategy of one job batch.
type Mode int

const (
	// ModeNone all partitions are believed busy, tasks are queued
	ModeNone Mode = iota
	// ModeInternal only the own partitions have room
	ModeInternal
	// ModeExternal only partitions of other global masters have room
	ModeExternal
	// ModeAll own partitions first, borrow from other global masters when they fail
	ModeAll
)

func (m Mode) String() string {
	return [...]string{"none", "I", "E", "A"}[m]
}

// SelectMode picks the placement mode from the busy cache sizes. lms is the number of local masters and
// gms the number of global masters, so there are lms internal and lms*(gms-1) external partitions.
func SelectMode(internalBusy, externalBusy, lms, gms int) Mode {
	internalFree := internalBusy < lms
	externalFree := externalBusy < lms*(gms-1)
	switch {
	case internalFree && externalFree:
		return ModeAll
	case internalFree:
		return ModeInternal
	case externalFree:
		return ModeExternal
	default:
		return ModeNone
	}
}

// PartitionDelta is the change of one partition since the last report.
type PartitionDelta struct {
	Available []int
	Busy      []int
}

func (pd PartitionDelta) isEmpty() bool {
	return len(pd.Available) == 0 && len(pd.Busy) == 0
}

// GlobalMaster places the tasks of the jobs it owns using a possibly stale view of every partition.
type GlobalMaster struct {
	ID    string
	index int

	cluster      *Cluster
	internal     []*bitmask.Mask   // [lm]
	external     [][]*bitmask.Mask // [lm][gm], nil for the own index
	internalBusy map[int]struct{}
	externalBusy map[objects.PartitionKey]struct{}
	queue        *pendingQueue
	jobs         map[string]*objects.Job
	random       *rand.Rand

	completedJobs  int
	deletedJobs    int
	completedTasks int
	deletedTasks   int
	lastMode       Mode
	saturated      *log.RateLimitedLogger
}

func newGlobalMaster(c *Cluster, id string, index int, random *rand.Rand) *GlobalMaster {
	gm := &GlobalMaster{
		ID:           id,
		index:        index,
		cluster:      c,
		internal:     make([]*bitmask.Mask, c.NumLMs()),
		external:     make([][]*bitmask.Mask, c.NumLMs()),
		internalBusy: make(map[int]struct{}),
		externalBusy: make(map[objects.PartitionKey]struct{}),
		queue:        newPendingQueue(),
		jobs:         make(map[string]*objects.Job),
		random:       random,
		saturated:    log.RateLimitedLog(log.GM, time.Second),
	}
	for lm := 0; lm < c.NumLMs(); lm++ {
		gm.external[lm] = make([]*bitmask.Mask, c.NumGMs())
		for g := 0; g < c.NumGMs(); g++ {
			full := bitmask.NewFullMask(c.Capability(lm, g).Size())
			if g == index {
				gm.internal[lm] = full
			} else {
				gm.external[lm][g] = full
			}
		}
	}
	return gm
}

func (gm *GlobalMaster) Index() int {
	return gm.index
}

// shadow returns the view this global master has of a partition.
func (gm *GlobalMaster) shadow(key objects.PartitionKey) (*bitmask.Mask, error) {
	if key.LM < 0 || key.LM >= gm.cluster.NumLMs() || key.GM < 0 || key.GM >= gm.cluster.NumGMs() {
		return nil, errors.Wrapf(common.ErrNodeOutOfRange, "partition %s is not part of the cluster", key)
	}
	if key.GM == gm.index {
		return gm.internal[key.LM], nil
	}
	return gm.external[key.LM][key.GM], nil
}

// Shadow returns a copy of the view this global master has of a partition.
func (gm *GlobalMaster) Shadow(key objects.PartitionKey) *bitmask.Mask {
	mask, err := gm.shadow(key)
	if err != nil {
		return nil
	}
	return mask.Clone()
}

func (gm *GlobalMaster) markFree(key objects.PartitionKey, node int) error {
	mask, err := gm.shadow(key)
	if err != nil {
		return err
	}
	if err = mask.Set(node, true); err != nil {
		return errors.Wrapf(err, "global master %s partition %s", gm.ID, key)
	}
	if key.GM == gm.index {
		delete(gm.internalBusy, key.LM)
	} else {
		delete(gm.externalBusy, key)
	}
	return nil
}

func (gm *GlobalMaster) markBusy(key objects.PartitionKey, node int) error {
	mask, err := gm.shadow(key)
	if err != nil {
		return err
	}
	if err = mask.Set(node, false); err != nil {
		return errors.Wrapf(err, "global master %s partition %s", gm.ID, key)
	}
	return nil
}

// SelectMode computes the placement mode from the current busy caches.
func (gm *GlobalMaster) SelectMode() Mode {
	return SelectMode(len(gm.internalBusy), len(gm.externalBusy), gm.cluster.NumLMs(), gm.cluster.NumGMs())
}

// ScheduleJob takes ownership of a newly arrived job and places as many of its tasks as possible.
// Proposals are sent to the local masters in batches, tasks without a placement are queued and tasks no
// node in the cluster can ever run are removed from the job.
func (gm *GlobalMaster) ScheduleJob(job *objects.Job, now float64) error {
	defer metrics.GetSimulatorMetrics().ObserveJobSchedulingLatency(time.Now())
	job.GMID = gm.index
	gm.jobs[job.JobID] = job
	metrics.GetSimulatorMetrics().IncJobsArrived()
	if len(job.Tasks()) == 0 {
		gm.removeJob(job, now)
		return nil
	}

	mode := gm.SelectMode()
	gm.lastMode = mode
	batchSize := gm.cluster.Settings().BatchSize
	var batch []*objects.Task
	batchLM := objects.Unassigned
	flush := func() {
		if len(batch) > 0 {
			gm.dispatch(batch, batchLM, now)
		}
		batch = nil
		batchLM = objects.Unassigned
	}

	var unsatisfiable []*objects.Task
	for _, task := range job.Tasks() {
		if !gm.cluster.Satisfiable(task.Constraints) {
			unsatisfiable = append(unsatisfiable, task)
			continue
		}
		job.ObserveTask(task)

		placed, err := gm.placeTask(task, mode)
		if err != nil {
			return err
		}
		if !placed {
			if err = task.HandleTaskEvent(objects.QueueTask); err != nil {
				return err
			}
			gm.queue.pushBack(task)
			continue
		}
		if err = task.HandleTaskEvent(objects.ProposeTask); err != nil {
			return err
		}
		if batchLM != objects.Unassigned && batchLM != task.LMID {
			flush()
		}
		batch = append(batch, task)
		batchLM = task.LMID
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	for _, task := range unsatisfiable {
		if err := task.HandleTaskEvent(objects.DeleteTask); err != nil {
			return err
		}
		gm.deletedTasks++
		log.Log(log.GM).Debug("task constraints cannot be satisfied by any node, deleting task",
			zap.String("gm", gm.ID),
			zap.String("task", task.Key()),
			zap.Ints("constraints", task.Constraints))
		if job.DeleteTask(task) {
			gm.removeJob(job, now)
		}
	}
	if gm.queue.len() > 0 && mode == ModeNone {
		gm.saturated.Info("cluster saturated, queueing tasks",
			zap.String("gm", gm.ID),
			zap.Int("queued", gm.queue.len()))
	}
	return nil
}

func (gm *GlobalMaster) placeTask(task *objects.Task, mode Mode) (bool, error) {
	switch mode {
	case ModeInternal:
		return gm.ScheduleTask(task)
	case ModeAll:
		placed, err := gm.ScheduleTask(task)
		if err != nil || placed {
			return placed, err
		}
		return gm.BatchedRepartition(task)
	case ModeExternal:
		return gm.BatchedRepartition(task)
	default:
		return false, nil
	}
}

// pick reserves a random candidate node in the shadow and binds the task to it.
func (gm *GlobalMaster) pick(task *objects.Task, mask *bitmask.Mask, key objects.PartitionKey, candidates []int) error {
	node := candidates[gm.random.Intn(len(candidates))]
	if err := mask.Allocate(node); err != nil {
		return errors.Wrapf(err, "global master %s proposed node %d of partition %s", gm.ID, node, key)
	}
	task.Assign(gm.index, key.LM, key.GM, node)
	return nil
}

// ScheduleTask tries to place the task on one of the partitions this global master owns. Local masters
// are scanned in order, the first one with a matching free node wins.
func (gm *GlobalMaster) ScheduleTask(task *objects.Task) (bool, error) {
	for lm := 0; lm < gm.cluster.NumLMs(); lm++ {
		key := objects.PartitionKey{GM: gm.index, LM: lm}
		if task.HasNoMatch(key) {
			continue
		}
		if _, busy := gm.internalBusy[lm]; busy {
			continue
		}
		mask := gm.internal[lm]
		if mask.IsZero() {
			gm.internalBusy[lm] = struct{}{}
			continue
		}
		candidates, satisfiable := gm.cluster.Capability(lm, gm.index).Match(mask, task.Constraints)
		if !satisfiable {
			task.AddNoMatch(key)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		return true, gm.pick(task, mask, key, candidates)
	}
	return false, nil
}

// BatchedRepartition tries to place the task on a partition owned by another global master.
func (gm *GlobalMaster) BatchedRepartition(task *objects.Task) (bool, error) {
	for lm := 0; lm < gm.cluster.NumLMs(); lm++ {
		for g := 0; g < gm.cluster.NumGMs(); g++ {
			if g == gm.index {
				continue
			}
			key := objects.PartitionKey{GM: g, LM: lm}
			if task.HasNoMatch(key) {
				continue
			}
			if _, busy := gm.externalBusy[key]; busy {
				continue
			}
			mask := gm.external[lm][g]
			if mask.IsZero() {
				gm.externalBusy[key] = struct{}{}
				continue
			}
			candidates, satisfiable := gm.cluster.Capability(lm, g).Match(mask, task.Constraints)
			if !satisfiable {
				task.AddNoMatch(key)
				continue
			}
			if len(candidates) == 0 {
				continue
			}
			if err := gm.pick(task, mask, key, candidates); err != nil {
				return false, err
			}
			metrics.GetSimulatorMetrics().IncRepartitions()
			return true, nil
		}
	}
	return false, nil
}

// dispatch sends one verification batch to a local master.
func (gm *GlobalMaster) dispatch(tasks []*objects.Task, lm int, now float64) {
	gm.cluster.schedule(now+gm.cluster.networkDelay(), &VerifyRequestsEvent{
		GM:    gm,
		LM:    gm.cluster.LMs[lm],
		Tasks: tasks,
	})
}

// matchPending binds the first queued task the node can run to the node and proposes it.
func (gm *GlobalMaster) matchPending(key objects.PartitionKey, node int, now float64) (bool, error) {
	if gm.queue.len() == 0 {
		return false, nil
	}
	table := gm.cluster.Capability(key.LM, key.GM)
	task := gm.queue.popFirstMatch(func(t *objects.Task) bool {
		return table.NodeSatisfies(node, t.Constraints)
	})
	if task == nil {
		return false, nil
	}
	if err := gm.markBusy(key, node); err != nil {
		return false, err
	}
	task.Assign(gm.index, key.LM, key.GM, node)
	if err := task.HandleTaskEvent(objects.ProposeTask); err != nil {
		return false, err
	}
	gm.dispatch([]*objects.Task{task}, key.LM, now)
	return true, nil
}

// ReceiveTaskResponse handles the completion notice of a task this global master proposed. The vacated
// node goes to the first queued task it can run, if none it is marked free.
func (gm *GlobalMaster) ReceiveTaskResponse(task *objects.Task, now float64) error {
	job, ok := gm.jobs[task.Job.JobID]
	if !ok {
		return errors.Wrapf(common.ErrUnknownJob, "global master %s received completion of %s", gm.ID, task.Key())
	}
	if err := task.HandleTaskEvent(objects.CompleteTask); err != nil {
		return errors.Wrap(common.ErrDuplicateCompletion, err.Error())
	}
	done, err := job.CompleteTask(task, now)
	if err != nil {
		return err
	}
	gm.completedTasks++
	gm.cluster.recorder.TaskCompleted(task, now)
	if done {
		gm.finishJob(job, now)
	}

	key := task.Partition()
	matched, err := gm.matchPending(key, task.NodeID, now)
	if err != nil {
		return err
	}
	if matched {
		metrics.GetSimulatorMetrics().IncCompletionMatches()
		return nil
	}
	return gm.markFree(key, task.NodeID)
}

// UpdateStatus applies the changes a local master reports, indexed by partition. Busy nodes are cleared in
// the shadow, available nodes are offered to the queue first and marked free when nothing fits.
func (gm *GlobalMaster) UpdateStatus(lm int, deltas []PartitionDelta, now float64) error {
	for g, delta := range deltas {
		key := objects.PartitionKey{GM: g, LM: lm}
		for _, node := range delta.Busy {
			if err := gm.markBusy(key, node); err != nil {
				return err
			}
		}
		for _, node := range delta.Available {
			matched, err := gm.matchPending(key, node, now)
			if err != nil {
				return err
			}
			if matched {
				metrics.GetSimulatorMetrics().IncHeartbeatMatches()
				continue
			}
			if err = gm.markFree(key, node); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnscheduleTask takes back a rejected proposal: the assignment is cleared and the task is put at the
// front of the queue.
func (gm *GlobalMaster) UnscheduleTask(task *objects.Task) error {
	task.ClearAssignment()
	if err := task.HandleTaskEvent(objects.RejectTask); err != nil {
		return err
	}
	gm.queue.pushFront(task)
	return nil
}

// HandleRejection processes the inconsistent part of a verification batch together with the changes the
// local master had buffered for this global master. Rejected tasks keep their batch order at the front
// of the queue.
func (gm *GlobalMaster) HandleRejection(lm int, tasks []*objects.Task, deltas []PartitionDelta, now float64) error {
	for i := len(tasks) - 1; i >= 0; i-- {
		if err := gm.UnscheduleTask(tasks[i]); err != nil {
			return err
		}
	}
	log.Log(log.GM).Debug("proposals rejected",
		zap.String("gm", gm.ID),
		zap.String("lm", gm.cluster.LMID(lm)),
		zap.Int("tasks", len(tasks)))
	return gm.UpdateStatus(lm, deltas, now)
}

func (gm *GlobalMaster) finishJob(job *objects.Job, now float64) {
	delete(gm.jobs, job.JobID)
	gm.completedJobs++
	gm.cluster.recorder.JobCompleted(job, now)
	metrics.GetSimulatorMetrics().IncJobsCompleted()
	metrics.GetSimulatorMetrics().ObserveJobResponseTime(job.ResponseTime())
	log.Log(log.GM).Debug("job completed",
		zap.String("gm", gm.ID),
		zap.String("jobID", job.JobID),
		zap.Float64("time", now),
		zap.Float64("responseTime", job.ResponseTime()))
}

func (gm *GlobalMaster) removeJob(job *objects.Job, now float64) {
	delete(gm.jobs, job.JobID)
	gm.deletedJobs++
	gm.cluster.recorder.JobDeleted(job, now)
	metrics.GetSimulatorMetrics().IncJobsDeleted()
	log.Log(log.GM).Info("job deleted, no task can run in this cluster",
		zap.String("gm", gm.ID),
		zap.String("jobID", job.JobID))
}

// ActiveJobs returns the number of jobs with tasks that did not finish.
func (gm *GlobalMaster) ActiveJobs() int {
	return len(gm.jobs)
}

func (gm *GlobalMaster) CompletedJobs() int {
	return gm.completedJobs
}

func (gm *GlobalMaster) DeletedJobs() int {
	return gm.deletedJobs
}

func (gm *GlobalMaster) CompletedTasks() int {
	return gm.completedTasks
}

// DeletedTasks returns the number of tasks removed because no node can run them.
func (gm *GlobalMaster) DeletedTasks() int {
	return gm.deletedTasks
}

// QueueLength returns the number of tasks waiting for a node.
func (gm *GlobalMaster) QueueLength() int {
	return gm.queue.len()
}

// QueuedTasks returns the waiting tasks in queue order.
func (gm *GlobalMaster) QueuedTasks() []*objects.Task {
	return gm.queue.snapshot()
}

// busyPartitions returns the sizes of the internal and external busy caches.
func (gm *GlobalMaster) busyPartitions() (internal, external int) {
	return len(gm.internalBusy), len(gm.externalBusy)
}
