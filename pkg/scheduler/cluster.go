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

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/common/bitmask"
	"github.com/megha-sim/megha-core/pkg/common/configs"
	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/recorder"
)

// seedStride separates the random streams of the global masters.
const seedStride = 13

// Cluster is the fixed topology of a run: every local master, every global master and the capability
// table of every partition. Local and global masters are addressed by their dense index, which follows
// the id order of the configuration.
type Cluster struct {
	lmIDs        []string
	gmIDs        []string
	capabilities [][]*bitmask.CapabilityTable // [lm][gm]
	workerSets   []map[int]bool

	GMs []*GlobalMaster
	LMs []*LocalMaster

	settings  configs.SimulationConfig
	scheduler common.Scheduler
	recorder  recorder.Recorder
}

// NewCluster builds the masters from a validated configuration. All follow up events are handed to the scheduler.
func NewCluster(conf *configs.SimulatorConfig, sched common.Scheduler, rec recorder.Recorder) (*Cluster, error) {
	if rec == nil {
		rec = recorder.NopRecorder{}
	}
	c := &Cluster{
		lmIDs:     conf.LMIDs(),
		gmIDs:     conf.GMIDs(),
		settings:  conf.Simulation,
		scheduler: sched,
		recorder:  rec,
	}
	if len(c.lmIDs) == 0 || len(c.gmIDs) == 0 {
		return nil, errors.New("cluster needs at least one local master and one global master")
	}
	c.capabilities = make([][]*bitmask.CapabilityTable, len(c.lmIDs))
	for l, lmID := range c.lmIDs {
		c.capabilities[l] = make([]*bitmask.CapabilityTable, len(c.gmIDs))
		for g, gmID := range c.gmIDs {
			bitStrings, ok := conf.LMs[lmID].Partitions[gmID]
			if !ok {
				return nil, errors.Errorf("local master %s has no partition for global master %s", lmID, gmID)
			}
			table, err := newCapabilityTable(bitStrings)
			if err != nil {
				return nil, errors.Wrapf(err, "partition %s of local master %s", gmID, lmID)
			}
			c.capabilities[l][g] = table
			for node := 0; node < table.Size(); node++ {
				constraints := table.NodeConstraints(node)
				c.addWorkerSet(constraints)
				rec.NodeConstraints(lmID, gmID, node, constraints)
			}
		}
	}
	c.GMs = make([]*GlobalMaster, len(c.gmIDs))
	for g, gmID := range c.gmIDs {
		c.GMs[g] = newGlobalMaster(c, gmID, g, rand.New(rand.NewSource(conf.Simulation.Seed+int64(seedStride*g)))) //nolint:gosec
	}
	c.LMs = make([]*LocalMaster, len(c.lmIDs))
	for l, lmID := range c.lmIDs {
		c.LMs[l] = newLocalMaster(c, lmID, l)
	}
	log.Log(log.Sim).Info("cluster initialised",
		zap.Int("localMasters", len(c.lmIDs)),
		zap.Int("globalMasters", len(c.gmIDs)),
		zap.Int("nodes", conf.TotalNodes()),
		zap.Int("workerConstraintSets", len(c.workerSets)))
	return c, nil
}

func newCapabilityTable(bitStrings []string) (*bitmask.CapabilityTable, error) {
	masks := make([]*bitmask.Mask, len(bitStrings))
	for i, s := range bitStrings {
		mask, err := bitmask.ParseBitString(s)
		if err != nil {
			return nil, err
		}
		masks[i] = mask
	}
	size := configs.PartitionSize(bitStrings)
	return bitmask.NewCapabilityTable(size, masks)
}

// addWorkerSet keeps one representative for every distinct node capability set: a set that is a subset
// of a known one adds nothing to the satisfiability check.
func (c *Cluster) addWorkerSet(constraints []int) {
	for _, known := range c.workerSets {
		if common.IsSubset(constraints, known) {
			return
		}
	}
	set := make(map[int]bool, len(constraints))
	for _, id := range constraints {
		set[id] = true
	}
	c.workerSets = append(c.workerSets, set)
}

// Satisfiable returns true if at least one node anywhere in the cluster has all the constraints.
func (c *Cluster) Satisfiable(constraints []int) bool {
	for _, set := range c.workerSets {
		if common.IsSubset(constraints, set) {
			return true
		}
	}
	return false
}

func (c *Cluster) NumLMs() int {
	return len(c.lmIDs)
}

func (c *Cluster) NumGMs() int {
	return len(c.gmIDs)
}

func (c *Cluster) LMID(index int) string {
	return c.lmIDs[index]
}

func (c *Cluster) GMID(index int) string {
	return c.gmIDs[index]
}

// Capability returns the capability table of the partition of global master gm on local master lm.
func (c *Cluster) Capability(lm, gm int) *bitmask.CapabilityTable {
	return c.capabilities[lm][gm]
}

func (c *Cluster) Settings() configs.SimulationConfig {
	return c.settings
}

func (c *Cluster) Recorder() recorder.Recorder {
	return c.recorder
}

func (c *Cluster) networkDelay() float64 {
	return c.settings.NetworkDelay
}

func (c *Cluster) schedule(at float64, ev common.Event) {
	c.scheduler.Schedule(at, ev)
}

// ActiveJobs returns the number of jobs that arrived and did not finish yet.
func (c *Cluster) ActiveJobs() int {
	total := 0
	for _, gm := range c.GMs {
		total += gm.ActiveJobs()
	}
	return total
}

// HasPendingUpdates returns true if any local master buffered a change no global master has seen.
func (c *Cluster) HasPendingUpdates() bool {
	for _, lm := range c.LMs {
		if lm.HasPendingUpdates() {
			return true
		}
	}
	return false
}

// SendStatusUpdates sends the heartbeat of every local master.
func (c *Cluster) SendStatusUpdates(now float64) {
	for _, lm := range c.LMs {
		lm.SendStatusUpdate(now)
	}
}

// Inconsistencies returns the number of rejected proposals over all local masters.
func (c *Cluster) Inconsistencies() int {
	total := 0
	for _, lm := range c.LMs {
		total += lm.Rejected()
	}
	return total
}
