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

package configs

import (
	"fmt"

	"github.com/megha-sim/megha-core/pkg/common/bitmask"
)

// Validate checks the topology and the simulation settings.
func Validate(conf *SimulatorConfig) error {
	if conf == nil {
		return fmt.Errorf("config is not set")
	}
	if err := checkTopology(conf); err != nil {
		return err
	}
	return checkSimulation(&conf.Simulation)
}

// Check that every local master has a partition for the same set of global masters and that
// the constraint bit strings of each partition parse and have one common width.
func checkTopology(conf *SimulatorConfig) error {
	if len(conf.LMs) == 0 {
		return fmt.Errorf("topology must define at least one local master")
	}
	gmIDs := conf.GMIDs()
	if len(gmIDs) == 0 {
		return fmt.Errorf("topology must define at least one global master partition")
	}
	for _, lmID := range conf.LMIDs() {
		lm := conf.LMs[lmID]
		if lm.ID != "" && lm.ID != lmID {
			return fmt.Errorf("local master %s has a mismatched LM_id %s", lmID, lm.ID)
		}
		if len(lm.Partitions) != len(gmIDs) {
			return fmt.Errorf("local master %s has %d partitions, expected %d", lmID, len(lm.Partitions), len(gmIDs))
		}
		for _, gmID := range gmIDs {
			partition, ok := lm.Partitions[gmID]
			if !ok {
				return fmt.Errorf("local master %s has no partition for global master %s", lmID, gmID)
			}
			if _, err := checkPartition(partition); err != nil {
				return fmt.Errorf("local master %s partition %s: %w", lmID, gmID, err)
			}
		}
	}
	return nil
}

// checkPartition returns the number of nodes in the partition.
func checkPartition(constraints []string) (int, error) {
	if len(constraints) == 0 {
		return 0, fmt.Errorf("at least one constraint bit string is required")
	}
	size := -1
	for i, s := range constraints {
		mask, err := bitmask.ParseBitString(s)
		if err != nil {
			return 0, fmt.Errorf("constraint %d: %w", i, err)
		}
		if size == -1 {
			size = mask.Size()
		} else if mask.Size() != size {
			return 0, fmt.Errorf("constraint %d covers %d nodes, expected %d", i, mask.Size(), size)
		}
	}
	return size, nil
}

func checkSimulation(sim *SimulationConfig) error {
	if sim.NetworkDelay < 0 {
		return fmt.Errorf("network delay cannot be negative: %f", sim.NetworkDelay)
	}
	if sim.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive: %f", sim.HeartbeatInterval)
	}
	if sim.HeartbeatOffset < 0 {
		return fmt.Errorf("heartbeat offset cannot be negative: %f", sim.HeartbeatOffset)
	}
	if sim.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1: %d", sim.BatchSize)
	}
	if sim.DuplicateStartOffset <= 0 {
		return fmt.Errorf("duplicate start offset must be positive: %f", sim.DuplicateStartOffset)
	}
	return nil
}

// PartitionSize returns the number of nodes of a validated partition.
func PartitionSize(constraints []string) int {
	size, err := checkPartition(constraints)
	if err != nil {
		return 0
	}
	return size
}
