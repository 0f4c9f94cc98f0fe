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
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/megha-sim/megha-core/pkg/common"
	"github.com/megha-sim/megha-core/pkg/log"
)

const (
	DefaultNetworkDelay         = 0.005
	DefaultHeartbeatInterval    = 1.0
	DefaultHeartbeatOffset      = 0.05
	DefaultBatchSize            = 100
	DefaultSeed                 = int64(42)
	DefaultDuplicateStartOffset = 0.01
)

// SimulatorConfig is the cluster topology plus the simulation settings.
// The topology fully determines the number of local masters, global masters, partition sizes and the
// capabilities of every node.
type SimulatorConfig struct {
	LMs        map[string]LMConfig `yaml:"LMs" json:"LMs"`
	Simulation SimulationConfig    `yaml:"simulation,omitempty" json:"simulation,omitempty"`
	Checksum   string              `yaml:",omitempty" json:",omitempty"`
}

// LMConfig describes one local master:
// - the id of the local master, must match the key if set
// - one partition per global master, keyed by the global master id. Each partition lists one bit string
// per declared constraint with one bit per node.
type LMConfig struct {
	ID         string              `yaml:"LM_id,omitempty" json:"LM_id,omitempty"`
	Partitions map[string][]string `yaml:"partitions" json:"partitions"`
}

// SimulationConfig holds the timing and sizing settings of a run. All times are in simulated seconds.
type SimulationConfig struct {
	NetworkDelay         float64 `yaml:"networkdelay,omitempty" json:"networkdelay,omitempty"`
	HeartbeatInterval    float64 `yaml:"heartbeatinterval,omitempty" json:"heartbeatinterval,omitempty"`
	HeartbeatOffset      float64 `yaml:"heartbeatoffset,omitempty" json:"heartbeatoffset,omitempty"`
	BatchSize            int     `yaml:"batchsize,omitempty" json:"batchsize,omitempty"`
	Seed                 int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
	DuplicateStartOffset float64 `yaml:"duplicatestartoffset,omitempty" json:"duplicatestartoffset,omitempty"`
}

// DefaultSimulationConfig returns the settings used when the configuration does not override them.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		NetworkDelay:         DefaultNetworkDelay,
		HeartbeatInterval:    DefaultHeartbeatInterval,
		HeartbeatOffset:      DefaultHeartbeatOffset,
		BatchSize:            DefaultBatchSize,
		Seed:                 DefaultSeed,
		DuplicateStartOffset: DefaultDuplicateStartOffset,
	}
}

// LMIDs returns the local master ids in topology order.
func (sc *SimulatorConfig) LMIDs() []string {
	return common.SortedIDs(sc.LMs)
}

// GMIDs returns the global master ids in topology order. The set is taken from the first local master,
// validation guarantees all local masters have the same set.
func (sc *SimulatorConfig) GMIDs() []string {
	lmIDs := sc.LMIDs()
	if len(lmIDs) == 0 {
		return nil
	}
	return common.SortedIDs(sc.LMs[lmIDs[0]].Partitions)
}

// TotalNodes returns the number of worker nodes over all partitions.
func (sc *SimulatorConfig) TotalNodes() int {
	total := 0
	for _, lm := range sc.LMs {
		for _, partition := range lm.Partitions {
			if len(partition) > 0 {
				total += len(strings.TrimPrefix(partition[0], "0b"))
			}
		}
	}
	return total
}

// LoadSimulatorConfigFromFile reads, parses and validates the configuration file.
func LoadSimulatorConfigFromFile(path string) (*SimulatorConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %s", path)
	}
	return LoadSimulatorConfigFromByteArray(content)
}

func LoadSimulatorConfigFromByteArray(content []byte) (*SimulatorConfig, error) {
	conf, err := ParseAndValidateConfig(content)
	if err != nil {
		return nil, err
	}
	// Create a sha256 checksum for this validated config
	SetChecksum(content, conf)
	return conf, nil
}

func SetChecksum(content []byte, conf *SimulatorConfig) {
	conf.Checksum = fmt.Sprintf("%X", sha256.Sum256(content))
}

func ParseAndValidateConfig(content []byte) (*SimulatorConfig, error) {
	conf := &SimulatorConfig{
		Simulation: DefaultSimulationConfig(),
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true) // Enable strict unmarshaling behavior
	err := decoder.Decode(conf)
	if err != nil && !errors.Is(err, io.EOF) { // empty content may have EOF error, validation catches it
		log.Log(log.Config).Error("failed to parse simulator configuration",
			zap.Error(err))
		return nil, errors.Wrap(err, "failed to parse simulator configuration")
	}
	// validate the config
	err = Validate(conf)
	if err != nil {
		log.Log(log.Config).Error("simulator configuration validation failed",
			zap.Error(err))
		return nil, err
	}
	log.Log(log.Config).Info("simulator configuration loaded",
		zap.Int("localMasters", len(conf.LMs)),
		zap.Int("globalMasters", len(conf.GMIDs())),
		zap.Int("totalNodes", conf.TotalNodes()))
	return conf, nil
}
