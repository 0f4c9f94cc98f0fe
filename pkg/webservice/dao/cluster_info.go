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

package dao

type ClusterDAOInfo struct {
	Checksum     string               `json:"checksum"`
	GMs          []string             `json:"globalMasters"`
	TotalNodes   int                  `json:"totalNodes"`
	LocalMasters []LocalMasterDAOInfo `json:"localMasters"`
	Settings     SettingsDAOInfo      `json:"settings"`
}

type LocalMasterDAOInfo struct {
	LMID       string             `json:"lmID"`
	Partitions []PartitionDAOInfo `json:"partitions"`
}

type PartitionDAOInfo struct {
	GMID        string `json:"gmID"`
	Nodes       int    `json:"nodes"`
	Constraints int    `json:"constraints"`
}

type SettingsDAOInfo struct {
	NetworkDelay         float64 `json:"networkDelay"`
	HeartbeatInterval    float64 `json:"heartbeatInterval"`
	HeartbeatOffset      float64 `json:"heartbeatOffset"`
	BatchSize            int     `json:"batchSize"`
	Seed                 int64   `json:"seed"`
	DuplicateStartOffset float64 `json:"duplicateStartOffset"`
}
