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

package webservice

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/scheduler"
	"github.com/megha-sim/megha-core/pkg/webservice/dao"
)

const (
	stateCompleted = "completed"
	stateDeleted   = "deleted"
	classShort     = "short"
	classLong      = "long"
)

func getSummary(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if sim == nil {
		buildJSONErrorResponse(w, "no simulation registered", http.StatusNotFound)
		return
	}
	summary := sim.Summary()
	if summary == nil {
		buildJSONErrorResponse(w, "simulation has not finished", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, summary)
}

func getProgress(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if sim == nil {
		buildJSONErrorResponse(w, "no simulation registered", http.StatusNotFound)
		return
	}
	writeJSON(w, sim.Progress())
}

func getRunHistory(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if sim == nil {
		buildJSONErrorResponse(w, "no simulation registered", http.StatusNotFound)
		return
	}
	writeJSON(w, sim.History().GetRecords())
}

func getClusterInfo(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if sim == nil {
		buildJSONErrorResponse(w, "no simulation registered", http.StatusNotFound)
		return
	}
	writeJSON(w, getClusterJSON(sim.Cluster(), sim.Checksum()))
}

func getJobs(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if results == nil {
		buildJSONErrorResponse(w, "results are not kept in memory", http.StatusNotFound)
		return
	}
	state := r.URL.Query().Get("state")
	if state != "" && state != stateCompleted && state != stateDeleted {
		buildJSONErrorResponse(w, fmt.Sprintf("unknown job state %q", state), http.StatusBadRequest)
		return
	}
	class := r.URL.Query().Get("class")
	if class != "" && class != classShort && class != classLong {
		buildJSONErrorResponse(w, fmt.Sprintf("unknown job class %q", class), http.StatusBadRequest)
		return
	}
	jobs := make([]*dao.JobDAOInfo, 0)
	for _, job := range results.Jobs() {
		info := getJobJSON(job)
		if (state != "" && info.State != state) || (class != "" && info.Class != class) {
			continue
		}
		jobs = append(jobs, info)
	}
	writeJSON(w, jobs)
}

func getTasks(w http.ResponseWriter, r *http.Request) {
	writeHeaders(w)
	lock.RLock()
	defer lock.RUnlock()
	if results == nil {
		buildJSONErrorResponse(w, "results are not kept in memory", http.StatusNotFound)
		return
	}
	var cluster *scheduler.Cluster
	if sim != nil {
		cluster = sim.Cluster()
	}
	jobID := r.URL.Query().Get("job")
	tasks := make([]*dao.TaskDAOInfo, 0)
	for _, task := range results.Tasks() {
		if jobID != "" && task.JobID != jobID {
			continue
		}
		tasks = append(tasks, getTaskJSON(task, cluster))
	}
	writeJSON(w, tasks)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildJSONErrorResponse(w http.ResponseWriter, detail string, code int) {
	w.WriteHeader(code)
	errorInfo := dao.NewYAPIError(nil, code, detail)
	if jsonErr := json.NewEncoder(w).Encode(errorInfo); jsonErr != nil {
		log.Log(log.Web).Warn("failed to write error response",
			zap.Int("code", code),
			zap.Error(jsonErr))
	}
}

func writeHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "X-Requested-With,Content-Type,Accept,Origin")
}

func getClusterJSON(cluster *scheduler.Cluster, checksum string) *dao.ClusterDAOInfo {
	settings := cluster.Settings()
	info := &dao.ClusterDAOInfo{
		Checksum:     checksum,
		GMs:          make([]string, 0, cluster.NumGMs()),
		LocalMasters: make([]dao.LocalMasterDAOInfo, 0, cluster.NumLMs()),
		Settings: dao.SettingsDAOInfo{
			NetworkDelay:         settings.NetworkDelay,
			HeartbeatInterval:    settings.HeartbeatInterval,
			HeartbeatOffset:      settings.HeartbeatOffset,
			BatchSize:            settings.BatchSize,
			Seed:                 settings.Seed,
			DuplicateStartOffset: settings.DuplicateStartOffset,
		},
	}
	for g := 0; g < cluster.NumGMs(); g++ {
		info.GMs = append(info.GMs, cluster.GMID(g))
	}
	for l := 0; l < cluster.NumLMs(); l++ {
		lm := dao.LocalMasterDAOInfo{
			LMID:       cluster.LMID(l),
			Partitions: make([]dao.PartitionDAOInfo, 0, cluster.NumGMs()),
		}
		for g := 0; g < cluster.NumGMs(); g++ {
			table := cluster.Capability(l, g)
			lm.Partitions = append(lm.Partitions, dao.PartitionDAOInfo{
				GMID:        cluster.GMID(g),
				Nodes:       table.Size(),
				Constraints: table.NumConstraints(),
			})
			info.TotalNodes += table.Size()
		}
		info.LocalMasters = append(info.LocalMasters, lm)
	}
	return info
}

func getJobJSON(job recorder.JobRecord) *dao.JobDAOInfo {
	info := &dao.JobDAOInfo{
		JobID:          job.JobID,
		StartTime:      job.StartTime,
		CompletionTime: job.CompletionTime,
		State:          stateCompleted,
		Class:          classLong,
		Tasks:          job.Tasks,
		DeletedTasks:   job.DeletedTasks,
	}
	if job.Short {
		info.Class = classShort
	}
	if job.Deleted {
		info.State = stateDeleted
	} else {
		info.ResponseTime = job.ResponseTime
	}
	return info
}

func getTaskJSON(task recorder.TaskRecord, cluster *scheduler.Cluster) *dao.TaskDAOInfo {
	node := fmt.Sprintf("%d_%d_%d", task.LM, task.Partition, task.Node)
	if cluster != nil {
		node = fmt.Sprintf("%s_%s_%d", cluster.LMID(task.LM), cluster.GMID(task.Partition), task.Node)
	}
	return &dao.TaskDAOInfo{
		TaskKey:    task.JobID + "/" + task.TaskID,
		Node:       node,
		LaunchTime: task.LaunchTime,
		EndTime:    task.EndTime,
		NoticeTime: task.NoticeTime,
	}
}
