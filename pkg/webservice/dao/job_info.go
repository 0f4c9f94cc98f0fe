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

type JobDAOInfo struct {
	JobID          string  `json:"jobID"`
	StartTime      float64 `json:"startTime"`
	CompletionTime float64 `json:"completionTime"`
	ResponseTime   float64 `json:"responseTime,omitempty"`
	State          string  `json:"state"`
	Class          string  `json:"class"`
	Tasks          int     `json:"tasks"`
	DeletedTasks   int     `json:"deletedTasks,omitempty"`
}

type TaskDAOInfo struct {
	TaskKey    string  `json:"task"`
	Node       string  `json:"node"`
	LaunchTime float64 `json:"launchTime"`
	EndTime    float64 `json:"endTime"`
	NoticeTime float64 `json:"noticeTime"`
}
