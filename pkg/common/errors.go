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

import "errors"

var (
	// ErrAlreadyBusy returned when a node that is already allocated is allocated again
	ErrAlreadyBusy = errors.New("node is already busy")
	// ErrAlreadyFree returned when an authoritative node is released twice
	ErrAlreadyFree = errors.New("node is already free")
	// ErrNodeOutOfRange returned when a node index is outside the partition
	ErrNodeOutOfRange = errors.New("node index out of range")
	// ErrTimeWentBackwards returned when the engine pops an event older than the current simulated time
	ErrTimeWentBackwards = errors.New("simulated time went backwards")
	// ErrUnknownJob returned when a completion refers to a job the global master does not track
	ErrUnknownJob = errors.New("job is not tracked by this global master")
	// ErrDuplicateCompletion returned when a task completion is processed twice
	ErrDuplicateCompletion = errors.New("task completion already processed")
	// ErrForeignProposal returned when a local master receives a proposal for another local master
	ErrForeignProposal = errors.New("proposal targets a different local master")
)
