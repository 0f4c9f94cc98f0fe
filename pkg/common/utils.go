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
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// WaitFor polls the condition until it holds or the timeout passes.
func WaitFor(interval time.Duration, timeout time.Duration, condition func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for condition")
		}
		if condition() {
			return nil
		}
		time.Sleep(interval)
	}
}

// Generate a new uuid. Used to tag a simulation run.
func GetNewUUID() string {
	return uuid.NewString()
}

// CompareIDs orders identifiers numerically when both are numbers and lexically otherwise.
// Numbers sort before non numeric identifiers.
func CompareIDs(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// SortedIDs returns the keys of the map in CompareIDs order.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return CompareIDs(ids[i], ids[j])
	})
	return ids
}

// IsSubset returns true if every element of sub is part of super.
func IsSubset(sub []int, super map[int]bool) bool {
	for _, v := range sub {
		if !super[v] {
			return false
		}
	}
	return true
}
