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

package trace

import (
	"io"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/megha-sim/megha-core/pkg/recorder"
)

const smallTrace = `0.0 2 50.5 3.9 5
1.5 1 95 7

1.5 1 95 2.2
1.5 1 95 1
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(smallTrace))
	rec, err := r.Next()
	assert.NilError(t, err)
	assert.Equal(t, rec.StartTime, 0.0)
	assert.Equal(t, rec.DeclaredTasks, 2)
	assert.Equal(t, rec.PriorityMarker, 50.5)
	// durations are truncated
	assert.DeepEqual(t, rec.Durations, []float64{3, 5})

	count := 1
	for {
		_, err = r.Next()
		if err == io.EOF {
			break
		}
		assert.NilError(t, err)
		count++
	}
	assert.Equal(t, count, 4)
}

func TestReaderErrors(t *testing.T) {
	var tests = []struct {
		name  string
		line  string
		error string
	}{
		{"short line", "1.0 2", "expected at least 3 fields"},
		{"bad start", "x 1 2 3", "invalid start time"},
		{"bad count", "1 one 2 3", "invalid task count"},
		{"bad marker", "1 1 x 3", "invalid priority marker"},
		{"bad duration", "1 1 2 x", "invalid duration of task 0"},
		{"negative duration", "1 1 2 -4", "negative duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader("\n" + tt.line + "\n"))
			_, err := r.Next()
			assert.ErrorContains(t, err, tt.error)
			assert.ErrorContains(t, err, "trace line 2")
		})
	}
}

func TestIngestor(t *testing.T) {
	rec := recorder.NewMemoryRecorder()
	in := NewIngestor(NewReader(strings.NewReader(smallTrace)), FixedConstraints{2, 0}, rec, 0.01)

	first, err := in.Next()
	assert.NilError(t, err)
	assert.Equal(t, first.JobID, "1")
	assert.Assert(t, first.IsShort())
	assert.Equal(t, len(first.Tasks()), 2)
	assert.DeepEqual(t, first.Tasks()[1].Constraints, []int{0, 2})
	c, ok := rec.TaskConstraintsOf("1/1")
	assert.Assert(t, ok)
	assert.DeepEqual(t, c, []int{0, 2})

	var starts []float64
	for {
		job, err := in.Next()
		if err == io.EOF {
			break
		}
		assert.NilError(t, err)
		assert.Assert(t, !job.IsShort())
		starts = append(starts, job.StartTime)
	}
	// duplicate start times are moved forward cumulatively
	assert.Equal(t, len(starts), 3)
	assert.Equal(t, starts[0], 1.5)
	assert.Assert(t, starts[1] > 1.5099 && starts[1] < 1.5101)
	assert.Assert(t, starts[2] > 1.5199 && starts[2] < 1.5201)
	assert.Assert(t, in.Exhausted())
	assert.Equal(t, in.JobsCreated(), 4)
	assert.Equal(t, in.TotalTasks(), 5)
}

func TestIngestorStartTimesNeverDecrease(t *testing.T) {
	sorted := "0 1 100 1\n0 1 100 1\n0 1 100 1\n0.015 1 100 1\n0.015 1 100 1\n1 1 100 1\n"
	in := NewIngestor(NewReader(strings.NewReader(sorted)), FixedConstraints{}, nil, 0.01)
	var starts []float64
	for {
		job, err := in.Next()
		if err == io.EOF {
			break
		}
		assert.NilError(t, err)
		starts = append(starts, job.StartTime)
	}
	assert.Equal(t, len(starts), 6)
	for i := 1; i < len(starts); i++ {
		assert.Assert(t, starts[i] >= starts[i-1], "start %d moved back: %v", i, starts)
	}
	// the first job at 0.015 lands on the last shifted job at 0.02
	assert.Equal(t, starts[3], starts[2])
	assert.Assert(t, starts[4] > 0.0249 && starts[4] < 0.0251)
	assert.Equal(t, starts[5], 1.0)

	// a trace that goes back is passed through unchanged
	unsorted := NewIngestor(NewReader(strings.NewReader("5 1 100 1\n1 1 100 1\n")), FixedConstraints{}, nil, 0.01)
	_, err := unsorted.Next()
	assert.NilError(t, err)
	job, err := unsorted.Next()
	assert.NilError(t, err)
	assert.Equal(t, job.StartTime, 1.0)
}

func TestSyntheticConstraints(t *testing.T) {
	first := NewSyntheticConstraints(42)
	second := NewSyntheticConstraints(42)
	withConstraints := 0
	for i := 0; i < 1000; i++ {
		a := first.Constraints()
		assert.DeepEqual(t, a, second.Constraints())
		for j, c := range a {
			assert.Assert(t, c >= 0 && c < NumSyntheticConstraints)
			if j > 0 {
				assert.Assert(t, a[j-1] < c, "constraints must be ascending")
			}
		}
		if len(a) > 0 {
			withConstraints++
		}
	}
	// every cluster includes several constraints with high frequency
	assert.Assert(t, withConstraints > 500, "only %d tasks had constraints", withConstraints)
}

func TestWeightedPick(t *testing.T) {
	random := NewSyntheticConstraints(1).random
	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		counts[weightedPick(random, []float64{0, 1, 3})]++
	}
	assert.Equal(t, counts[0], 0)
	assert.Assert(t, counts[2] > counts[1])
}

func TestFixedConstraints(t *testing.T) {
	fc := FixedConstraints{1, 2}
	c := fc.Constraints()
	c[0] = 9
	assert.DeepEqual(t, fc.Constraints(), []int{1, 2})
	assert.Equal(t, len(FixedConstraints(nil).Constraints()), 0)
}
