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
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record is one parsed line of a workload trace:
// start_time declared_task_count priority_marker duration_0 duration_1 ...
type Record struct {
	StartTime      float64
	DeclaredTasks  int
	PriorityMarker float64
	Durations      []float64
}

// Reader splits a workload trace into records. Blank lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// job lines with many tasks are long
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record, io.EOF when the trace is exhausted.
func (r *Reader) Next() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		fields := strings.Fields(r.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rec, err := ParseRecord(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "trace line %d", r.line)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read trace")
	}
	return nil, io.EOF
}

// ParseRecord converts the fields of one trace line. Durations are truncated to whole seconds.
func ParseRecord(fields []string) (*Record, error) {
	if len(fields) < 3 {
		return nil, errors.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	start, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid start time")
	}
	declared, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, errors.Wrap(err, "invalid task count")
	}
	marker, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid priority marker")
	}
	rec := &Record{
		StartTime:      start,
		DeclaredTasks:  declared,
		PriorityMarker: marker,
		Durations:      make([]float64, 0, len(fields)-3),
	}
	for i, f := range fields[3:] {
		d, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid duration of task %d", i)
		}
		if d < 0 {
			return nil, errors.Errorf("negative duration %v of task %d", d, i)
		}
		rec.Durations = append(rec.Durations, float64(int64(d)))
	}
	return rec, nil
}
