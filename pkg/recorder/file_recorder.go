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

package recorder

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

const (
	TaskConstraintsFile = "task_constraints.txt"
	NodeConstraintsFile = "node_constraints.txt"
	TasksFile           = "tasks.txt"
	JobResponseFile     = "JRT.txt"
	InconsistencyFile   = "inconsistencies.txt"
)

var recorderFiles = []string{TaskConstraintsFile, NodeConstraintsFile, TasksFile, JobResponseFile, InconsistencyFile}

// FileRecorder writes the run output as comma separated lines, one file per record type.
// Files are truncated when the recorder is created. Write failures are logged and otherwise ignored.
type FileRecorder struct {
	dir     string
	files   map[string]*os.File
	writers map[string]*bufio.Writer
	limited *log.RateLimitedLogger
}

func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory %s", dir)
	}
	fr := &FileRecorder{
		dir:     dir,
		files:   make(map[string]*os.File, len(recorderFiles)),
		writers: make(map[string]*bufio.Writer, len(recorderFiles)),
		limited: log.RateLimitedLog(log.Recorder, time.Second),
	}
	for _, name := range recorderFiles {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			_ = fr.Close()
			return nil, errors.Wrapf(err, "failed to create %s", name)
		}
		fr.files[name] = f
		fr.writers[name] = bufio.NewWriter(f)
	}
	log.Log(log.Recorder).Info("recording run output",
		zap.String("directory", dir))
	return fr, nil
}

func (fr *FileRecorder) Dir() string {
	return fr.dir
}

func (fr *FileRecorder) write(name string, fields ...string) {
	w, ok := fr.writers[name]
	if !ok {
		return
	}
	if _, err := w.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
		fr.limited.Warn("failed to write record",
			zap.String("file", name),
			zap.Error(err))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInts(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func (fr *FileRecorder) TaskConstraints(task *objects.Task) {
	fields := []string{formatFloat(task.Job.StartTime), task.Job.JobID, task.TaskID}
	fr.write(TaskConstraintsFile, append(fields, formatInts(task.Constraints)...)...)
}

func (fr *FileRecorder) NodeConstraints(lmID, gmID string, node int, constraints []int) {
	key := lmID + "_" + gmID + "_" + strconv.Itoa(node)
	fr.write(NodeConstraintsFile, append([]string{key}, formatInts(constraints)...)...)
}

func (fr *FileRecorder) TaskCompleted(task *objects.Task, now float64) {
	fr.write(TasksFile, task.Job.JobID, task.TaskID, formatFloat(task.Job.StartTime), formatFloat(now))
}

func (fr *FileRecorder) JobCompleted(job *objects.Job, now float64) {
	fr.write(JobResponseFile, formatFloat(now), job.JobID, formatFloat(job.ResponseTime()))
}

func (fr *FileRecorder) JobDeleted(job *objects.Job, now float64) {
	log.Log(log.Recorder).Info("job deleted, no task can be satisfied",
		zap.String("jobID", job.JobID),
		zap.Float64("time", now),
		zap.Int("tasks", job.DeletedCount()))
}

func (fr *FileRecorder) Inconsistency(task *objects.Task, now float64) {
	fr.write(InconsistencyFile, formatFloat(now), task.Key(),
		strconv.Itoa(task.LMID)+"_"+strconv.Itoa(task.PartitionID)+"_"+strconv.Itoa(task.NodeID))
}

// Close flushes and closes all files.
func (fr *FileRecorder) Close() error {
	var errs error
	for _, name := range recorderFiles {
		if w, ok := fr.writers[name]; ok {
			errs = multierr.Append(errs, w.Flush())
			delete(fr.writers, name)
		}
		if f, ok := fr.files[name]; ok {
			errs = multierr.Append(errs, f.Close())
			delete(fr.files, name)
		}
	}
	return errs
}
