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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/megha-sim/megha-core/pkg/scheduler/objects"
)

func newCompletedJob(t *testing.T) (*objects.Job, *objects.Task) {
	job := objects.NewJob("3", 1.5, 1, 42)
	task := job.AddTask(3, []int{4, 1})
	job.ObserveTask(task)
	task.Assign(0, 1, 0, 2)
	task.LaunchTime = 1.51
	task.EndTime = 4.51
	done, err := job.CompleteTask(task, 4.515)
	assert.NilError(t, err)
	assert.Assert(t, done)
	return job, task
}

func readLines(t *testing.T, dir, name string) []string {
	content, err := os.ReadFile(filepath.Join(dir, name))
	assert.NilError(t, err)
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func TestFileRecorder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fr, err := NewFileRecorder(dir)
	assert.NilError(t, err)
	assert.Equal(t, fr.Dir(), dir)

	job, task := newCompletedJob(t)
	fr.TaskConstraints(task)
	fr.NodeConstraints("1", "2", 3, []int{0, 5})
	fr.TaskCompleted(task, 4.515)
	fr.JobCompleted(job, 4.515)
	fr.Inconsistency(task, 2.25)
	fr.JobDeleted(job, 5)
	assert.NilError(t, fr.Close())

	assert.DeepEqual(t, readLines(t, dir, TaskConstraintsFile), []string{"1.5,3,0,1,4"})
	assert.DeepEqual(t, readLines(t, dir, NodeConstraintsFile), []string{"1_2_3,0,5"})
	assert.DeepEqual(t, readLines(t, dir, TasksFile), []string{"3,0,1.5,4.515"})
	lines := readLines(t, dir, JobResponseFile)
	assert.Equal(t, len(lines), 1)
	assert.Assert(t, strings.HasPrefix(lines[0], "4.515,3,0.01"), "unexpected response line %s", lines[0])
	assert.DeepEqual(t, readLines(t, dir, InconsistencyFile), []string{"2.25,3/0,1_0_2"})

	// closing twice is harmless
	assert.NilError(t, fr.Close())
}

func TestFileRecorderTruncates(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, TasksFile), []byte("stale\n"), 0o600))
	fr, err := NewFileRecorder(dir)
	assert.NilError(t, err)
	assert.NilError(t, fr.Close())
	content, err := os.ReadFile(filepath.Join(dir, TasksFile))
	assert.NilError(t, err)
	assert.Equal(t, len(content), 0)
}

func TestFileRecorderBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	assert.NilError(t, os.WriteFile(file, nil, 0o600))
	_, err := NewFileRecorder(filepath.Join(file, "logs"))
	assert.ErrorContains(t, err, "failed to create log directory")
}

func TestMemoryRecorder(t *testing.T) {
	mr := NewMemoryRecorder()
	job, task := newCompletedJob(t)
	mr.TaskConstraints(task)
	mr.NodeConstraints("1", "1", 0, []int{2})
	mr.TaskCompleted(task, 4.515)
	mr.JobCompleted(job, 4.515)
	mr.Inconsistency(task, 2)
	mr.Inconsistency(task, 3)

	deleted := objects.NewJob("4", 2, 1, 99)
	gone := deleted.AddTask(1, []int{77})
	assert.Assert(t, deleted.DeleteTask(gone))
	mr.JobDeleted(deleted, 2)
	assert.NilError(t, mr.Close())

	c, ok := mr.TaskConstraintsOf("3/0")
	assert.Assert(t, ok)
	assert.DeepEqual(t, c, []int{1, 4})
	c, ok = mr.NodeConstraintsOf("1_1_0")
	assert.Assert(t, ok)
	assert.DeepEqual(t, c, []int{2})
	_, ok = mr.NodeConstraintsOf("9_9_9")
	assert.Assert(t, !ok)

	tasks := mr.Tasks()
	assert.Equal(t, len(tasks), 1)
	assert.Equal(t, tasks[0].Node, 2)
	assert.Equal(t, tasks[0].NoticeTime, 4.515)

	jobs := mr.Jobs()
	assert.Equal(t, len(jobs), 2)
	assert.Equal(t, jobs[0].JobID, "3")
	assert.Assert(t, jobs[0].Short)
	assert.Assert(t, !jobs[0].Deleted)
	assert.Assert(t, jobs[0].ResponseTime > 0.0149 && jobs[0].ResponseTime < 0.0151)
	assert.Equal(t, jobs[1].JobID, "4")
	assert.Assert(t, jobs[1].Deleted)
	assert.Equal(t, jobs[1].DeletedTasks, 1)
	assert.Equal(t, mr.Inconsistencies(), 2)
}

func TestTee(t *testing.T) {
	first := NewMemoryRecorder()
	second := NewMemoryRecorder()
	tee := Tee{first, second, NopRecorder{}}
	job, task := newCompletedJob(t)
	tee.TaskConstraints(task)
	tee.NodeConstraints("1", "1", 0, nil)
	tee.TaskCompleted(task, 4.515)
	tee.JobCompleted(job, 4.515)
	tee.JobDeleted(job, 4.515)
	tee.Inconsistency(task, 1)
	assert.NilError(t, tee.Close())
	for _, mr := range []*MemoryRecorder{first, second} {
		assert.Equal(t, len(mr.Jobs()), 2)
		assert.Equal(t, len(mr.Tasks()), 1)
		assert.Equal(t, mr.Inconsistencies(), 1)
	}
}
