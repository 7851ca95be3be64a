/*
Copyright © 2022 - 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"github.com/hashicorp/go-multierror"
)

const (
	errorOnly = iota
	successOnly
	always
)

type CleanFunc func() error

// CleanJob is a deferred task. ErrorOnly jobs run only when the guarded
// operation failed, successOnly jobs only when it succeeded and the
// rest always.
type CleanJob struct {
	cleanFunc CleanFunc
	jobType   int
}

// Run executes the defined job
func (cj CleanJob) Run() error {
	return cj.cleanFunc()
}

// Type returns the CleanJob type
func (cj CleanJob) Type() int {
	return cj.jobType
}

// NewCleanStack returns a new stack.
func NewCleanStack() *CleanStack {
	return &CleanStack{}
}

// CleanStack is a LIFO stack of clean jobs
type CleanStack struct {
	jobs []*CleanJob
}

// Push adds a job that will always be executed
func (clean *CleanStack) Push(cFunc CleanFunc) {
	clean.push(cFunc, always)
}

// PushErrorOnly adds a job only executed if the stack is cleaned up with an error
func (clean *CleanStack) PushErrorOnly(cFunc CleanFunc) {
	clean.push(cFunc, errorOnly)
}

// PushSuccessOnly adds a job only executed if the stack is cleaned up without errors
func (clean *CleanStack) PushSuccessOnly(cFunc CleanFunc) {
	clean.push(cFunc, successOnly)
}

func (clean *CleanStack) push(cFunc CleanFunc, jobType int) {
	clean.jobs = append(clean.jobs, &CleanJob{cleanFunc: cFunc, jobType: jobType})
}

// Pop removes and returns the last pushed job, nil if empty
func (clean *CleanStack) Pop() *CleanJob {
	if len(clean.jobs) == 0 {
		return nil
	}
	job := clean.jobs[len(clean.jobs)-1]
	clean.jobs = clean.jobs[:len(clean.jobs)-1]
	return job
}

// Len returns the number of pending jobs
func (clean *CleanStack) Len() int {
	return len(clean.jobs)
}

// Cleanup runs the whole stack in reverse order. Job errors are appended
// to err and make any pending success only job skip.
func (clean *CleanStack) Cleanup(err error) error {
	var errs error
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for job := clean.Pop(); job != nil; job = clean.Pop() {
		switch job.Type() {
		case successOnly:
			if errs == nil {
				errs = runCleanJob(job, errs)
			}
		case errorOnly:
			if errs != nil {
				errs = runCleanJob(job, errs)
			}
		default:
			errs = runCleanJob(job, errs)
		}
	}
	return errs
}

func runCleanJob(job *CleanJob, errs error) error {
	if err := job.Run(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
