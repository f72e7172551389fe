/*
Copyright 2026 ICS-DISTSYS.

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

// Package errs carries the tracker's error taxonomy: sentinels for
// shutdown, unknown jobs and duplicate submissions, a *TrackerError that
// carries a replicated job.FailCause, and a helper that wraps planner
// errors with github.com/pkg/errors.
package errs

import (
	"github.com/pkg/errors"

	"github.com/ics-distsys/mrtracker/job"
)

// ErrShuttingDown is returned synchronously by submit()/status() once the
// busy-gate has begun shutdown, and used to complete every outstanding
// completion future during teardown.
var ErrShuttingDown = errors.New("mrtracker: stopping")

// ErrJobNotFound is returned when status() re-reads metadata after
// registering a completion future and finds nothing: the job never
// existed, or was already evicted, rather than a programming error.
var ErrJobNotFound = errors.New("mrtracker: job not found")

// ErrDuplicateSubmission is returned when submit() is called twice with the
// same JobId.
var ErrDuplicateSubmission = errors.New("mrtracker: job already submitted")

// TrackerError wraps a job.FailCause so callers can recover it with
// errors.As. Unwrap returns a new plain error carrying the cause's message.
type TrackerError struct {
	Cause *job.FailCause
}

func (e *TrackerError) Error() string {
	return e.Cause.Error()
}

func (e *TrackerError) Unwrap() error {
	return errors.New(e.Cause.Message)
}

// FromFailCause converts a replicated FailCause into an error suitable for
// completing a caller-facing future. Returns nil if cause is nil, matching
// "phase == COMPLETE && failCause == nil => success".
func FromFailCause(cause *job.FailCause) error {
	if cause == nil {
		return nil
	}
	return &TrackerError{Cause: cause}
}

// Planner wraps a planner-stage error; the job never reaches the store.
func Planner(err error) error {
	return errors.Wrap(err, "planner error")
}
