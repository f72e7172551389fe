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

// Package job defines the replicated data model of a MapReduce job: the
// identifiers, the plan, and the JobMetadata snapshot that is replicated
// across every node of the cluster via the store contract.
package job

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Id is the opaque, globally unique identifier of a job: a cluster tag
// plus a monotonically increasing local counter. It is comparable and
// safe to use as a map key.
type Id struct {
	ClusterTag string
	Seq        uint64
}

func (id Id) String() string {
	return fmt.Sprintf("%s/%d", id.ClusterTag, id.Seq)
}

func (id Id) IsZero() bool {
	return id == Id{}
}

// NodeId identifies a participant in the cluster topology.
type NodeId string

// InputSplit is an opaque, comparable identity for a slice of input data
// processed by a single mapper. Concrete split types carry whatever the
// task executor needs to read the data; only ID() participates in set
// membership here.
type InputSplit interface {
	ID() string
}

// Info is the user-provided, immutable-after-submission job descriptor.
type Info struct {
	InputPaths []string
	OutputPath string
	Reducers   int
	Config     map[string]string
}

// Recognised Config keys.
const (
	ConfigExternalExecution = "external_execution"
	ConfigFinishedJobTTL    = "finished_job_info_ttl"
)

// ExternalExecution reports whether the job requested out-of-process task
// execution. Defaults to false, and a malformed value is reported rather
// than silently ignored.
func (i Info) ExternalExecution() (bool, error) {
	raw, ok := i.Config[ConfigExternalExecution]
	if !ok || raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "config %q: invalid bool %q", ConfigExternalExecution, raw)
	}

	return v, nil
}

// FinishedJobTTL returns how long completed metadata should survive in the
// store before eviction. A zero duration and a nil error means "use the
// cluster default".
func (i Info) FinishedJobTTL() (time.Duration, error) {
	raw, ok := i.Config[ConfigFinishedJobTTL]
	if !ok || raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "config %q: invalid duration %q", ConfigFinishedJobTTL, raw)
	}

	return d, nil
}
