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

// Package config loads process-level tracker configuration: the node's own
// identity within the cluster and the defaults applied when a submitted
// job's JobInfo.Config is silent on a setting. Decoding uses
// github.com/mitchellh/mapstructure to build options from loosely-typed
// maps, rather than a bespoke reflection-free decoder.
package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/ics-distsys/mrtracker/job"
)

// ClusterConfig is this node's view of cluster-wide tracker defaults.
type ClusterConfig struct {
	NodeId                   job.NodeId    `mapstructure:"node_id"`
	ClusterTag               string        `mapstructure:"cluster_tag"`
	DefaultFinishedJobTTL    time.Duration `mapstructure:"default_finished_job_ttl"`
	DefaultExternalExecution bool          `mapstructure:"default_external_execution"`
}

// FromMap decodes a loosely-typed configuration bag, as would be parsed
// from environment variables or CLI flags upstream of this package, into a
// ClusterConfig.
func FromMap(raw map[string]interface{}) (ClusterConfig, error) {
	var cfg ClusterConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, errors.Wrap(err, "build config decoder")
	}

	if err := decoder.Decode(raw); err != nil {
		return cfg, errors.Wrap(err, "decode cluster config")
	}

	if cfg.NodeId == "" {
		return cfg, errors.New("config: node_id is required")
	}
	if cfg.ClusterTag == "" {
		return cfg, errors.New("config: cluster_tag is required")
	}

	return cfg, nil
}

// EffectiveTTL resolves a job's requested finished-job TTL against the
// cluster default: the job's own Config wins when present.
func (c ClusterConfig) EffectiveTTL(info job.Info) (time.Duration, error) {
	ttl, err := info.FinishedJobTTL()
	if err != nil {
		return 0, err
	}
	if ttl != 0 {
		return ttl, nil
	}
	return c.DefaultFinishedJobTTL, nil
}

// EffectiveExternalExecution resolves external_execution the same way.
func (c ClusterConfig) EffectiveExternalExecution(info job.Info) (bool, error) {
	explicit, ok := info.Config[job.ConfigExternalExecution]
	if !ok || explicit == "" {
		return c.DefaultExternalExecution, nil
	}
	return info.ExternalExecution()
}
