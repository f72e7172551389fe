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

// Package storetest provides a non-production reference implementation of
// contracts.Store: an in-process map with synchronous subscriber fan-out.
// It has no network, no persistence and no replication to other nodes, and
// exists only to exercise the tracker core in tests and in the CLI's
// single-node demo mode.
package storetest

import (
	"sync"
	"time"

	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/transform"
)

// MemStore implements contracts.Store over a mutex-guarded map. Every
// Put/TransformAsync/TransformSync synchronously invokes every subscriber
// with the changed entry before returning, which is stronger ordering than
// a real replicated store would give across nodes but sufficient to drive
// the lifecycle controller deterministically in tests.
type MemStore struct {
	mu   sync.Mutex
	data map[job.Id]job.Metadata
	ttl  map[job.Id]time.Time
	subs []func(contracts.ChangeBatch)
}

func New() *MemStore {
	return &MemStore{
		data: make(map[job.Id]job.Metadata),
		ttl:  make(map[job.Id]time.Time),
	}
}

func (s *MemStore) Get(id job.Id) (job.Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.data[id]
	return m, ok
}

func (s *MemStore) Put(id job.Id, meta job.Metadata) {
	s.mu.Lock()
	s.data[id] = meta
	subs := append([]func(contracts.ChangeBatch){}, s.subs...)
	s.mu.Unlock()

	s.notify(subs, id, meta)
}

func (s *MemStore) TransformAsync(id job.Id, c transform.Closure) {
	// Reference implementation applies synchronously; "async" here only
	// means the caller does not receive the resulting snapshot, matching
	// the fire-and-forget contract.
	s.TransformSync(id, c)
}

func (s *MemStore) TransformSync(id job.Id, c transform.Closure) job.Metadata {
	s.mu.Lock()
	cur := s.data[id]
	next := c.Apply(cur)
	s.data[id] = next
	subs := append([]func(contracts.ChangeBatch){}, s.subs...)
	s.mu.Unlock()

	s.notify(subs, id, next)

	return next
}

func (s *MemStore) Values() []job.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]job.Metadata, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, m)
	}
	return out
}

func (s *MemStore) Subscribe(callback func(contracts.ChangeBatch)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, callback)
}

func (s *MemStore) SetTTL(id job.Id, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ttl[id] = time.Now().Add(d)
}

// TTL returns the eviction deadline set for id, if any. Test-only
// accessor; a real store would evict on its own schedule.
func (s *MemStore) TTL(id job.Id) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.ttl[id]
	return t, ok
}

func (s *MemStore) notify(subs []func(contracts.ChangeBatch), id job.Id, meta job.Metadata) {
	if len(subs) == 0 {
		return
	}
	batch := contracts.ChangeBatch{id: meta}
	for _, sub := range subs {
		sub(batch)
	}
}
