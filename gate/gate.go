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

// Package gate implements the busy-gate: a reader-writer gate, not a
// general mutex. Every public tracker operation and every dispatched event
// acquires a read hold for its duration; shutdown acquires the write hold
// exactly once and never releases it. Readers are admitted concurrently;
// once a writer has acquired (or is waiting to acquire) the gate, further
// read attempts fail fast instead of blocking.
package gate

import "sync"

// Gate wraps sync.RWMutex's TryRLock, which (as of Go 1.18) already refuses
// to grant a new read hold once a writer is waiting or holding the lock,
// giving fail-fast read acquisition once shutdown has begun instead of
// blocking new operations behind it.
type Gate struct {
	mu sync.RWMutex
}

// New returns an open Gate.
func New() *Gate {
	return &Gate{}
}

// Hold is a scoped read acquisition. Release MUST be called exactly once,
// on every exit path, typically via defer.
type Hold struct {
	release func()
}

// Release gives up the read hold. Safe to call multiple times; only the
// first call has an effect.
func (h *Hold) Release() {
	if h == nil || h.release == nil {
		return
	}
	r := h.release
	h.release = nil
	r()
}

// TryRead attempts to acquire a read hold. Returns ok=false immediately if
// shutdown has begun (or is in progress), never blocking.
func (g *Gate) TryRead() (*Hold, bool) {
	if !g.mu.TryRLock() {
		return nil, false
	}

	var once sync.Once
	return &Hold{release: func() {
		once.Do(g.mu.RUnlock)
	}}, true
}

// Shutdown acquires the write hold, waiting for every in-flight read hold
// to release, then returns. It never releases the write hold: the gate is
// permanently closed for the remaining lifetime of the process.
func (g *Gate) Shutdown() {
	g.mu.Lock()
	// Deliberately never unlocked: once shut down, the gate stays closed.
}
