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

// Package dispatcher serialises store-change notifications and discovery
// events onto a single background worker so neither the store's
// replication thread nor the discovery subsystem ever re-enters tracker
// code concurrently. A reconcile-style loop processing one request at a
// time is generalised here to an arbitrary queue of event closures shared
// by every event source on a node.
package dispatcher

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is a unit of work enqueued onto the dispatcher. It is run on the
// single worker goroutine; it must not block indefinitely or the whole
// node's event processing stalls.
type Event func()

// Dispatcher is a single-threaded, unbounded FIFO worker.
type Dispatcher struct {
	log *logrus.Entry

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *list.List
	closed  bool
	stopped chan struct{}
}

func New(log *logrus.Entry) *Dispatcher {
	d := &Dispatcher{
		log:     log,
		queue:   list.New(),
		stopped: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)

	go d.run()

	return d
}

// Enqueue appends an event to the FIFO. Safe to call from any goroutine,
// including store-change and discovery callbacks. A no-op once Stop has
// been called.
func (d *Dispatcher) Enqueue(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.queue.PushBack(ev)
	d.cond.Signal()
}

func (d *Dispatcher) run() {
	defer close(d.stopped)

	for {
		d.mu.Lock()
		for d.queue.Len() == 0 && !d.closed {
			d.cond.Wait()
		}

		if d.queue.Len() == 0 && d.closed {
			d.mu.Unlock()
			return
		}

		front := d.queue.Front()
		d.queue.Remove(front)
		d.mu.Unlock()

		ev := front.Value.(Event)
		d.runSafely(ev)
	}
}

// runSafely isolates a single event's panic/failure from the worker
// goroutine itself: unhandled errors in event handlers are logged and must
// not propagate across jobs.
func (d *Dispatcher) runSafely(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("panic", r).Error("event handler panicked")
		}
	}()

	ev()
}

// Stop drains the queue and waits for the worker to exit. Enqueue becomes a
// no-op immediately; events already queued still run before Stop returns.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()

	<-d.stopped
}
