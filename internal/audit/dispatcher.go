// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher decouples audit emission from delivery: Log enqueues onto a
// buffered channel and a single worker goroutine fans events out to the
// sinks. When the buffer is full the event is dropped and counted; the
// success path of the core never waits on audit delivery.
type Dispatcher struct {
	sinks     []Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher delivering to sinks. A non-positive
// buffer is raised to 1.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		sinks: sinks,
		ch:    make(chan Event, buffer),
		done:  make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	ctx := context.Background()
	for _, sink := range d.sinks {
		sink.Append(ctx, event)
	}
}

// Log enqueues an event without blocking. Events emitted after Close or
// while the buffer is full are dropped and counted.
func (d *Dispatcher) Log(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if d.closed.Load() {
		d.dropped.Add(1)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case d.ch <- event:
	case <-d.done:
		d.dropped.Add(1)
	default:
		d.dropped.Add(1)
	}
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of events discarded due to a full buffer
// or because they arrived at or after shutdown.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
