package vcrtos

import "github.com/ehrlich-b/vcrtos/internal/event"

// FlagEvent is the thread-flags bit the event queue reserves for
// itself. Callers using SetFlags/WaitAnyFlags directly must not use
// this bit for their own signaling.
const FlagEvent = event.FlagEvent

// Event is an opaque event-queue header; attach caller data via
// Payload.
type Event = event.Event

// EventQueue is an intrusive FIFO of events belonging to one target
// thread, notified via FlagEvent.
type EventQueue struct {
	q *event.Queue
}

// NewEventQueue binds an EventQueue to kn and the thread it notifies.
func (kn *Kernel) NewEventQueue(target *Thread) *EventQueue {
	return &EventQueue{q: event.New(kn.k, target.tcbOf())}
}

// Post appends e to the queue (a no-op if e is already queued) and
// raises FlagEvent on the target thread regardless.
func (eq *EventQueue) Post(e *Event) { eq.q.Post(e) }

// Cancel unlinks e from the queue.
func (eq *EventQueue) Cancel(e *Event) { eq.q.Cancel(e) }

// Get pops the head event, or returns nil if empty.
func (eq *EventQueue) Get() *Event { return eq.q.Get() }

// Wait pops the head event if present; otherwise blocks the target
// thread on FlagEvent and returns nil — the caller must retry Get (or
// Wait again) once the thread is runnable again.
func (eq *EventQueue) Wait() *Event { return eq.q.Wait() }

// Release marks e as not queued, the caller-side acknowledgement that
// it is safe to reuse.
func (eq *EventQueue) Release(e *Event) { eq.q.Release(e) }

// Pending returns the number of events currently queued.
func (eq *EventQueue) Pending() int { return eq.q.Pending() }

// Peek returns the head event without removing it, or nil if empty.
func (eq *EventQueue) Peek() *Event { return eq.q.Peek() }
