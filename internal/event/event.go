// Package event implements the intrusive event queue: a FIFO of
// user-owned event records, notified via a reserved bit of the
// thread-flags word. It is a thin layer over internal/flags plus an
// intrusive list.
package event

import (
	"github.com/ehrlich-b/vcrtos/internal/flags"
	"github.com/ehrlich-b/vcrtos/internal/list"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// FlagEvent is the thread-flags bit this package reserves for itself.
// Callers enabling THREAD_EVENT_ENABLE must not use this bit for their
// own flags.Set/WaitAny calls.
const FlagEvent uint16 = 1 << 15

// scheduler is the subset of *kernel.Kernel event needs; it composes on
// top of flags' own scheduler requirement since Post/Wait call through
// to flags.Set/WaitAny.
type scheduler interface {
	Critical(fn func())
	SetStatus(t *tcb.TCB, newStatus tcb.Status)
	RequestContextSwitch(priority int)
	InISR() bool
}

// Event is an opaque header; payload is caller-defined (embed Event in
// a user struct, or attach an opaque Payload pointer here). The core
// only ever manipulates the header.
type Event struct {
	node    *list.Node[*Event]
	queued  bool
	Payload any
}

// Queue is an intrusive FIFO of events belonging to one target thread.
type Queue struct {
	k      scheduler
	target *tcb.TCB
	events list.WaitList[*Event]
}

// New binds a Queue to the scheduler and the thread it notifies via
// FlagEvent.
func New(k scheduler, target *tcb.TCB) *Queue {
	return &Queue{k: k, target: target}
}

// Post appends e to the queue (a no-op if e is already queued) and
// raises FlagEvent on the target thread regardless.
func (q *Queue) Post(e *Event) {
	q.k.Critical(func() {
		if !e.queued {
			e.node = q.events.PushTail(e)
			e.queued = true
		}
	})
	flags.Set(q.k, q.target, FlagEvent)
}

// Cancel unlinks e from the queue and clears its queued marker.
func (q *Queue) Cancel(e *Event) {
	q.k.Critical(func() {
		if e.queued {
			q.events.Remove(e.node)
			e.node = nil
			e.queued = false
		}
	})
}

// Get pops the head event, or returns nil if empty.
func (q *Queue) Get() *Event {
	var e *Event
	q.k.Critical(func() {
		v, ok := q.events.RemoveHead()
		if !ok {
			return
		}
		e = v
		e.node = nil
		e.queued = false
	})
	return e
}

// Wait pops the head event if one is present; otherwise it blocks the
// target thread on FlagEvent via flags.WaitAny and returns nil — the
// caller must retry Get (or Wait again) once the thread is runnable
// again, matching this package's state-machine-step model.
func (q *Queue) Wait() *Event {
	if e := q.Get(); e != nil {
		return e
	}
	flags.WaitAny(q.k, q.target, FlagEvent)
	return nil
}

// Release marks e as not queued, the caller-side acknowledgement that
// it is safe to reuse.
func (q *Queue) Release(e *Event) {
	e.node = nil
	e.queued = false
}

// Pending returns the number of events currently queued.
func (q *Queue) Pending() int {
	count := 0
	q.events.Each(func(*Event) { count++ })
	return count
}

// Peek returns the head event without removing it, or nil if empty.
func (q *Queue) Peek() *Event {
	v, ok := q.events.Head()
	if !ok {
		return nil
	}
	return v
}
