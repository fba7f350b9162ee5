// Package vcrtos provides the public API for a preemptive,
// priority-based real-time kernel: threads, mutexes, synchronous
// message passing, thread flags, and an intrusive event queue, all
// modeled as a synchronous state machine driven entirely by explicit
// calls rather than goroutines blocking on channels — every primitive
// here is a plain method that mutates kernel state under a single
// critical section and returns (see the scheduler's own design notes
// in internal/kernel for why).
//
// A typical embedding binds an Arch implementation (internal/archsim
// for development and tests, a real board package in production),
// constructs a Kernel, creates a handful of Threads at different
// priorities, and lets the Arch collaborator drive Run from its
// context-switch trap.
package vcrtos
