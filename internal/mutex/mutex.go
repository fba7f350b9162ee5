// Package mutex implements a binary lock with a FIFO, priority-ordered
// waiter list, grounded on the original source's core/mutex.cpp. The
// three-state "queue" field (unlocked / locked with no waiters / locked
// with a waiter list) is modeled as a tagged union, replacing the
// source's pointer-equal `LOCKED` sentinel.
package mutex

import (
	"github.com/ehrlich-b/vcrtos/internal/list"
	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// scheduler is the subset of *kernel.Kernel the mutex needs. Declared
// locally (rather than importing internal/kernel's concrete type) so
// internal/mutex has no import-cycle risk and so tests can supply a
// fake.
type scheduler interface {
	Critical(fn func())
	SetStatus(t *tcb.TCB, newStatus tcb.Status)
	RequestContextSwitch(priority int)
}

// state tags the three mutually exclusive shapes of Mutex.queue,
// replacing the original source's `queue.next == NULL` / `== LOCKED` /
// "points at a waiter" pointer aliasing.
type state int

const (
	unlocked state = iota
	lockedNoWaiters
	lockedWithWaiters
)

// Mutex is a binary lock. The zero value has no scheduler bound and is
// not usable; construct with New.
type Mutex struct {
	k       scheduler
	state   state
	waiters list.WaitList[*tcb.TCB]
}

// New binds a Mutex to the scheduler it will block/wake threads on.
func New(k scheduler) *Mutex {
	return &Mutex{k: k}
}

func lessPriority(a, b *tcb.TCB) bool { return a.Priority < b.Priority }

// TryLock attempts to acquire the mutex without blocking. Returns true
// if acquired.
func (m *Mutex) TryLock() bool {
	acquired := false
	m.k.Critical(func() {
		if m.state == unlocked {
			m.state = lockedNoWaiters
			acquired = true
		}
	})
	return acquired
}

// Lock acquires the mutex, blocking the calling thread (represented by
// self) if it is already held.
func (m *Mutex) Lock(self *tcb.TCB) {
	var shouldSwitch bool
	m.k.Critical(func() {
		switch m.state {
		case unlocked:
			m.state = lockedNoWaiters
			return
		case lockedNoWaiters:
			m.k.SetStatus(self, tcb.MutexBlocked)
			m.waiters.PushPriority(self, lessPriority)
			m.state = lockedWithWaiters
			shouldSwitch = true
		case lockedWithWaiters:
			m.k.SetStatus(self, tcb.MutexBlocked)
			m.waiters.PushPriority(self, lessPriority)
			shouldSwitch = true
		}
	})
	if shouldSwitch {
		m.k.RequestContextSwitch(self.Priority)
	}
}

// Unlock releases the mutex. If waiters are queued, the lock is
// transferred (not released) to the highest-priority one, which is set
// Pending, and the mutex stays locked (locked-with-no-waiters once the
// last waiter has been handed the lock). With no waiters queued the
// mutex becomes unlocked; if it was already unlocked, this is a no-op.
func (m *Mutex) Unlock() {
	var wokenPriority int
	var shouldSwitch bool
	m.k.Critical(func() {
		switch m.state {
		case unlocked:
			return
		case lockedNoWaiters:
			m.state = unlocked
		case lockedWithWaiters:
			woken, ok := m.waiters.RemoveHead()
			if !ok {
				m.state = unlocked
				return
			}
			m.k.SetStatus(woken, tcb.Pending)
			wokenPriority = woken.Priority
			shouldSwitch = true
			if m.waiters.Empty() {
				m.state = lockedNoWaiters
			}
		}
	})
	if shouldSwitch {
		m.k.RequestContextSwitch(wokenPriority)
	}
}

// UnlockAndSleep performs Unlock and the caller's Sleep transition
// atomically with respect to each other, so no wakeup directed at self
// is lost between the two phases.
func (m *Mutex) UnlockAndSleep(self *tcb.TCB) {
	m.k.Critical(func() {
		switch m.state {
		case lockedNoWaiters:
			m.state = unlocked
		case lockedWithWaiters:
			woken, ok := m.waiters.RemoveHead()
			if ok {
				m.k.SetStatus(woken, tcb.Pending)
				if m.waiters.Empty() {
					m.state = lockedNoWaiters
				}
			} else {
				m.state = unlocked
			}
		}
		m.k.SetStatus(self, tcb.Sleeping)
	})
	m.k.RequestContextSwitch(self.Priority)
}

// Peek returns the PID of the head waiter, or pid.Undef if the mutex is
// unlocked or locked with no waiters.
func (m *Mutex) Peek() pid.PID {
	result := pid.Undef
	m.k.Critical(func() {
		if m.state != lockedWithWaiters {
			return
		}
		if head, ok := m.waiters.Head(); ok {
			result = head.PID
		}
	})
	return result
}
