// Package flags implements the per-thread bitmask signaling primitive:
// wait-any, wait-all, and wait-one.
package flags

import "github.com/ehrlich-b/vcrtos/internal/tcb"

// scheduler is the subset of *kernel.Kernel flags needs.
type scheduler interface {
	Critical(fn func())
	SetStatus(t *tcb.TCB, newStatus tcb.Status)
	RequestContextSwitch(priority int)
	InISR() bool
}

// satisfied reports whether t's current blocked status is satisfied by
// its present Flags value, per the wait-any/wait-all rule the blocking
// status itself records.
func satisfied(t *tcb.TCB) bool {
	switch t.Status {
	case tcb.FlagBlockedAny:
		return t.Flags&t.WaitedFlags != 0
	case tcb.FlagBlockedAll:
		return t.Flags&t.WaitedFlags == t.WaitedFlags
	default:
		return false
	}
}

// Set ORs mask into t.Flags; if that satisfies t's current wait, t
// transitions to Pending and a context switch is requested at t's
// priority.
func Set(k scheduler, t *tcb.TCB, mask uint16) {
	var switchPriority int
	var shouldSwitch bool
	k.Critical(func() {
		t.Flags |= mask
		if satisfied(t) {
			k.SetStatus(t, tcb.Pending)
			switchPriority, shouldSwitch = t.Priority, true
		}
	})
	if shouldSwitch {
		k.RequestContextSwitch(switchPriority)
	}
}

// Clear atomically clears mask bits on self's own Flags, returning the
// bits that were actually cleared.
func Clear(k scheduler, self *tcb.TCB, mask uint16) uint16 {
	var cleared uint16
	k.Critical(func() {
		cleared = self.Flags & mask
		self.Flags &^= mask
	})
	return cleared
}

// WaitAny returns immediately with the matching bits (cleared) if
// self.Flags&mask is already non-zero; otherwise blocks self
// FlagBlockedAny with waited_flags = mask.
// Returns the matched-and-cleared bits, or 0 if the call had to block
// (the eventual wake is driven by Set, the same state-machine-step
// model used throughout the kernel core).
func WaitAny(k scheduler, self *tcb.TCB, mask uint16) uint16 {
	var matched uint16
	var blocked bool
	k.Critical(func() {
		if self.Flags&mask != 0 {
			matched = self.Flags & mask
			self.Flags &^= matched
			return
		}
		self.WaitedFlags = mask
		k.SetStatus(self, tcb.FlagBlockedAny)
		blocked = true
	})
	if blocked {
		k.RequestContextSwitch(self.Priority)
	}
	return matched
}

// WaitAll is WaitAny's all-bits-required analogue.
func WaitAll(k scheduler, self *tcb.TCB, mask uint16) uint16 {
	var matched uint16
	var blocked bool
	k.Critical(func() {
		if self.Flags&mask == mask {
			matched = mask
			self.Flags &^= mask
			return
		}
		self.WaitedFlags = mask
		k.SetStatus(self, tcb.FlagBlockedAll)
		blocked = true
	})
	if blocked {
		k.RequestContextSwitch(self.Priority)
	}
	return matched
}

// WaitOne is WaitAny, but on a match clears only the least-significant
// set bit of the matching subset (rather than all of them, as in the
// original).
func WaitOne(k scheduler, self *tcb.TCB, mask uint16) uint16 {
	var matched uint16
	var blocked bool
	k.Critical(func() {
		tmp := self.Flags & mask
		if tmp != 0 {
			matched = tmp & (^tmp + 1)
			self.Flags &^= matched
			return
		}
		self.WaitedFlags = mask
		k.SetStatus(self, tcb.FlagBlockedAny)
		blocked = true
	})
	if blocked {
		k.RequestContextSwitch(self.Priority)
	}
	return matched
}

// DrainAfterWake is called once a thread previously blocked in
// WaitAny/WaitAll/WaitOne has been transitioned back to Pending/Running
// by Set, to clear the matched bits and report which ones they were.
// Tests and the root wrapper call this immediately after observing the
// thread is runnable again.
func DrainAfterWake(k scheduler, self *tcb.TCB) uint16 {
	var matched uint16
	k.Critical(func() {
		mask := self.WaitedFlags
		matched = self.Flags & mask
		self.Flags &^= matched
		self.WaitedFlags = 0
	})
	return matched
}
