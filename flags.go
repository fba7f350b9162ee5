package vcrtos

import "github.com/ehrlich-b/vcrtos/internal/flags"

// SetFlags ORs mask into th.Flags; if that satisfies th's current
// wait, th transitions to Pending and a context switch is requested at
// its priority.
func (kn *Kernel) SetFlags(th *Thread, mask uint16) {
	flags.Set(kn.k, th.tcbOf(), mask)
}

// ClearFlags atomically clears mask bits on self's own flags, returning
// the bits that were actually cleared.
func (kn *Kernel) ClearFlags(self *Thread, mask uint16) uint16 {
	return flags.Clear(kn.k, self.tcbOf(), mask)
}

// WaitAnyFlags returns immediately with the matching bits (cleared) if
// any are already set; otherwise blocks self FlagBlockedAny. Returns
// the matched-and-cleared bits, or 0 if the call had to block.
func (kn *Kernel) WaitAnyFlags(self *Thread, mask uint16) uint16 {
	return flags.WaitAny(kn.k, self.tcbOf(), mask)
}

// WaitAllFlags is WaitAnyFlags's all-bits-required analogue.
func (kn *Kernel) WaitAllFlags(self *Thread, mask uint16) uint16 {
	return flags.WaitAll(kn.k, self.tcbOf(), mask)
}

// WaitOneFlag is WaitAnyFlags, but on a match clears only the
// least-significant set bit of the matching subset.
func (kn *Kernel) WaitOneFlag(self *Thread, mask uint16) uint16 {
	return flags.WaitOne(kn.k, self.tcbOf(), mask)
}

// DrainFlagsAfterWake clears and reports the matched bits for a thread
// just woken from WaitAnyFlags/WaitAllFlags/WaitOneFlag.
func (kn *Kernel) DrainFlagsAfterWake(self *Thread) uint16 {
	return flags.DrainAfterWake(kn.k, self.tcbOf())
}
