// Package message defines the fixed-layout message struct passed between
// threads by the IPC primitives in internal/msg. It has no dependency on
// the scheduler so both internal/tcb (which stores pending messages) and
// internal/msg (which moves them) can import it without a cycle.
package message

import "github.com/ehrlich-b/vcrtos/internal/pid"

// Payload is the value half of a Message: either a pointer-sized opaque
// value or a 32-bit value, matching the original source's anonymous
// union. Go has no union type, so both fields are always present; only
// one is meaningful per message, by convention of the Type tag.
type Payload struct {
	Ptr   any
	Value uint32
}

// Message is copied by value at send time; the receiver sees a stable
// snapshot regardless of what the sender does afterward.
type Message struct {
	SenderPID pid.PID
	Type      uint16
	Content   Payload
}
