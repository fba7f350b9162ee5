package vcrtos

import (
	"github.com/ehrlich-b/vcrtos/internal/message"
	"github.com/ehrlich-b/vcrtos/internal/msg"
)

// Payload is a message's value half: either an opaque pointer-sized
// value or a 32-bit value, matching the original source's anonymous
// union.
type Payload = message.Payload

// Message is copied by value at send time.
type Message = message.Message

// InstallMsgQueue gives th a bounded incoming-message mailbox of the
// given power-of-two capacity. A thread with no installed queue cannot
// be sent to at all.
func InstallMsgQueue(th *Thread, capacity uint32) {
	msg.InstallQueue(th.tcbOf(), capacity)
}

// Send delivers m to target on behalf of self. If
// blocking is true and neither rendezvous nor the target's queue can
// take it immediately, self blocks SendBlocked. Returns 1 success, 0
// not delivered (would-block on the non-blocking path, or self parked
// SendBlocked on the blocking path), -1 invalid target or no queue.
func (kn *Kernel) Send(self *Thread, target PID, m *Message, blocking bool) int {
	return msg.Send(kn.k, self.tcbOf(), target, m, blocking)
}

// Receive fills dst if a message is immediately available, returning
// 1. If blocking and nothing is available, self becomes ReceiveBlocked
// and this returns 0; dst is filled later, out of band, whenever a
// Send eventually targets self. If non-blocking and nothing is
// available, returns -1.
func (kn *Kernel) Receive(self *Thread, dst *Message, blocking bool) int {
	return msg.Receive(kn.k, self.tcbOf(), dst, blocking)
}

// SendFromISR is Send's ISR-context variant: sender PID is PIDISR,
// delivery never blocks.
func (kn *Kernel) SendFromISR(target PID, m *Message) int {
	return msg.SendFromISR(kn.k, target, m)
}

// SendToSelfQueue enqueues m into self's own mailbox, failing if self
// never installed one.
func (kn *Kernel) SendToSelfQueue(self *Thread, m *Message) int {
	return msg.SendToSelfQueue(kn.k, self.tcbOf(), m)
}

// SendReceive atomically marks self ReplyBlocked then performs a
// blocking Send, so the eventual Reply lands in replyOut.
func (kn *Kernel) SendReceive(self *Thread, target PID, m *Message, replyOut *Message) int {
	return msg.SendReceive(kn.k, self.tcbOf(), target, m, replyOut)
}

// Reply delivers replyMsg to target, valid only if target is currently
// ReplyBlocked.
func (kn *Kernel) Reply(target PID, replyMsg *Message) int {
	return msg.Reply(kn.k, target, replyMsg)
}
