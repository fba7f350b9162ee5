// Package msg implements synchronous rendezvous send/receive, bounded
// per-thread mailboxes, and request/reply, grounded on the original
// source's core/msg.cpp — including that file's has_msg_queue() gating
// (a target with no installed queue can't be sent to at all, even for
// pure rendezvous delivery) and its FIFO-within-priority msg_waiters
// ordering.
//
// Because this package models suspension as a pure state transition,
// rather than an actual blocking call, a blocking Receive does not
// return the delivered payload from the call that blocks: it returns a
// status code, and the payload later appears in the destination buffer
// the caller supplied, written there directly by whatever Send
// eventually wakes the receiver. Callers drive the state machine by
// making the next call once a thread is runnable again.
package msg

import (
	"github.com/ehrlich-b/vcrtos/internal/cib"
	"github.com/ehrlich-b/vcrtos/internal/message"
	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// scheduler is the subset of *kernel.Kernel msg needs.
type scheduler interface {
	Critical(fn func())
	SetStatus(t *tcb.TCB, newStatus tcb.Status)
	RequestContextSwitch(priority int)
	Thread(p pid.PID) *tcb.TCB
}

func lessPriority(a, b *tcb.TCB) bool { return a.Priority < b.Priority }

// InstallQueue gives t a bounded incoming-message mailbox of the given
// power-of-two capacity. A thread with no installed queue cannot be
// sent to at all.
func InstallQueue(t *tcb.TCB, capacity uint32) {
	c := cib.New(capacity)
	t.MsgQueue = c
	t.MsgArray = make([]message.Message, c.Cap())
}

// Send delivers msg to targetPID on behalf of self.
// msg.SenderPID is overwritten with self.PID. Returns 1 success, 0
// not delivered (would-block on the non-blocking path, or self parked
// SendBlocked on the blocking path), -1 invalid target or no queue.
func Send(k scheduler, self *tcb.TCB, targetPID pid.PID, msg *message.Message, blocking bool) int {
	var result int
	var switchPriority int
	var shouldSwitch bool

	k.Critical(func() {
		target := k.Thread(targetPID)
		if target == nil || target.MsgQueue == nil {
			result = -1
			return
		}
		msg.SenderPID = self.PID

		if target.Status == tcb.ReceiveBlocked {
			deliverDirect(target, msg)
			k.SetStatus(target, tcb.Pending)
			switchPriority, shouldSwitch = target.Priority, true
			result = 1
			return
		}

		if idx := target.MsgQueue.Put(); idx != -1 {
			target.MsgArray[idx] = *msg
			result = 1
			if self.Status == tcb.ReplyBlocked {
				switchPriority, shouldSwitch = target.Priority, true
			}
			return
		}

		if !blocking {
			result = 0
			return
		}

		if self.Status != tcb.ReplyBlocked {
			k.SetStatus(self, tcb.SendBlocked)
		}
		self.WaitData = msg
		target.MsgWaiters.PushPriority(self, lessPriority)
		switchPriority, shouldSwitch = self.Priority, true
	})

	if shouldSwitch {
		k.RequestContextSwitch(switchPriority)
	}
	return result
}

// deliverDirect copies msg into target's wait_data destination buffer,
// the rendezvous fast path.
func deliverDirect(target *tcb.TCB, msg *message.Message) {
	if dst, ok := target.WaitData.(*message.Message); ok {
		*dst = *msg
	}
}

// Receive fills dst if a message is immediately available (from the
// queue or a waiting sender), returning 1. If blocking and nothing is
// available, self transitions to ReceiveBlocked with wait_data = dst
// and this returns 0; dst is filled later, out of band, by whichever
// Send eventually targets self. If non-blocking and nothing is
// available, returns -1.
func Receive(k scheduler, self *tcb.TCB, dst *message.Message, blocking bool) int {
	var result int
	var switchPriority int
	var shouldSwitch bool

	k.Critical(func() {
		haveQueued := self.MsgQueue != nil && self.MsgQueue.Used() > 0
		sender, hasSender := self.MsgWaiters.Head()

		switch {
		case haveQueued:
			idx := self.MsgQueue.Get()
			*dst = self.MsgArray[idx]
			if hasSender {
				self.MsgWaiters.RemoveHead()
				senderMsg, _ := sender.WaitData.(*message.Message)
				freeIdx := self.MsgQueue.Put()
				self.MsgArray[freeIdx] = *senderMsg
				if sender.Status != tcb.ReplyBlocked {
					k.SetStatus(sender, tcb.Pending)
					switchPriority, shouldSwitch = sender.Priority, true
				}
			}
			result = 1

		case hasSender:
			self.MsgWaiters.RemoveHead()
			senderMsg, _ := sender.WaitData.(*message.Message)
			*dst = *senderMsg
			if sender.Status != tcb.ReplyBlocked {
				k.SetStatus(sender, tcb.Pending)
				switchPriority, shouldSwitch = sender.Priority, true
			}
			result = 1

		case !blocking:
			result = -1

		default:
			k.SetStatus(self, tcb.ReceiveBlocked)
			self.WaitData = dst
			result = 0
		}
	})

	if shouldSwitch {
		k.RequestContextSwitch(switchPriority)
	}
	return result
}

// SendFromISR is Send's ISR-context variant: sender PID is pid.ISR,
// delivery never blocks, and a woken thread triggers a deferred switch
// request rather than an immediate yield.
func SendFromISR(k scheduler, targetPID pid.PID, msg *message.Message) int {
	var result int
	var switchPriority int
	var shouldSwitch bool

	k.Critical(func() {
		target := k.Thread(targetPID)
		if target == nil || target.MsgQueue == nil {
			result = -1
			return
		}
		msg.SenderPID = pid.ISR

		if target.Status == tcb.ReceiveBlocked {
			deliverDirect(target, msg)
			k.SetStatus(target, tcb.Pending)
			switchPriority, shouldSwitch = target.Priority, true
			result = 1
			return
		}
		if idx := target.MsgQueue.Put(); idx != -1 {
			target.MsgArray[idx] = *msg
			result = 1
			return
		}
		result = 0
	})

	if shouldSwitch {
		k.RequestContextSwitch(switchPriority)
	}
	return result
}

// SendToSelfQueue enqueues msg into self's own mailbox, failing if self
// never installed one.
func SendToSelfQueue(k scheduler, self *tcb.TCB, msg *message.Message) int {
	var result int
	k.Critical(func() {
		if self.MsgQueue == nil {
			result = -1
			return
		}
		msg.SenderPID = self.PID
		idx := self.MsgQueue.Put()
		if idx == -1 {
			result = 0
			return
		}
		self.MsgArray[idx] = *msg
		result = 1
	})
	return result
}

// SendReceive atomically marks self ReplyBlocked (wait_data = replyOut)
// then performs a blocking Send, so the reply eventually lands in
// replyOut.
func SendReceive(k scheduler, self *tcb.TCB, targetPID pid.PID, msg *message.Message, replyOut *message.Message) int {
	k.Critical(func() {
		self.WaitData = replyOut
		k.SetStatus(self, tcb.ReplyBlocked)
	})
	return Send(k, self, targetPID, msg, true)
}

// Reply delivers replyMsg to targetPID, valid only if target's recorded
// status is ReplyBlocked; wakes it and requests a switch at its
// priority.
func Reply(k scheduler, targetPID pid.PID, replyMsg *message.Message) int {
	var result int
	var switchPriority int
	var shouldSwitch bool

	k.Critical(func() {
		target := k.Thread(targetPID)
		if target == nil || target.Status != tcb.ReplyBlocked {
			result = -1
			return
		}
		deliverDirect(target, replyMsg)
		k.SetStatus(target, tcb.Pending)
		switchPriority, shouldSwitch = target.Priority, true
		result = 1
	})

	if shouldSwitch {
		k.RequestContextSwitch(switchPriority)
	}
	return result
}
