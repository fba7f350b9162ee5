package event

import (
	"testing"

	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

type fakeScheduler struct {
	switches []int
}

func (f *fakeScheduler) Critical(fn func())                { fn() }
func (f *fakeScheduler) SetStatus(t *tcb.TCB, s tcb.Status) { t.Status = s }
func (f *fakeScheduler) RequestContextSwitch(priority int)  { f.switches = append(f.switches, priority) }
func (f *fakeScheduler) InISR() bool                        { return false }

func TestPostThenWaitReturnsSameEvent(t *testing.T) {
	sched := &fakeScheduler{}
	target := &tcb.TCB{PID: 1, Priority: 2, Status: tcb.Running}
	q := New(sched, target)

	ev := &Event{Payload: "hello"}
	q.Post(ev)

	if got := q.Wait(); got != ev {
		t.Fatalf("Wait() = %v, want the posted event", got)
	}
}

func TestPostSameEventTwiceLeavesQueueLengthOne(t *testing.T) {
	sched := &fakeScheduler{}
	target := &tcb.TCB{PID: 1, Priority: 2, Status: tcb.Running}
	q := New(sched, target)

	ev := &Event{}
	q.Post(ev)
	q.Post(ev)
	q.Post(ev)

	if got := q.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
}

func TestPostRaisesFlagEvent(t *testing.T) {
	sched := &fakeScheduler{}
	target := &tcb.TCB{PID: 1, Priority: 2, Status: tcb.Running}
	q := New(sched, target)

	q.Post(&Event{})
	if target.Flags&FlagEvent == 0 {
		t.Fatal("Post should raise FlagEvent on the target")
	}
}

func TestWaitBlocksWhenEmpty(t *testing.T) {
	sched := &fakeScheduler{}
	target := &tcb.TCB{PID: 1, Priority: 2, Status: tcb.Running}
	q := New(sched, target)

	if got := q.Wait(); got != nil {
		t.Fatalf("Wait() on empty queue = %v, want nil", got)
	}
	if target.Status != tcb.FlagBlockedAny {
		t.Fatalf("target.Status = %v, want FlagBlockedAny", target.Status)
	}
}

func TestCancelRemovesFromQueue(t *testing.T) {
	sched := &fakeScheduler{}
	target := &tcb.TCB{PID: 1, Priority: 2, Status: tcb.Running}
	q := New(sched, target)

	a := &Event{}
	b := &Event{}
	q.Post(a)
	q.Post(b)
	q.Cancel(a)

	if got := q.Pending(); got != 1 {
		t.Fatalf("Pending() after cancel = %d, want 1", got)
	}
	if got := q.Get(); got != b {
		t.Fatalf("Get() after cancelling a = %v, want b", got)
	}
}
