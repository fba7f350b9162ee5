// Package integration exercises a full vcrtos.Kernel end to end:
// thread creation, mutex contention, request/reply rendezvous, thread
// flags, and the event queue all wired together against the public
// API, the way a real application built on this kernel would use it.
package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/vcrtos"
)

func newThread(t *testing.T, kn *vcrtos.Kernel, priority int, name string) *vcrtos.Thread {
	t.Helper()
	th, err := kn.CreateThread(vcrtos.ThreadParams{
		Stack:    make([]uintptr, 32),
		Entry:    func(any) {},
		Priority: priority,
		Name:     name,
		Flags:    vcrtos.FlagWithoutYield,
	})
	require.NoError(t, err)
	return th
}

func TestKernelLifecycleAndPriorityScheduling(t *testing.T) {
	kn, _, _ := vcrtos.NewTestKernel(vcrtos.DefaultConfig())

	idle := newThread(t, kn, vcrtos.PriorityIdle, "idle")
	worker := newThread(t, kn, vcrtos.PriorityMain, "worker")

	kn.Run()
	assert.Equal(t, worker.PID(), kn.ActivePID(), "the higher-priority thread should run first")

	kn.SetStatus(worker, vcrtos.MutexBlocked)
	kn.Run()
	assert.Equal(t, idle.PID(), kn.ActivePID(), "blocking worker should promote idle")

	snap := kn.Metrics().Snapshot()
	assert.GreaterOrEqual(t, snap.Schedules, uint64(2))
}

func TestMutexSerializesContendingThreads(t *testing.T) {
	kn, _, _ := vcrtos.NewTestKernel(vcrtos.DefaultConfig())
	m := kn.NewMutex()

	a := newThread(t, kn, 5, "a")
	b := newThread(t, kn, 6, "b")

	require.True(t, m.TryLock())
	m.Lock(b)
	m.Lock(a)

	assert.Equal(t, a.PID(), m.Peek(), "the highest-priority waiter should be first in line")

	m.Unlock()
	assert.Equal(t, vcrtos.Pending, a.Status())

	m.Unlock()
	assert.Equal(t, vcrtos.Pending, b.Status())
}

func TestRequestReplyRendezvousThroughPublicAPI(t *testing.T) {
	kn, _, _ := vcrtos.NewTestKernel(vcrtos.DefaultConfig())

	server := newThread(t, kn, 5, "server")
	vcrtos.InstallMsgQueue(server, 2)
	client := newThread(t, kn, 6, "client")

	var reply vcrtos.Message
	kn.SendReceive(client, server.PID(), &vcrtos.Message{Type: 1, Content: vcrtos.Payload{Value: 42}}, &reply)
	assert.Equal(t, vcrtos.ReplyBlocked, client.Status())

	var request vcrtos.Message
	require.Equal(t, 1, kn.Receive(server, &request, true))
	assert.EqualValues(t, 42, request.Content.Value)
	assert.Equal(t, client.PID(), request.SenderPID)

	require.Equal(t, 1, kn.Reply(client.PID(), &vcrtos.Message{Type: 2, Content: vcrtos.Payload{Value: 99}}))
	assert.Equal(t, vcrtos.Pending, client.Status())
	assert.EqualValues(t, 99, reply.Content.Value)
}

func TestFlagsAndEventQueueTogether(t *testing.T) {
	kn, _, _ := vcrtos.NewTestKernel(vcrtos.DefaultConfig())
	owner := newThread(t, kn, 5, "owner")

	assert.EqualValues(t, 0, kn.WaitAnyFlags(owner, 0x3))
	assert.Equal(t, vcrtos.FlagBlockedAny, owner.Status())

	kn.SetFlags(owner, 0x2)
	assert.Equal(t, vcrtos.Pending, owner.Status())
	assert.EqualValues(t, 0x2, kn.DrainFlagsAfterWake(owner))

	eq := kn.NewEventQueue(owner)
	ev := &vcrtos.Event{}
	eq.Post(ev)
	assert.Equal(t, 1, eq.Pending())

	got := eq.Get()
	require.NotNil(t, got)
	assert.Equal(t, 0, eq.Pending())
}
