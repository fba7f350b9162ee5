package kernel

import (
	"testing"

	"github.com/ehrlich-b/vcrtos/internal/config"
	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// fakeArch is a minimal, synchronous Arch stub: YieldHigher immediately
// calls back into the kernel's Run, the way a real pend-SV trap would
// after the hardware eventually takes the exception. inISR is toggled
// by tests that want to exercise the deferred-switch path.
type fakeArch struct {
	k              *Kernel
	inISR          bool
	yieldHigherCnt int
}

func (a *fakeArch) StackInit(entry func(arg any), arg any, stackStart uintptr, size int) uintptr {
	return stackStart
}
func (a *fakeArch) YieldHigher() {
	a.yieldHigherCnt++
	a.k.Run()
}
func (a *fakeArch) SwitchContextExit()      {}
func (a *fakeArch) IRQDisable() uint32      { return 0 }
func (a *fakeArch) IRQRestore(prev uint32)  {}
func (a *fakeArch) IRQEnable()              {}
func (a *fakeArch) InISR() bool             { return a.inISR }
func (a *fakeArch) TriggerPendSV()          {}
func (a *fakeArch) EndOfISR()               { a.k.EndOfISR() }

func newTestKernel(t *testing.T) (*Kernel, *fakeArch) {
	t.Helper()
	k := New(config.DefaultConfig(), nil, nil, nil)
	arch := &fakeArch{k: k}
	k.arch = arch
	return k, arch
}

func create(t *testing.T, k *Kernel, priority int, name string, flags tcb.CreateFlags) *tcb.TCB {
	t.Helper()
	th, err := k.CreateThread(CreateParams{
		Stack:    make([]uintptr, 16),
		Entry:    func(any) {},
		Priority: priority,
		Name:     name,
		Flags:    flags,
	})
	if err != nil {
		t.Fatalf("CreateThread(%s) failed: %v", name, err)
	}
	return th
}

// TestPriorityPreemptionChain checks a three-level priority chain:
// idle=15, main=7, hi=6; after Run, hi is RUNNING; blocking hi promotes
// main; blocking main promotes idle.
func TestPriorityPreemptionChain(t *testing.T) {
	k, _ := newTestKernel(t)

	idle := create(t, k, 15, "idle", tcb.FlagWithoutYield)
	main := create(t, k, 7, "main", tcb.FlagWithoutYield)
	hi := create(t, k, 6, "hi", tcb.FlagWithoutYield)

	k.Run()
	if k.Active() != hi {
		t.Fatalf("after Run(), active = %v, want hi", k.Active().Name)
	}
	if idle.Status != tcb.Pending || main.Status != tcb.Pending {
		t.Fatalf("idle/main should be Pending: idle=%v main=%v", idle.Status, main.Status)
	}

	k.SetStatus(hi, tcb.MutexBlocked)
	k.Run()
	if k.Active() != main {
		t.Fatalf("after blocking hi, active = %v, want main", k.Active().Name)
	}

	k.SetStatus(main, tcb.MutexBlocked)
	k.Run()
	if k.Active() != idle {
		t.Fatalf("after blocking main, active = %v, want idle", k.Active().Name)
	}
}

func TestSetStatusMaintainsBitmapInvariant(t *testing.T) {
	k, _ := newTestKernel(t)
	th := create(t, k, 3, "t", tcb.FlagWithoutYield)

	if k.bitmap&(1<<3) == 0 {
		t.Fatal("bitmap bit should be set once a thread is Pending at priority 3")
	}
	k.SetStatus(th, tcb.Sleeping)
	if k.bitmap&(1<<3) != 0 {
		t.Fatal("bitmap bit should clear once the only thread at priority 3 blocks")
	}
}

func TestWakeupReturnCodes(t *testing.T) {
	k, _ := newTestKernel(t)
	th := create(t, k, 5, "sleeper", tcb.FlagSleeping|tcb.FlagWithoutYield)

	if got := k.Wakeup(th.PID); got != 1 {
		t.Fatalf("Wakeup(sleeping) = %d, want 1", got)
	}
	if th.Status != tcb.Pending {
		t.Fatalf("status after wakeup = %v, want Pending", th.Status)
	}
	if got := k.Wakeup(th.PID); got != 0 {
		t.Fatalf("Wakeup(already pending) = %d, want 0", got)
	}
	if got := k.Wakeup(pid.PID(99)); got != -1 {
		t.Fatalf("Wakeup(invalid) = %d, want -1", got)
	}
}

func TestYieldRoundRobinsEqualPriority(t *testing.T) {
	k, _ := newTestKernel(t)
	a := create(t, k, 4, "a", tcb.FlagWithoutYield)
	b := create(t, k, 4, "b", tcb.FlagWithoutYield)

	k.Run()
	if k.Active() != a {
		t.Fatalf("active = %v, want a", k.Active().Name)
	}
	k.Yield()
	if k.Active() != b {
		t.Fatalf("after Yield, active = %v, want b", k.Active().Name)
	}
}

func TestDeBruijnLowestSetBit(t *testing.T) {
	for bit := 0; bit < 32; bit++ {
		x := uint32(1) << uint(bit)
		if got := deBruijnLowestSetBit(x); got != bit {
			t.Errorf("deBruijnLowestSetBit(1<<%d) = %d, want %d", bit, got, bit)
		}
	}
	if got := deBruijnLowestSetBit(0); got != -1 {
		t.Errorf("deBruijnLowestSetBit(0) = %d, want -1", got)
	}
	if got := deBruijnLowestSetBit(0b1100); got != 2 {
		t.Errorf("deBruijnLowestSetBit(0b1100) = %d, want 2", got)
	}
}

func TestCreateThreadExhaustsPIDs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxThreads = 2
	k := New(cfg, &fakeArch{}, nil, nil)
	k.arch.(*fakeArch).k = k

	create(t, k, 0, "a", tcb.FlagWithoutYield)
	create(t, k, 1, "b", tcb.FlagWithoutYield)

	_, err := k.CreateThread(CreateParams{
		Stack:    make([]uintptr, 4),
		Entry:    func(any) {},
		Priority: 0,
	})
	if err == nil {
		t.Fatal("CreateThread should fail once MaxThreads PIDs are in use")
	}
}

func TestExitRemovesFromPIDTable(t *testing.T) {
	k, arch := newTestKernel(t)
	th := create(t, k, 2, "t", tcb.FlagWithoutYield)
	k.Run()
	if k.Active() != th {
		t.Fatal("setup: expected th to be active")
	}

	k.Exit()
	if k.Thread(th.PID) != nil {
		t.Fatal("Exit should remove the thread from the PID table")
	}
	_ = arch
}
