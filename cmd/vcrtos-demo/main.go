// Command vcrtos-demo runs a priority-preemption walkthrough against a
// real kernel instance: idle, main, and hi threads are created at
// decreasing priority, and the driver walks the scheduler through
// blocking each one in turn, logging every step. The idle thread also
// gets a genuine goroutine via internal/archsim, so Ctrl+C has
// something alive to interrupt.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ehrlich-b/vcrtos"
	"github.com/ehrlich-b/vcrtos/internal/archsim"
	"github.com/ehrlich-b/vcrtos/internal/logging"
)

// schedObserver resumes a thread's backing goroutine (if any) whenever
// the scheduler picks it as active, and logs every block/wake/schedule
// event at debug level.
type schedObserver struct {
	sim    *archsim.Sim
	logger *logging.Logger
	tokens map[vcrtos.PID]uintptr
}

func (o *schedObserver) ObserveSchedule(p vcrtos.PID, priority int) {
	o.logger.WithPID(p).Debug("scheduled", "priority", priority)
	if token, ok := o.tokens[p]; ok {
		o.sim.Resume(token)
	}
}

func (o *schedObserver) ObserveBlock(p vcrtos.PID, reason string) {
	o.logger.WithPID(p).Debug("blocked", "reason", reason)
}

func (o *schedObserver) ObserveWake(p vcrtos.PID) {
	o.logger.WithPID(p).Debug("woke")
}

func (o *schedObserver) ObserveContextSwitchRequest(fromISR bool) {
	o.logger.Debug("context switch requested", "from_isr", fromISR)
}

func main() {
	verbose := flag.Bool("v", false, "verbose debug logging")
	cpu := flag.Int("cpu", -1, "pin the idle thread's goroutine to this CPU (-1 disables pinning)")
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	var kn *vcrtos.Kernel
	sim := archsim.New(func() { kn.Run() })
	if *cpu >= 0 {
		sim.SetCPUAffinity(*cpu)
	}

	obs := &schedObserver{sim: sim, logger: logger, tokens: make(map[vcrtos.PID]uintptr)}
	kn = vcrtos.NewKernel(vcrtos.DefaultConfig(), sim, logger, obs)

	// idle's real body lives here, not in ThreadParams.Entry: archsim's
	// StackInit ignores Entry/Arg entirely (it cannot spawn a goroutine
	// before a PID exists), so the function actually run on idle's
	// backing goroutine is the one handed to sim.Spawn below.
	idleAwake := make(chan struct{})
	idleBody := func() {
		logger.Info("idle: running, nothing else is ready")
		close(idleAwake)
		select {} // lowest-priority background task never exits
	}

	idle, err := kn.CreateThread(vcrtos.ThreadParams{
		Stack:    make([]uintptr, 64),
		Priority: vcrtos.PriorityIdle,
		Name:     "idle",
		Flags:    vcrtos.FlagWithoutYield,
		Entry:    func(any) {},
	})
	if err != nil {
		logger.Error("failed to create idle thread", "error", err)
		os.Exit(1)
	}
	obs.tokens[idle.PID()] = idle.StackPointer()
	sim.Spawn(idle.StackPointer(), idleBody)

	main_, err := kn.CreateThread(vcrtos.ThreadParams{
		Stack:    make([]uintptr, 64),
		Priority: vcrtos.PriorityMain,
		Name:     "main",
		Flags:    vcrtos.FlagWithoutYield,
	})
	if err != nil {
		logger.Error("failed to create main thread", "error", err)
		os.Exit(1)
	}

	hi, err := kn.CreateThread(vcrtos.ThreadParams{
		Stack:    make([]uintptr, 64),
		Priority: vcrtos.PriorityMain - 1,
		Name:     "hi",
		Flags:    vcrtos.FlagWithoutYield,
	})
	if err != nil {
		logger.Error("failed to create hi thread", "error", err)
		os.Exit(1)
	}

	logger.Info("threads created", "idle", idle.PID(), "main", main_.PID(), "hi", hi.PID())

	// hi preempts everything; blocking each thread in turn promotes the
	// next-lowest priority one, down to idle.
	kn.Run()
	logger.Info("active after Run()", "pid", kn.ActivePID(), "want", hi.PID())

	kn.SetStatus(hi, vcrtos.MutexBlocked)
	kn.Run()
	logger.Info("active after blocking hi", "pid", kn.ActivePID(), "want", main_.PID())

	kn.SetStatus(main_, vcrtos.MutexBlocked)
	kn.Run()
	logger.Info("active after blocking main", "pid", kn.ActivePID(), "want", idle.PID())

	<-idleAwake
	logger.Info("demo steady state reached, idle is running; press Ctrl+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("received shutdown signal, exiting")
}
