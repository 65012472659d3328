// Command rrtester drives five simulated worker threads through a
// Scheduler/FeedbackController pair and prints their priority, remaining
// service time, and status once per report tick, the way the reference
// RRTester workload prints thread state from its own timer callback.
//
// Unlike the reference, this is a demo, not a benchmark: workloads and the
// quantum are scaled down so a run finishes in a few seconds of wall clock.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joeycumines/logiface"

	rtsched "github.com/joeycumines/go-rtsched"
)

// stepsPerSet mirrors STEPS_PER_SET: a worker's workload is expressed as a
// ratio out of this many steps, split between "work" and "rest".
const stepsPerSet = 10

// workScale mirrors WORK_SCALE, scaled down so the whole demo finishes
// quickly: microseconds of simulated work or rest per step.
const workScale = 2000

// workerConfig mirrors struct worker_config: a resting strategy and a
// work/rest ratio out of stepsPerSet.
type workerConfig struct {
	name     string
	nice     bool // use the voluntary block/wake strategy instead of no_wait
	workload uint32
	service  uint32 // initial CPU budget, microseconds
}

var configs = []workerConfig{
	{name: "TA", workload: 2, service: 300000},
	{name: "TB", workload: 2, service: 600000},
	{name: "TC", workload: 2, service: 400000},
	{name: "TD", workload: 2, service: 500000},
	// TE alone uses the "nice" strategy, so the demo exercises the
	// voluntary block/wake path (Switch) as well as the quantum-timer
	// preemption path the other four rely on exclusively.
	{name: "TE", nice: true, workload: 2, service: 200000},
}

func main() {
	logger := rtsched.NewJSONLogger(os.Stderr, logiface.LevelInformational)

	var sched *rtsched.Scheduler
	collab := rtsched.DefaultCollaborators()
	collab.Arch = rtsched.NewFuncArch(
		runtime.Gosched, // Idle: the same Gosched-based spin as the default
		func() {
			// Stands in for the software interrupt a real YieldHigher
			// would raise: take the critical section and ask the
			// scheduler to reconsider who should be running.
			state := sched.IRQ().Disable()
			sched.PickNext()
			sched.IRQ().Restore(state)
		},
		nil, // SwitchContextExit: unused, these workers never exit
		nil, // Panic: default to the standard library's panic
	)
	sched = rtsched.NewScheduler(
		rtsched.WithPrioLevels(4),
		rtsched.WithMaxThreads(8),
		rtsched.WithCollaborators(collab),
		rtsched.WithLogger(logger),
	)

	threads := make([]*rtsched.Thread, len(configs))
	for i, c := range configs {
		t := rtsched.NewThread(c.name, 1, rtsched.WithServiceTime(c.service))
		if _, err := sched.Admit(t); err != nil {
			fmt.Fprintln(os.Stderr, "admit:", err)
			os.Exit(1)
		}
		threads[i] = t
		sched.SetStatus(t, rtsched.StatusPending)
	}

	// Bootstrap: nothing is active yet, so none of the SetStatus calls
	// above fired the runqueue-change notifier (it only fires when a
	// transition matches the *currently running* thread's class, and there
	// isn't one yet). Pick the first thread by hand, the way a kernel's
	// early boot performs its first context switch before anything has
	// armed a feedback timer.
	reschedule(sched)

	fc := rtsched.NewFeedbackController(
		rtsched.WithMaxQ(3),
		rtsched.WithQuantum(200000), // 200ms, scaled down from the reference's 500ms
	)
	fc.Init(sched)

	for i, c := range configs {
		go runWorker(sched, threads[i], c)
	}

	report(sched, threads)
}

// runWorker plays one worker thread forever, the way thread_worker's
// for(;;) loop never returns. The process exits out from under these
// goroutines once report detects every thread has exhausted its service
// time, which mirrors the reference demo's own termination condition.
func runWorker(sched *rtsched.Scheduler, t *rtsched.Thread, cfg workerConfig) {
	time.Sleep(20 * time.Millisecond) // always be nice at start

	work := cfg.workload
	if work > stepsPerSet {
		work = stepsPerSet / 2
	}
	rest := stepsPerSet - work

	for {
		busyWait(work * workScale)

		if !cfg.nice {
			// no_wait: never voluntarily gives up the CPU. The feedback
			// controller's quantum timer is the only thing that ever
			// takes this thread off the runqueue head.
			continue
		}

		sched.SetStatus(t, rtsched.StatusSleeping)
		reschedule(sched)
		time.Sleep(time.Duration(rest*workScale) * time.Microsecond)
		sched.SetStatus(t, rtsched.StatusPending)
		sched.Switch(t.Priority)
	}
}

// busyWait stands in for bad_wait/ztimer_spin: keeps the goroutine's own
// CPU busy for us microseconds without giving up the scheduler's notion of
// who's active.
func busyWait(us uint32) {
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// reschedule asks the scheduler to reconsider who should be running,
// standing in for the architecture's context-switch trigger. Used directly
// (rather than through Switch) when the caller is the active thread giving
// up the CPU entirely, as opposed to merely hinting that a newly-runnable
// thread might deserve it.
func reschedule(sched *rtsched.Scheduler) {
	state := sched.IRQ().Disable()
	sched.PickNext()
	sched.IRQ().Restore(state)
}

// report prints each thread's priority, remaining service time, and status
// once per tick, the way stampa() does, and exits the process once every
// thread has exhausted its service time.
func report(sched *rtsched.Scheduler, threads []*rtsched.Thread) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if l := sched.Logger(); l != nil {
			l.Info().Int("active_pid", int(sched.ActivePID())).Log("report tick")
		}

		fmt.Print("\033[H\033[2J") // clear, matching the reference's system("clear")
		fmt.Println("Threads switches are visible by watching their status changing.")
		fmt.Println()
		fmt.Println("In Order: Thread Name - Priority - Remaining Time (ms) - Status")
		fmt.Println()

		allDone := true
		for _, t := range threads {
			fmt.Printf(" %s: %d %d %s\n", t.Name, t.Priority, t.ServiceTime/1000, t.Status)
			if t.ServiceTime != 0 || t.Status != rtsched.StatusStopped {
				allDone = false
			}
		}
		fmt.Println()

		if allDone {
			fmt.Println("Terminated. Removing threads from scheduler.")
			return
		}
	}
}
