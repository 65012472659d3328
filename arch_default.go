package rtsched

import (
	"runtime"
	"time"
)

// defaultTimerSet backs DefaultCollaborators' Timer with time.AfterFunc,
// matching the reference workload's ztimer_set(SCHED_RR_TIMERBASE, ...)
// call in spirit: a host-process monotonic microsecond timer. Unlike
// ztimer_set, each call schedules an independent callback: a callback armed
// by an earlier call is not cancelled and still fires.
func defaultTimerSet(us uint32, fn func()) {
	time.AfterFunc(time.Duration(us)*time.Microsecond, fn)
}

// defaultIdle stands in for arch_idle(): it yields the goroutine scheduler
// rather than spinning hot, since there is no real hart to halt.
func defaultIdle() {
	runtime.Gosched()
}
