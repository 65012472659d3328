// Package rtsched implements the core of a preemptive, priority-based
// thread scheduler for a small real-time kernel, together with a
// multi-level feedback-queue (MLFQ) policy that demotes long-running
// compute-bound threads and time-slices the lowest priority class.
//
// # Scope
//
// The package covers three tightly coupled pieces:
//
//   - the base scheduler (Scheduler): runqueue management, next-thread
//     selection, context-switch request handling, and thread state
//     transitions;
//   - the feedback policy (FeedbackController): a timer-driven controller
//     that observes the running thread's remaining service time and
//     demotes it through priority classes;
//   - the runqueue-change notification protocol that couples the two
//     without either knowing the other's internals (RunqueueChangeFunc).
//
// Architecture-specific concerns — the real context-switch primitive, IRQ
// intrinsics, the timer subsystem, thread/stack creation, and memory
// protection — are modeled as small collaborator interfaces (IRQ, Arch,
// Timer) that the host environment supplies. See DefaultCollaborators for a
// goroutine-friendly default suitable for simulation, testing, and the
// cmd/rrtester demo.
//
// # Concurrency model
//
// The scheduler simulates a single-hart, interrupt-driven machine: every
// mutation of the runqueue table, bit-cache, active-thread pointers, or a
// thread's status/priority must happen with the IRQ collaborator's critical
// section held. The package itself never enters or leaves that section on
// its callers' behalf except where the original C contract says so (see
// ChangePriority and TaskExit; SetStatus and PickNext expect the caller to
// hold it). The FeedbackController's quantum-expiry handler also takes the
// section around each of its own mutations.
package rtsched
