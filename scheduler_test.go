package rtsched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingArch counts YieldHigher/Idle invocations and lets a test drain
// idle spins by pushing a thread partway through.
type countingArch struct {
	yieldCount int
	idleCount  int
	onIdle     func()
}

func (a *countingArch) Idle() {
	a.idleCount++
	if a.onIdle != nil {
		a.onIdle()
	}
}
func (a *countingArch) YieldHigher()          { a.yieldCount++ }
func (a *countingArch) SwitchContextExit()    {}
func (a *countingArch) Panic(PanicKind, error) { panic("unexpected panic in test") }

func newSchedulerWithArch(t *testing.T, arch Arch) (*Scheduler, *countingArch) {
	t.Helper()
	ca, _ := arch.(*countingArch)
	s := NewScheduler(
		WithPrioLevels(4),
		WithMaxThreads(8),
		WithCollaborators(Collaborators{
			IRQ:   NewMutexIRQ(),
			Timer: NewTimer(func(uint32, func()) {}),
			Arch:  arch,
		}),
	)
	return s, ca
}

// TestScheduler_S1_PrioritySelection covers scenario S1: the lowest
// numbered priority wins regardless of admission order.
func TestScheduler_S1_PrioritySelection(t *testing.T) {
	s, _ := newSchedulerWithArch(t, &countingArch{})

	a := admitAt(t, s, "A", 1)
	b := admitAt(t, s, "B", 2)
	c := admitAt(t, s, "C", 3)
	s.SetStatus(a, StatusPending)
	s.SetStatus(b, StatusPending)
	s.SetStatus(c, StatusPending)

	next := s.PickNext()
	require.NotNil(t, next)
	assert.Equal(t, a, next)
	assert.Equal(t, StatusRunning, a.Status)
	assert.False(t, s.ContextSwitchRequested())
}

// TestScheduler_S2_PreemptOnPriorityRaise covers scenario S2: raising a
// pending thread above the active one forces an immediate yield.
func TestScheduler_S2_PreemptOnPriorityRaise(t *testing.T) {
	ca := &countingArch{}
	s, _ := newSchedulerWithArch(t, ca)

	a := admitAt(t, s, "A", 3)
	b := admitAt(t, s, "B", 3)
	s.SetStatus(a, StatusPending)
	s.SetStatus(b, StatusPending)
	require.Equal(t, a, s.PickNext())

	err := s.ChangePriority(b, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ca.yieldCount, "ChangePriority should force a yield when it outranks the active thread")

	next := s.PickNext()
	assert.Equal(t, b, next)
}

// TestScheduler_S6_IdleLoop covers scenario S6: with nothing runnable,
// PickNext spins on Arch.Idle until an ISR-equivalent push lands a thread.
func TestScheduler_S6_IdleLoop(t *testing.T) {
	ca := &countingArch{}
	s, _ := newSchedulerWithArch(t, ca)
	a := admitAt(t, s, "A", 1)

	spins := 0
	ca.onIdle = func() {
		spins++
		if spins == 3 {
			s.SetStatus(a, StatusPending)
		}
	}

	next := s.PickNext()
	require.NotNil(t, next)
	assert.Equal(t, a, next)
	assert.Equal(t, 3, ca.idleCount)
}

// TestScheduler_ChangePriority_TailOfNewClass covers invariant P4: after a
// change_priority call the thread lands at the tail of its new class and
// nowhere else.
func TestScheduler_ChangePriority_TailOfNewClass(t *testing.T) {
	s, _ := newSchedulerWithArch(t, &countingArch{})
	a := admitAt(t, s, "A", 1)
	b := admitAt(t, s, "B", 2)
	s.SetStatus(a, StatusPending)
	s.SetStatus(b, StatusPending)

	require.NoError(t, s.ChangePriority(a, 2))
	assert.True(t, s.rqEmpty(1))
	assert.Equal(t, b, s.rqHead(2), "b should remain at the head, a joins behind it")

	s.rqAdvance(2)
	assert.Equal(t, a, s.rqHead(2), "a was appended behind b, so one rotation brings it to the head")
}

func TestScheduler_Admit_Errors(t *testing.T) {
	s, _ := newSchedulerWithArch(t, &countingArch{})

	_, err := s.Admit(nil)
	assert.ErrorIs(t, err, ErrNilThread)

	over := NewThread("over", 99)
	_, err = s.Admit(over)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	th := NewThread("a", 1)
	_, err = s.Admit(th)
	require.NoError(t, err)
	_, err = s.Admit(th)
	assert.ErrorIs(t, err, ErrAlreadyAdmitted)
}

func TestScheduler_Admit_TableFull(t *testing.T) {
	s := NewScheduler(WithMaxThreads(1), WithCollaborators(Collaborators{
		IRQ: NewMutexIRQ(), Timer: NewTimer(func(uint32, func()) {}), Arch: &countingArch{},
	}))
	_, err := s.Admit(NewThread("a", 0))
	require.NoError(t, err)
	_, err = s.Admit(NewThread("b", 0))
	assert.ErrorIs(t, err, ErrProcessTableFull)
}

func TestScheduler_TaskExit_FreesPID(t *testing.T) {
	ca := &countingArch{}
	s, _ := newSchedulerWithArch(t, ca)
	a := admitAt(t, s, "A", 1)
	s.SetStatus(a, StatusPending)
	require.Equal(t, a, s.PickNext())

	pid := a.PID
	s.TaskExit(pid)

	assert.Nil(t, s.Thread(pid))
	assert.Equal(t, 0, s.LiveThreads())
	assert.Equal(t, UndefPID, s.ActivePID())
	assert.Equal(t, StatusStopped, a.Status)

	// The freed PID must be reusable.
	b := NewThread("B", 1)
	newPID, err := s.Admit(b)
	require.NoError(t, err)
	assert.Equal(t, pid, newPID)
}
