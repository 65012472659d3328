package rtsched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()
	base := []Option{
		WithPrioLevels(4),
		WithMaxThreads(8),
		WithCollaborators(Collaborators{
			IRQ:   NewMutexIRQ(),
			Timer: NewTimer(func(uint32, func()) {}),
			Arch:  NewFuncArch(nil, nil, nil, nil),
		}),
	}
	return NewScheduler(append(base, opts...)...)
}

func admitAt(t *testing.T, s *Scheduler, name string, prio Priority) *Thread {
	t.Helper()
	th := NewThread(name, prio)
	_, err := s.Admit(th)
	require.NoError(t, err)
	return th
}

func TestRunqueue_FIFOOrder(t *testing.T) {
	s := newTestScheduler(t)
	a := admitAt(t, s, "a", 1)
	b := admitAt(t, s, "b", 1)
	c := admitAt(t, s, "c", 1)

	s.rqPush(a, 1)
	s.rqPush(b, 1)
	s.rqPush(c, 1)

	assert.Equal(t, a, s.rqHead(1))
	s.rqAdvance(1)
	assert.Equal(t, b, s.rqHead(1))
	s.rqAdvance(1)
	assert.Equal(t, c, s.rqHead(1))
	s.rqAdvance(1)
	assert.Equal(t, a, s.rqHead(1))
}

func TestRunqueue_PopRequiresHead(t *testing.T) {
	s := newTestScheduler(t)
	a := admitAt(t, s, "a", 1)
	b := admitAt(t, s, "b", 1)

	s.rqPush(a, 1)
	s.rqPush(b, 1)

	// a is at the head; popping it should succeed and leave b as the sole
	// occupant of the class.
	s.rqPop(a)
	assert.Equal(t, b, s.rqHead(1))
	assert.False(t, s.rqEmpty(1))

	s.rqPop(b)
	assert.True(t, s.rqEmpty(1))
}

func TestRunqueue_EmptyTransitionFiresNotifier(t *testing.T) {
	s := newTestScheduler(t)
	a := admitAt(t, s, "a", 1)

	var fired []Priority
	s.SetRunqueueChangeFunc(func(p Priority) {
		fired = append(fired, p)
	})

	// No active thread yet: push must not fire, per the "matches the
	// currently running thread's class" condition.
	s.rqPush(a, 1)
	assert.Empty(t, fired)

	s.activePID = a.PID
	s.active = a

	s.rqPop(a)
	require.Len(t, fired, 1)
	assert.Equal(t, Priority(1), fired[0])

	s.rqPush(a, 1)
	require.Len(t, fired, 2)
	assert.Equal(t, Priority(1), fired[1])
}

func TestRunqueue_AdvanceIsNoopOnSingleElement(t *testing.T) {
	s := newTestScheduler(t)
	a := admitAt(t, s, "a", 2)
	s.rqPush(a, 2)
	s.rqAdvance(2)
	assert.Equal(t, a, s.rqHead(2))
}
