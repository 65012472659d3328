package rtsched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_OnRunqueue(t *testing.T) {
	offQueue := []Status{
		StatusStopped, StatusSleeping, StatusMutexBlocked, StatusReceiveBlocked,
		StatusSendBlocked, StatusReplyBlocked, StatusFlagBlockedAny,
		StatusFlagBlockedAll, StatusCondBlocked,
	}
	for _, s := range offQueue {
		assert.False(t, s.OnRunqueue(), "%s should be off-runqueue", s)
	}

	assert.True(t, StatusPending.OnRunqueue())
	assert.True(t, StatusRunning.OnRunqueue())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "STOPPED", StatusStopped.String())
	assert.Equal(t, "PENDING", StatusPending.String())
	assert.Equal(t, "RUNNING", StatusRunning.String())
	assert.Equal(t, "UNKNOWN", Status(123).String())
}
