package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks one event and one registration through the full happy path:
// draft → submit → approve, then join → approve → complete.  Each step
// asserts the guard that the handlers consult before writing.
func TestEventAndRegistrationLifecycle(t *testing.T) {
	now := time.Now()
	e := Event{Status: EventDraft, DateDeadline: now.Add(24 * time.Hour)}

	require.True(t, e.CanSubmit())
	e.Status = EventPending

	assert.False(t, e.CanSubmit(), "a pending event cannot be resubmitted")
	require.True(t, e.CanModerate())
	e.Status = EventApproved

	assert.False(t, e.CanModerate(), "moderation is one-shot")
	require.False(t, e.DeadlinePassed(now), "registration still open")

	r := Registration{Status: RegistrationPending}
	require.True(t, r.CanTransition(RegistrationApproved))
	assert.False(t, r.CanTransition(RegistrationCompleted), "cannot complete before approval")
	r.Status = RegistrationApproved

	assert.False(t, r.CanTransition(RegistrationApproved), "approval is one-shot")
	require.True(t, r.CanTransition(RegistrationCompleted))
	r.Status = RegistrationCompleted

	// COMPLETED is terminal: no transition out, no withdrawal.
	for _, target := range []string{RegistrationPending, RegistrationApproved, RegistrationRejected, RegistrationCompleted} {
		assert.False(t, r.CanTransition(target), "COMPLETED -> %s must be rejected", target)
	}
	assert.False(t, r.Cancellable())
}

// A rejected event goes back through review; a rejected registration
// does not.
func TestRejectionBranches(t *testing.T) {
	e := Event{Status: EventPending}
	require.True(t, e.CanModerate())
	e.Status = EventRejected

	assert.True(t, e.CanSubmit(), "rejected events may be revised and resubmitted")
	e.Status = EventPending
	assert.True(t, e.CanModerate())

	r := Registration{Status: RegistrationRejected}
	assert.False(t, r.CanTransition(RegistrationApproved))
	assert.False(t, r.CanTransition(RegistrationCompleted))
	assert.True(t, r.Cancellable(), "a rejected volunteer may still withdraw the row")
}
