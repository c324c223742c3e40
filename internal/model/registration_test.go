package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationCanTransition(t *testing.T) {
	type tc struct {
		from, to string
		want     bool
	}
	cases := []tc{
		{RegistrationPending, RegistrationApproved, true},
		{RegistrationPending, RegistrationRejected, true},
		{RegistrationPending, RegistrationCompleted, false},
		{RegistrationApproved, RegistrationCompleted, true},
		{RegistrationApproved, RegistrationRejected, false},
		{RegistrationRejected, RegistrationApproved, false},
		{RegistrationRejected, RegistrationCompleted, false},
		// COMPLETED is terminal.
		{RegistrationCompleted, RegistrationApproved, false},
		{RegistrationCompleted, RegistrationRejected, false},
		{RegistrationCompleted, RegistrationCompleted, false},
		// PENDING is never a target.
		{RegistrationApproved, RegistrationPending, false},
	}
	for _, c := range cases {
		r := Registration{Status: c.from}
		assert.Equal(t, c.want, r.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestRegistrationCancellable(t *testing.T) {
	for _, s := range []string{RegistrationPending, RegistrationApproved, RegistrationRejected} {
		r := Registration{Status: s}
		assert.True(t, r.Cancellable(), "status %s", s)
	}
	r := Registration{Status: RegistrationCompleted}
	assert.False(t, r.Cancellable())
}
