package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventCanSubmit(t *testing.T) {
	cases := map[string]bool{
		EventDraft:    true,
		EventRejected: true,
		EventPending:  false,
		EventApproved: false,
	}
	for status, want := range cases {
		e := Event{Status: status}
		assert.Equal(t, want, e.CanSubmit(), "status %s", status)
	}
}

func TestEventCanModerate(t *testing.T) {
	for _, status := range []string{EventDraft, EventApproved, EventRejected} {
		e := Event{Status: status}
		assert.False(t, e.CanModerate(), "status %s", status)
	}
	e := Event{Status: EventPending}
	assert.True(t, e.CanModerate())
}

func TestEventDeadlinePassed(t *testing.T) {
	now := time.Now()
	e := Event{DateDeadline: now.Add(time.Hour)}
	assert.False(t, e.DeadlinePassed(now))

	e.DateDeadline = now.Add(-time.Minute)
	assert.True(t, e.DeadlinePassed(now))

	// The deadline instant itself still counts as open.
	e.DateDeadline = now
	assert.False(t, e.DeadlinePassed(now))
}

func TestValidEventStatus(t *testing.T) {
	for _, s := range []string{EventDraft, EventPending, EventApproved, EventRejected} {
		assert.True(t, ValidEventStatus(s))
	}
	assert.False(t, ValidEventStatus("ARCHIVED"))
	assert.False(t, ValidEventStatus("draft"))
	assert.False(t, ValidEventStatus(""))
}
