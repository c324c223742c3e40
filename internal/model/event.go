package model

import "time"

// Event status workflow.  Events start as DRAFT, are submitted by their
// owner to PENDING, and are moved to APPROVED or REJECTED by an admin.
// A REJECTED event may be resubmitted.
const (
	EventDraft    = "DRAFT"
	EventPending  = "PENDING"
	EventApproved = "APPROVED"
	EventRejected = "REJECTED"
)

// Event represents a volunteering opportunity as stored in the `events`
// table.  Only APPROVED events are publicly visible; non-approved events
// can be read only by their owner or an admin.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user who created and manages the event.
//  Name         – event title.
//  Description  – optional free-form text.
//  DateDeadline – registration cut-off; joins after this instant fail.
//  StartDate    – when the event begins.
//  EndDate      – when the event ends.
//  Status       – DRAFT, PENDING, APPROVED or REJECTED.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Event struct {
	ID           uint64
	OwnerID      uint64
	Name         string
	Description  string
	DateDeadline time.Time
	StartDate    time.Time
	EndDate      time.Time
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidEventStatus reports whether s is one of the four event statuses.
func ValidEventStatus(s string) bool {
	switch s {
	case EventDraft, EventPending, EventApproved, EventRejected:
		return true
	}
	return false
}

// CanSubmit reports whether the event may be submitted for review.
// Only DRAFT and REJECTED events can move to PENDING.
func (e *Event) CanSubmit() bool {
	return e.Status == EventDraft || e.Status == EventRejected
}

// CanModerate reports whether an admin may approve or reject the event.
// Moderation is only valid from PENDING.
func (e *Event) CanModerate() bool { return e.Status == EventPending }

// DeadlinePassed reports whether the registration deadline is behind now.
func (e *Event) DeadlinePassed(now time.Time) bool {
	return now.After(e.DateDeadline)
}
