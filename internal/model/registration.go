package model

import "time"

// Registration status workflow.  A volunteer's join request starts as
// PENDING; the event owner approves or rejects it, and after the event
// marks approved work COMPLETED.  COMPLETED is terminal.
const (
	RegistrationPending   = "PENDING"
	RegistrationApproved  = "APPROVED"
	RegistrationRejected  = "REJECTED"
	RegistrationCompleted = "COMPLETED"
)

// Registration links a volunteer to an event.  At most one registration
// exists per (user,event); the UNIQUE(user_id,event_id) constraint in the
// database is the guarantee under concurrent joins.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the volunteer.
//  EventID   – the event joined.
//  Status    – PENDING, APPROVED, REJECTED or COMPLETED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Registration struct {
	ID        uint64
	UserID    uint64
	EventID   uint64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRegistrationStatus reports whether s is a known registration status.
func ValidRegistrationStatus(s string) bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected, RegistrationCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a registration may move from its current
// status to target.  APPROVED/REJECTED are reachable only from PENDING,
// COMPLETED only from APPROVED, and COMPLETED is terminal.
func (r *Registration) CanTransition(target string) bool {
	switch target {
	case RegistrationApproved, RegistrationRejected:
		return r.Status == RegistrationPending
	case RegistrationCompleted:
		return r.Status == RegistrationApproved
	}
	return false
}

// Cancellable reports whether the volunteer may still withdraw.
func (r *Registration) Cancellable() bool {
	return r.Status != RegistrationCompleted
}
