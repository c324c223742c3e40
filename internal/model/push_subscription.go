package model

import "time"

// PushSubscription stores one browser push endpoint for a user.  The
// endpoint is unique per browser; when the push service reports the
// endpoint gone the row is removed automatically.
type PushSubscription struct {
	ID        uint64
	UserID    uint64
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
