package model

import "time"

// Roles stored in users.role.  ADMIN is never assignable through the API;
// it is set by operator tooling directly in the database.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  JSON tags are omitted on purpose; handlers define their own
// response types so the password hash can never leak into a payload.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Firstname    – given name.
//  Lastname     – family name.
//  Username     – unique login name, also the JWT subject.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Firstname    string
	Lastname     string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
