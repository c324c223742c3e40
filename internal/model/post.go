package model

import "time"

// Reaction types stored in reactions.reaction_type.  NONE is never
// persisted; a NONE reaction request deletes the caller's row instead.
const (
	ReactionNone = "NONE"
	ReactionLike = "LIKE"
	ReactionLove = "LOVE"
	ReactionCare = "CARE"
)

// Post is a content update on an event's wall, written by a participant.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the post is attached to.
//  AuthorID  – user who wrote the post.
//  Content   – required non-blank body text.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Post struct {
	ID        uint64
	EventID   uint64
	AuthorID  uint64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostMedia is a permanent media attachment on a post.  Rows are created
// only by the upload-staging move; the path is server-assigned.
type PostMedia struct {
	ID         uint64
	PostID     uint64
	ResourceID string // UUID extracted from the staged filename
	Path       string // public path under /uploads
	CreatedAt  time.Time
}

// ValidReaction reports whether s is a persistable reaction type.
// NONE is valid as a request value but not as a stored one.
func ValidReaction(s string) bool {
	switch s {
	case ReactionLike, ReactionLove, ReactionCare:
		return true
	}
	return false
}
