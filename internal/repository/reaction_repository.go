package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/volunteerhub/backend/internal/model"
)

// ReactionRepo manages per-user reactions on posts.  One row per
// (post,user) is enforced by a unique constraint; a repeated reaction
// overwrites the stored type, so no history is kept.
type ReactionRepo struct{ db *sql.DB }

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{db: db} }

// Upsert stores the user's reaction to a post, replacing any previous
// one.  Last write wins.
func (r *ReactionRepo) Upsert(ctx context.Context, postID, userID uint64, reactionType string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reactions (post_id, user_id, reaction_type) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE reaction_type = VALUES(reaction_type)`,
		postID, userID, reactionType)
	return err
}

// Get returns the user's reaction type for a post, or NONE when the user
// has not reacted.
func (r *ReactionRepo) Get(ctx context.Context, postID, userID uint64) (string, error) {
	var t string
	err := r.db.QueryRowContext(ctx,
		"SELECT reaction_type FROM reactions WHERE post_id=? AND user_id=? LIMIT 1",
		postID, userID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReactionNone, nil
	}
	if err != nil {
		return "", err
	}
	return t, nil
}

// Delete removes the user's reaction if present.  Removing a missing
// reaction is a no-op.
func (r *ReactionRepo) Delete(ctx context.Context, postID, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM reactions WHERE post_id=? AND user_id=?", postID, userID)
	return err
}

// CountByPost returns reaction counts grouped by type for a post.
func (r *ReactionRepo) CountByPost(ctx context.Context, postID uint64) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT reaction_type, COUNT(*) FROM reactions WHERE post_id=? GROUP BY reaction_type", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
