package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/volunteerhub/backend/internal/model"
)

// PostRepo provides CRUD operations for wall posts and their media rows.
// Post creation and media attachment share a transaction so a post never
// commits while its media inserts fail.
type PostRepo struct{ db *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

// DB exposes the underlying handle for handler-scoped transactions.
func (r *PostRepo) DB() *sql.DB { return r.db }

const postCols = "id, event_id, author_id, content, created_at, updated_at"

func scanPost(row *sql.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.EventID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// CreateTx inserts a post within an existing transaction and populates
// the generated ID and timestamps on the returned value.
func (r *PostRepo) CreateTx(ctx context.Context, tx *sql.Tx, p model.Post) (model.Post, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO posts (event_id, author_id, content) VALUES (?,?,?)",
		p.EventID, p.AuthorID, p.Content)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return scanPost(tx.QueryRowContext(ctx,
		"SELECT "+postCols+" FROM posts WHERE id=?", uint64(id)))
}

// GetByID fetches a single post.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (model.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx,
		"SELECT "+postCols+" FROM posts WHERE id=? LIMIT 1", id))
}

// UpdateContentTx replaces a post's body text within an existing
// transaction, so edits commit together with any media attached in the
// same request.
func (r *PostRepo) UpdateContentTx(ctx context.Context, tx *sql.Tx, id uint64, content string) (model.Post, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE posts SET content=? WHERE id=?", content, id); err != nil {
		return model.Post{}, err
	}
	return scanPost(tx.QueryRowContext(ctx,
		"SELECT "+postCols+" FROM posts WHERE id=? LIMIT 1", id))
}

// Delete removes a post with its reactions and media rows in one
// transaction.  Files on disk are left behind; the uploads tree is pruned
// by operator tooling.
func (r *PostRepo) Delete(ctx context.Context, tx *sql.Tx, id uint64) error {
	for _, q := range []string{
		"DELETE FROM reactions WHERE post_id = ?",
		"DELETE FROM post_medias WHERE post_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEvent returns an event's posts newest first with the total count.
func (r *PostRepo) ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]model.Post, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE event_id=?", eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+postCols+" FROM posts WHERE event_id=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		eventID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.EventID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// CreateMediaTx records a permanent media attachment.  Rows are created
// only by the upload-staging move; the path is server-assigned.
func (r *PostRepo) CreateMediaTx(ctx context.Context, tx *sql.Tx, m model.PostMedia) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO post_medias (post_id, resource_id, path) VALUES (?,?,?)",
		m.PostID, m.ResourceID, m.Path)
	return err
}

// MediaPathsByPost returns the public paths of a post's attachments.
func (r *PostRepo) MediaPathsByPost(ctx context.Context, postID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT path FROM post_medias WHERE post_id=? ORDER BY id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// MediaPathsByPosts loads attachment paths for several posts in one
// query, keyed by post ID.
func (r *PostRepo) MediaPathsByPosts(ctx context.Context, postIDs []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string)
	if len(postIDs) == 0 {
		return out, nil
	}
	q := "SELECT post_id, path FROM post_medias WHERE post_id IN ("
	args := make([]interface{}, 0, len(postIDs))
	for i, id := range postIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ") ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid uint64
		var path string
		if err := rows.Scan(&pid, &path); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], path)
	}
	return out, rows.Err()
}
