package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/volunteerhub/backend/internal/model"
)

// EventRepo provides CRUD operations for events.  Visibility rules for
// listing are encoded in buildEventListQuery so the security filter and
// the caller-supplied filters always land in one parameterized statement.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventCols = "id, owner_id, name, description, date_deadline, start_date, end_date, status, created_at, updated_at"

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.DateDeadline,
		&e.StartDate, &e.EndDate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// Create inserts a new event in DRAFT status and returns the stored row.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (owner_id, name, description, date_deadline, start_date, end_date, status)
		 VALUES (?,?,?,?,?,?,?)`,
		e.OwnerID, e.Name, e.Description, e.DateDeadline, e.StartDate, e.EndDate, model.EventDraft)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventCols+" FROM events WHERE id=? LIMIT 1", id))
}

// Update persists the mutable fields of an event.  The caller is expected
// to have loaded the row, applied the patch and validated it.
func (r *EventRepo) Update(ctx context.Context, e model.Event) (model.Event, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET name=?, description=?, date_deadline=?, start_date=?, end_date=? WHERE id=?`,
		e.Name, e.Description, e.DateDeadline, e.StartDate, e.EndDate, e.ID)
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, e.ID)
}

// UpdateStatus moves an event to a new workflow status.
func (r *EventRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Event, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE events SET status=? WHERE id=?", status, id); err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes an event and every dependent row in one transaction.
// Cascades are explicit: reactions and media of the event's posts first,
// then the posts, then registrations, then the event itself.
func (r *EventRepo) Delete(ctx context.Context, tx *sql.Tx, id uint64) error {
	steps := []string{
		`DELETE re FROM reactions re JOIN posts p ON p.id = re.post_id WHERE p.event_id = ?`,
		`DELETE pm FROM post_medias pm JOIN posts p ON p.id = pm.post_id WHERE p.event_id = ?`,
		`DELETE FROM posts WHERE event_id = ?`,
		`DELETE FROM registrations WHERE event_id = ?`,
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventFilter carries the optional listing criteria plus the identity of
// the viewer.  Zero values mean "no filter".  The viewer fields drive the
// visibility rule: admins see everything, everyone else sees APPROVED
// events or their own.
type EventFilter struct {
	Status      string
	OwnerID     uint64
	Search      string
	ViewerID    uint64
	ViewerAdmin bool
	Limit       int
	Offset      int
}

// buildEventListQuery emits the WHERE clause and arguments for a filtered
// event listing.  Caller filters are combined conjunctively; the
// visibility predicate is appended for non-admin viewers.
func buildEventListQuery(f EventFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.OwnerID != 0 {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Search != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if !f.ViewerAdmin {
		conds = append(conds, "(status = ? OR owner_id = ?)")
		args = append(args, model.EventApproved, f.ViewerID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns events matching the filter ordered by creation time
// descending, plus the total match count for pagination.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, int, error) {
	where, args := buildEventListQuery(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + eventCols + " FROM events" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.DateDeadline,
			&e.StartDate, &e.EndDate, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
