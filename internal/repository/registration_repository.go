package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/volunteerhub/backend/internal/model"
)

// RegistrationRepo provides CRUD operations for registrations.  The
// UNIQUE(user_id,event_id) constraint is the at-most-one guarantee under
// concurrent joins; Create treats a duplicate-key collision as "already
// joined" and re-reads the winning row.
type RegistrationRepo struct{ db *sql.DB }

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

const registrationCols = "id, user_id, event_id, status, created_at, updated_at"

func scanRegistration(row *sql.Row) (model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, ErrNotFound
	}
	return reg, err
}

// GetByID fetches a single registration.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (model.Registration, error) {
	return scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationCols+" FROM registrations WHERE id=? LIMIT 1", id))
}

// GetByUserAndEvent fetches the registration linking a volunteer to an
// event, or ErrNotFound.
func (r *RegistrationRepo) GetByUserAndEvent(ctx context.Context, userID, eventID uint64) (model.Registration, error) {
	return scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationCols+" FROM registrations WHERE user_id=? AND event_id=? LIMIT 1",
		userID, eventID))
}

// Create inserts a PENDING registration.  A duplicate-key race (another
// request joined between our existence check and the insert) is resolved
// by returning the existing row, so concurrent joins are idempotent.
func (r *RegistrationRepo) Create(ctx context.Context, userID, eventID uint64) (model.Registration, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO registrations (user_id, event_id, status) VALUES (?,?,?)",
		userID, eventID, model.RegistrationPending)
	if err != nil {
		if isDuplicateKey(err) {
			return r.GetByUserAndEvent(ctx, userID, eventID)
		}
		return model.Registration{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Registration{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// UpdateStatus moves a registration to a new workflow status.
func (r *RegistrationRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Registration, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE registrations SET status=? WHERE id=?", status, id); err != nil {
		return model.Registration{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a registration row.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM registrations WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RegistrationDetail is a registration joined with the names callers need
// for display, used by listing and single-row reads.
type RegistrationDetail struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"userId"`
	EventID   uint64 `json:"eventId"`
	Status    string `json:"status"`
	Username  string `json:"username"`
	EventName string `json:"eventName"`
	// EventOwnerID is carried so handlers can run ownership checks
	// without a second query.
	EventOwnerID uint64 `json:"-"`
}

// GetDetail loads a registration together with its event owner, event
// name and volunteer username.
func (r *RegistrationRepo) GetDetail(ctx context.Context, id uint64) (RegistrationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.event_id, r.status, u.username, e.name, e.owner_id
	           FROM registrations r
	           JOIN users u ON u.id = r.user_id
	           JOIN events e ON e.id = r.event_id
	           WHERE r.id = ?`
	var d RegistrationDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.EventID, &d.Status, &d.Username, &d.EventName, &d.EventOwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, err
}

// RegistrationFilter carries optional listing criteria plus the viewer
// identity.  Non-admin viewers only see rows where they are the volunteer
// or they own the referenced event.
type RegistrationFilter struct {
	Status      string
	EventID     uint64
	UserID      uint64
	ViewerID    uint64
	ViewerAdmin bool
	Limit       int
	Offset      int
}

// buildRegistrationListQuery emits the WHERE clause and arguments for a
// filtered registration listing over the joined r/u/e tables.
func buildRegistrationListQuery(f RegistrationFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	if f.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.EventID != 0 {
		conds = append(conds, "r.event_id = ?")
		args = append(args, f.EventID)
	}
	if f.UserID != 0 {
		conds = append(conds, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	if !f.ViewerAdmin {
		conds = append(conds, "(r.user_id = ? OR e.owner_id = ?)")
		args = append(args, f.ViewerID, f.ViewerID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns registrations matching the filter, newest first, plus the
// total match count.
func (r *RegistrationRepo) List(ctx context.Context, f RegistrationFilter) ([]RegistrationDetail, int, error) {
	const base = ` FROM registrations r
	           JOIN users u ON u.id = r.user_id
	           JOIN events e ON e.id = r.event_id`
	where, args := buildRegistrationListQuery(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+base+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT r.id, r.user_id, r.event_id, r.status, u.username, e.name, e.owner_id" +
		base + where + " ORDER BY r.created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]RegistrationDetail, 0)
	for rows.Next() {
		var d RegistrationDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.EventID, &d.Status, &d.Username, &d.EventName, &d.EventOwnerID); err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}
