package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/volunteerhub/backend/internal/model"
)

// SubscriptionRepo stores browser push subscriptions.  Endpoints are
// unique per browser; Create is a dedupe-on-endpoint insert and rows are
// deleted when the push service reports the endpoint gone.
type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Create saves a subscription unless the endpoint is already registered.
// It returns true when a new row was inserted.
func (r *SubscriptionRepo) Create(ctx context.Context, s model.PushSubscription) (bool, error) {
	if _, err := r.GetByEndpoint(ctx, s.Endpoint); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth) VALUES (?,?,?,?)",
		s.UserID, s.Endpoint, s.P256dh, s.Auth)
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByEndpoint fetches the subscription registered for an endpoint.
func (r *SubscriptionRepo) GetByEndpoint(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var s model.PushSubscription
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions WHERE endpoint=? LIMIT 1",
		endpoint).Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// ListByUser returns all subscriptions registered by a user's browsers.
func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.PushSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions WHERE user_id=?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]model.PushSubscription, 0)
	for rows.Next() {
		var s model.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeleteByEndpoint removes the subscription for a dead endpoint.
func (r *SubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE endpoint=?", endpoint)
	return err
}
