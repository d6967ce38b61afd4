package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/calder-labs/pushgate/internal/domain/subscription"
)

var _ subscription.Repo = (*SubscriptionRepo)(nil)

// SubscriptionRepo is the durable subscription registry. Upserts are
// last-write-wins on (owner_id, endpoint); deletes are idempotent. Every
// read excludes passively expired rows.
type SubscriptionRepo struct{ db *DB }

func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const (
	qSubUpsert = `
INSERT INTO subscriptions (id, owner_id, device_id, endpoint, p256dh, auth, created_at, updated_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7)
ON CONFLICT (id) DO UPDATE
SET device_id  = EXCLUDED.device_id,
    p256dh     = EXCLUDED.p256dh,
    auth       = EXCLUDED.auth,
    updated_at = NOW(),
    expires_at = EXCLUDED.expires_at
RETURNING created_at, updated_at;`

	qSubDelete = `DELETE FROM subscriptions WHERE id = $1;`

	qSubByOwner = `
SELECT id, owner_id, device_id, endpoint, p256dh, auth, created_at, updated_at, expires_at
FROM subscriptions
WHERE owner_id = $1 AND expires_at > NOW()
ORDER BY id;`

	qSubPage = `
SELECT id, owner_id, device_id, endpoint, p256dh, auth, created_at, updated_at, expires_at
FROM subscriptions
WHERE id > $1 AND expires_at > NOW()
ORDER BY id
LIMIT $2;`
)

func (r *SubscriptionRepo) Upsert(ctx context.Context, s *subscription.Subscription) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if s.ID == "" {
		s.ID = subscription.DeriveID(s.OwnerID, s.Endpoint)
	}
	if s.DeviceID == "" {
		s.DeviceID = subscription.DefaultDeviceID
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = time.Now().UTC().Add(subscription.TTL)
	}

	if err := r.db.Pool.QueryRow(ctx, qSubUpsert,
		s.ID, s.OwnerID, s.DeviceID, s.Endpoint, s.Keys.P256dh, s.Keys.Auth, s.ExpiresAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, ownerID, endpoint string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	// RowsAffected is not inspected: deleting an absent record is fine.
	if _, err := r.db.Pool.Exec(ctx, qSubDelete, subscription.DeriveID(ownerID, endpoint)); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) ListByOwner(ctx context.Context, ownerID string) ([]*subscription.Subscription, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSubByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// ListAll pages in primary-key order. The cursor is the last id of the
// previous page, so a scan is restartable and never needs an offset.
func (r *SubscriptionRepo) ListAll(ctx context.Context, cursor string, limit int) ([]*subscription.Subscription, string, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSubPage, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("query subscription page: %w", err)
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func collect(rows pgx.Rows) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for rows.Next() {
		var s subscription.Subscription
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.DeviceID, &s.Endpoint,
			&s.Keys.P256dh, &s.Keys.Auth,
			&s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sc := s
		out = append(out, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
