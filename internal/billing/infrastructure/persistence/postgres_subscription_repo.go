// Package persistence provides postgres and sqlite repositories for the
// billing context.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	shared "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

const subscriptionColumns = `id, owner_id, tier, status, starts_at, ends_at, created_at, updated_at`

// PostgresSubscriptionRepository stores subscriptions in postgres. All
// queries run through the transaction bound to ctx when one is present.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresSubscriptionRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE owner_id = $1`
	return r.getOne(ctx, query, ownerID)
}

func (r *PostgresSubscriptionRepository) getOne(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	row := shared.Executor(ctx, r.pool).QueryRow(ctx, query, arg)
	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return sub, nil
}

func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, owner_id, tier, status, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			updated_at = EXCLUDED.updated_at`

	_, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		sub.ID(), sub.OwnerID(), string(sub.Tier()), string(sub.Status()),
		sub.StartsAt(), sub.EndsAt(), sub.CreatedAt(), sub.UpdatedAt())
	if err != nil {
		return fmt.Errorf("upserting subscription %s: %w", sub.ID(), err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		id, ownerID          uuid.UUID
		tier, status         string
		startsAt             time.Time
		endsAt               *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &ownerID, &tier, &status, &startsAt, &endsAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateSubscription(
		id, ownerID,
		domain.Tier(tier), domain.SubscriptionStatus(status),
		startsAt, endsAt, createdAt, updatedAt,
	), nil
}
