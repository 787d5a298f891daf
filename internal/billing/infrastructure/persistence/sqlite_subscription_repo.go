package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

type sqliteExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteDB(ctx context.Context, db *sql.DB) sqliteExecutor {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return db
}

// SQLiteSubscriptionRepository implements domain.SubscriptionRepository
// using SQLite. Timestamps are stored as RFC 3339 strings in UTC.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

func (r *SQLiteSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?`
	return r.getOne(ctx, query, id.String())
}

func (r *SQLiteSubscriptionRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE owner_id = ?`
	return r.getOne(ctx, query, ownerID.String())
}

func (r *SQLiteSubscriptionRepository) getOne(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	row := sqliteDB(ctx, r.db).QueryRowContext(ctx, query, arg)
	sub, err := scanSQLiteSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return sub, nil
}

func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, owner_id, tier, status, starts_at, ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tier = excluded.tier,
			status = excluded.status,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			updated_at = excluded.updated_at`

	var endsAt sql.NullString
	if end := sub.EndsAt(); end != nil {
		endsAt = sql.NullString{String: end.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err := sqliteDB(ctx, r.db).ExecContext(ctx, query,
		sub.ID().String(), sub.OwnerID().String(), string(sub.Tier()), string(sub.Status()),
		sub.StartsAt().UTC().Format(time.RFC3339Nano), endsAt,
		sub.CreatedAt().UTC().Format(time.RFC3339Nano), sub.UpdatedAt().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting subscription %s: %w", sub.ID(), err)
	}
	return nil
}

func scanSQLiteSubscription(row *sql.Row) (*domain.Subscription, error) {
	var (
		idStr, ownerStr        string
		tier, status           string
		startsStr              string
		endsStr                sql.NullString
		createdStr, updatedStr string
	)
	if err := row.Scan(&idStr, &ownerStr, &tier, &status, &startsStr, &endsStr, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing subscription id: %w", err)
	}
	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("parsing owner id: %w", err)
	}

	startsAt, err := parseSQLiteTime(startsStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseSQLiteTime(createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseSQLiteTime(updatedStr)
	if err != nil {
		return nil, err
	}

	var endsAt *time.Time
	if endsStr.Valid {
		end, err := parseSQLiteTime(endsStr.String)
		if err != nil {
			return nil, err
		}
		endsAt = &end
	}

	return domain.RehydrateSubscription(
		id, ownerID,
		domain.Tier(tier), domain.SubscriptionStatus(status),
		startsAt, endsAt, createdAt, updatedAt,
	), nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
