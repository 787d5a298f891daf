package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	shared "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

const paymentColumns = `id, subscription_id, amount::text, outcome,
	COALESCE(external_order_ref, ''), COALESCE(external_payment_ref, ''), created_at`

// PostgresPaymentRepository is the append-only ledger store. The partial
// unique index on (external_order_ref, external_payment_ref) backs the
// idempotency guarantee. Inserts use ON CONFLICT DO NOTHING so losing a
// delivery race reports domain.ErrDuplicateAttempt instead of raising a
// constraint error, which would abort an enclosing transaction.
type PostgresPaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepository(pool *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{pool: pool}
}

func (r *PostgresPaymentRepository) Insert(ctx context.Context, rec *domain.PaymentRecord) error {
	query := `
		INSERT INTO payment_records
			(id, subscription_id, amount, outcome, external_order_ref, external_payment_ref, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (external_order_ref, external_payment_ref)
			WHERE external_order_ref IS NOT NULL AND external_payment_ref IS NOT NULL
			DO NOTHING`

	var subID *uuid.UUID
	if rec.SubscriptionID.Valid {
		subID = &rec.SubscriptionID.UUID
	}

	tag, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		rec.ID, subID, rec.Amount.String(), string(rec.Outcome),
		rec.ExternalOrderRef, rec.ExternalPaymentRef, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting payment record %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateAttempt
	}
	return nil
}

func (r *PostgresPaymentRepository) FindByExternalRefs(ctx context.Context, orderRef, paymentRef string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE external_order_ref = $1 AND external_payment_ref = $2`

	row := shared.Executor(ctx, r.pool).QueryRow(ctx, query, orderRef, paymentRef)
	rec, err := scanPaymentRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment record: %w", err)
	}
	return rec, nil
}

func (r *PostgresPaymentRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE subscription_id = $1
		ORDER BY created_at DESC`

	rows, err := shared.Executor(ctx, r.pool).Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("listing payment records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.PaymentRecord
	for rows.Next() {
		rec, err := scanPaymentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanPaymentRecord(row pgx.Row) (*domain.PaymentRecord, error) {
	var (
		id                   uuid.UUID
		subID                *uuid.UUID
		amount               string
		outcome              string
		orderRef, paymentRef string
		createdAt            time.Time
	)
	if err := row.Scan(&id, &subID, &amount, &outcome, &orderRef, &paymentRef, &createdAt); err != nil {
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	rec := &domain.PaymentRecord{
		ID:                 id,
		Amount:             amt,
		Outcome:            domain.PaymentOutcome(outcome),
		ExternalOrderRef:   orderRef,
		ExternalPaymentRef: paymentRef,
		CreatedAt:          createdAt,
	}
	if subID != nil {
		rec.SubscriptionID = uuid.NullUUID{UUID: *subID, Valid: true}
	}
	return rec, nil
}
