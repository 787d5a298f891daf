package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
)

const sqlitePaymentColumns = `id, subscription_id, amount, outcome,
	COALESCE(external_order_ref, ''), COALESCE(external_payment_ref, ''), created_at`

// SQLitePaymentRepository implements domain.PaymentRepository using
// SQLite. Amounts are stored as decimal strings.
type SQLitePaymentRepository struct {
	db *sql.DB
}

func NewSQLitePaymentRepository(db *sql.DB) *SQLitePaymentRepository {
	return &SQLitePaymentRepository{db: db}
}

func (r *SQLitePaymentRepository) Insert(ctx context.Context, rec *domain.PaymentRecord) error {
	query := `
		INSERT INTO payment_records
			(id, subscription_id, amount, outcome, external_order_ref, external_payment_ref, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)
		ON CONFLICT (external_order_ref, external_payment_ref)
			WHERE external_order_ref IS NOT NULL AND external_payment_ref IS NOT NULL
			DO NOTHING`

	var subID sql.NullString
	if rec.SubscriptionID.Valid {
		subID = sql.NullString{String: rec.SubscriptionID.UUID.String(), Valid: true}
	}

	res, err := sqliteDB(ctx, r.db).ExecContext(ctx, query,
		rec.ID.String(), subID, rec.Amount.String(), string(rec.Outcome),
		rec.ExternalOrderRef, rec.ExternalPaymentRef,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting payment record %s: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDuplicateAttempt
	}
	return nil
}

func (r *SQLitePaymentRepository) FindByExternalRefs(ctx context.Context, orderRef, paymentRef string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + sqlitePaymentColumns + `
		FROM payment_records
		WHERE external_order_ref = ? AND external_payment_ref = ?`

	row := sqliteDB(ctx, r.db).QueryRowContext(ctx, query, orderRef, paymentRef)
	rec, err := scanSQLitePayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment record: %w", err)
	}
	return rec, nil
}

func (r *SQLitePaymentRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.PaymentRecord, error) {
	query := `SELECT ` + sqlitePaymentColumns + `
		FROM payment_records
		WHERE subscription_id = ?
		ORDER BY created_at DESC`

	rows, err := sqliteDB(ctx, r.db).QueryContext(ctx, query, subscriptionID.String())
	if err != nil {
		return nil, fmt.Errorf("listing payment records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.PaymentRecord
	for rows.Next() {
		rec, err := scanSQLitePayment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning payment record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanSQLitePayment(scan func(dest ...any) error) (*domain.PaymentRecord, error) {
	var (
		idStr                string
		subID                sql.NullString
		amount               string
		outcome              string
		orderRef, paymentRef string
		createdStr           string
	)
	if err := scan(&idStr, &subID, &amount, &outcome, &orderRef, &paymentRef, &createdStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing payment id: %w", err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	createdAt, err := parseSQLiteTime(createdStr)
	if err != nil {
		return nil, err
	}

	rec := &domain.PaymentRecord{
		ID:                 id,
		Amount:             amt,
		Outcome:            domain.PaymentOutcome(outcome),
		ExternalOrderRef:   orderRef,
		ExternalPaymentRef: paymentRef,
		CreatedAt:          createdAt,
	}
	if subID.Valid {
		parsed, err := uuid.Parse(subID.String)
		if err != nil {
			return nil, fmt.Errorf("parsing subscription id: %w", err)
		}
		rec.SubscriptionID = uuid.NullUUID{UUID: parsed, Valid: true}
	}
	return rec, nil
}
