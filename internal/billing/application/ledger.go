package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// Ledger appends verified payments to the settlement ledger exactly once
// per provider attempt. Attempts are identified by the
// (orderRef, paymentRef) pair; redeliveries of a pair already on the
// ledger return the existing row instead of inserting a second one.
type Ledger struct {
	payments domain.PaymentRepository
	logger   *slog.Logger
	metrics  observability.Metrics
}

func NewLedger(payments domain.PaymentRepository, logger *slog.Logger, metrics observability.Metrics) *Ledger {
	return &Ledger{payments: payments, logger: logger, metrics: metrics}
}

// Record writes one ledger row for vp. The second return value reports
// whether a new row was created; false means the attempt was already
// settled and the existing row is returned unchanged.
func (l *Ledger) Record(ctx context.Context, vp VerifiedPayment, now time.Time) (*domain.PaymentRecord, bool, error) {
	dedupe := vp.OrderRef != "" && vp.PaymentRef != ""

	if dedupe {
		existing, err := l.payments.FindByExternalRefs(ctx, vp.OrderRef, vp.PaymentRef)
		if err != nil {
			return nil, false, fmt.Errorf("checking ledger for attempt: %w", err)
		}
		if existing != nil {
			l.logger.InfoContext(ctx, "payment attempt already settled",
				"order_ref", vp.OrderRef,
				"payment_ref", vp.PaymentRef,
				"record_id", existing.ID)
			l.metrics.Counter(observability.MetricPaymentsDuplicate, 1)
			return existing, false, nil
		}
	}

	rec, err := domain.NewPaymentRecord(vp.SubscriptionID, vp.Amount, vp.Outcome, vp.OrderRef, vp.PaymentRef, now)
	if err != nil {
		return nil, false, err
	}

	if err := l.payments.Insert(ctx, rec); err != nil {
		// A concurrent delivery of the same attempt can win the insert
		// race. The store reports the lost race as ErrDuplicateAttempt
		// without raising a constraint error, so the refetch still runs
		// inside a healthy transaction.
		if dedupe && errors.Is(err, domain.ErrDuplicateAttempt) {
			existing, ferr := l.payments.FindByExternalRefs(ctx, vp.OrderRef, vp.PaymentRef)
			if ferr != nil {
				return nil, false, fmt.Errorf("refetching settled attempt: %w", ferr)
			}
			if existing != nil {
				l.metrics.Counter(observability.MetricPaymentsDuplicate, 1)
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("inserting payment record: %w", err)
	}

	l.metrics.Counter(observability.MetricPaymentsRecorded, 1,
		observability.T("outcome", string(vp.Outcome)))
	return rec, true, nil
}
