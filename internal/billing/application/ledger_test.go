package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

func TestLedgerRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	vp := VerifiedPayment{
		OrderRef:   "order_123",
		PaymentRef: "pay_456",
		Amount:     decimal.NewFromInt(89),
		Outcome:    domain.PaymentSuccess,
	}

	t.Run("inserts a new attempt", func(t *testing.T) {
		payments := new(mockPaymentRepo)
		payments.On("FindByExternalRefs", ctx, "order_123", "pay_456").Return(nil, nil).Once()
		payments.On("Insert", ctx, mock.AnythingOfType("*domain.PaymentRecord")).Return(nil).Once()

		metrics := observability.NewInMemoryMetrics()
		ledger := NewLedger(payments, testLogger(), metrics)

		rec, created, err := ledger.Record(ctx, vp, now)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "order_123", rec.ExternalOrderRef)
		assert.Equal(t, domain.PaymentSuccess, rec.Outcome)
		assert.Equal(t, now, rec.CreatedAt)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricPaymentsRecorded,
			observability.T("outcome", "success")))
		payments.AssertExpectations(t)
	})

	t.Run("redelivery returns the existing row", func(t *testing.T) {
		existing, err := domain.NewPaymentRecord(uuid.NullUUID{}, vp.Amount, domain.PaymentSuccess,
			"order_123", "pay_456", now.Add(-time.Hour))
		require.NoError(t, err)

		payments := new(mockPaymentRepo)
		payments.On("FindByExternalRefs", ctx, "order_123", "pay_456").Return(existing, nil).Once()

		metrics := observability.NewInMemoryMetrics()
		ledger := NewLedger(payments, testLogger(), metrics)

		rec, created, err := ledger.Record(ctx, vp, now)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, rec)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricPaymentsDuplicate))
		payments.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("losing the insert race falls back to the winner's row", func(t *testing.T) {
		existing, err := domain.NewPaymentRecord(uuid.NullUUID{}, vp.Amount, domain.PaymentSuccess,
			"order_123", "pay_456", now)
		require.NoError(t, err)

		payments := new(mockPaymentRepo)
		payments.On("FindByExternalRefs", ctx, "order_123", "pay_456").Return(nil, nil).Once()
		payments.On("Insert", ctx, mock.Anything).
			Return(domain.ErrDuplicateAttempt).Once()
		payments.On("FindByExternalRefs", ctx, "order_123", "pay_456").Return(existing, nil).Once()

		ledger := NewLedger(payments, testLogger(), observability.NoopMetrics{})

		rec, created, err := ledger.Record(ctx, vp, now)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, rec)
		payments.AssertExpectations(t)
	})

	t.Run("missing refs skip deduplication", func(t *testing.T) {
		payments := new(mockPaymentRepo)
		payments.On("Insert", ctx, mock.Anything).Return(nil).Once()

		ledger := NewLedger(payments, testLogger(), observability.NoopMetrics{})

		_, created, err := ledger.Record(ctx, VerifiedPayment{
			Amount:  decimal.NewFromInt(29),
			Outcome: domain.PaymentSuccess,
		}, now)
		require.NoError(t, err)
		assert.True(t, created)
		payments.AssertNotCalled(t, "FindByExternalRefs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insert failure surfaces", func(t *testing.T) {
		payments := new(mockPaymentRepo)
		payments.On("FindByExternalRefs", ctx, "order_123", "pay_456").Return(nil, nil).Once()
		payments.On("Insert", ctx, mock.Anything).Return(errors.New("connection reset")).Once()

		ledger := NewLedger(payments, testLogger(), observability.NoopMetrics{})

		_, _, err := ledger.Record(ctx, vp, now)
		assert.ErrorContains(t, err, "inserting payment record")
	})
}
