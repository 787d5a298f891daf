package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
)

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if sub := args.Get(0); sub != nil {
		return sub.(*domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, ownerID)
	if sub := args.Get(0); sub != nil {
		return sub.(*domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) Upsert(ctx context.Context, sub *domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Insert(ctx context.Context, rec *domain.PaymentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockPaymentRepo) FindByExternalRefs(ctx context.Context, orderRef, paymentRef string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, orderRef, paymentRef)
	if rec := args.Get(0); rec != nil {
		return rec.(*domain.PaymentRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.PaymentRecord, error) {
	args := m.Called(ctx, subscriptionID)
	if recs := args.Get(0); recs != nil {
		return recs.([]*domain.PaymentRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*outbox.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// passthroughUoW runs the function without a real transaction.
type passthroughUoW struct{}

func (passthroughUoW) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUoW) Commit(ctx context.Context) error                  { return nil }
func (passthroughUoW) Rollback(ctx context.Context) error                { return nil }
