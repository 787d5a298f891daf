package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
)

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Insert(ctx context.Context, req *domain.ConnectionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	args := m.Called(ctx, id)
	if req := args.Get(0); req != nil {
		return req.(*domain.ConnectionRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestRepo) UpdateStatus(ctx context.Context, req *domain.ConnectionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockRequestRepo) ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	args := m.Called(ctx, receiverID)
	if reqs := args.Get(0); reqs != nil {
		return reqs.([]*domain.ConnectionRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestRepo) ListSentBySender(ctx context.Context, senderID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	args := m.Called(ctx, senderID)
	if reqs := args.Get(0); reqs != nil {
		return reqs.([]*domain.ConnectionRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockConnectionRepo struct {
	mock.Mock
}

func (m *mockConnectionRepo) Insert(ctx context.Context, conn *domain.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *mockConnectionRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	args := m.Called(ctx, userID)
	if conns := args.Get(0); conns != nil {
		return conns.([]*domain.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConnectionRepo) Exists(ctx context.Context, first, second uuid.UUID) (bool, error) {
	args := m.Called(ctx, first, second)
	return args.Bool(0), args.Error(1)
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

type passthroughUoW struct{}

func (passthroughUoW) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUoW) Commit(ctx context.Context) error                  { return nil }
func (passthroughUoW) Rollback(ctx context.Context) error                { return nil }
