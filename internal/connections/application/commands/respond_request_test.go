package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

type respondFixture struct {
	requests    *mockRequestRepo
	connections *mockConnectionRepo
	outboxRepo  *mockOutboxRepo
	metrics     *observability.InMemoryMetrics
	handler     *RespondRequestHandler
}

func newRespondFixture() *respondFixture {
	f := &respondFixture{
		requests:    new(mockRequestRepo),
		connections: new(mockConnectionRepo),
		outboxRepo:  new(mockOutboxRepo),
		metrics:     observability.NewInMemoryMetrics(),
	}
	f.handler = NewRespondRequestHandler(f.requests, f.connections, f.outboxRepo,
		passthroughUoW{}, testLogger(), f.metrics)
	return f
}

func pendingRequest(t *testing.T, sender, receiver uuid.UUID) *domain.ConnectionRequest {
	t.Helper()
	req, err := domain.NewConnectionRequest(sender, receiver)
	require.NoError(t, err)
	req.ClearDomainEvents()
	return req
}

func TestRespondRequestHandler(t *testing.T) {
	ctx := context.Background()
	sender := uuid.New()
	receiver := uuid.New()

	t.Run("accepting forms a connection", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)

		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()
		f.requests.On("UpdateStatus", ctx, req).Return(nil).Once()
		f.connections.On("Exists", ctx, sender, receiver).Return(false, nil).Once()
		f.connections.On("Insert", ctx, mock.MatchedBy(func(conn *domain.Connection) bool {
			a, b := domain.NormalizePair(sender, receiver)
			return conn.UserA == a && conn.UserB == b
		})).Return(nil).Once()
		f.outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil).Once()

		result, err := f.handler.Handle(ctx, RespondRequestCommand{
			RequestID: req.ID(), ResponderID: receiver, Accept: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestAccepted, result.Status)
		require.NotNil(t, result.ConnectionID)
		assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricConnectionsFormed))
		f.connections.AssertExpectations(t)
	})

	t.Run("rejecting does not form a connection", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)

		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()
		f.requests.On("UpdateStatus", ctx, req).Return(nil).Once()
		f.outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil).Once()

		result, err := f.handler.Handle(ctx, RespondRequestCommand{
			RequestID: req.ID(), ResponderID: receiver, Accept: false,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestRejected, result.Status)
		assert.Nil(t, result.ConnectionID)
		f.connections.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("accepting an already linked pair skips the second connection", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)

		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()
		f.requests.On("UpdateStatus", ctx, req).Return(nil).Once()
		f.connections.On("Exists", ctx, sender, receiver).Return(true, nil).Once()
		f.outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil).Once()

		result, err := f.handler.Handle(ctx, RespondRequestCommand{
			RequestID: req.ID(), ResponderID: receiver, Accept: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestAccepted, result.Status)
		assert.Nil(t, result.ConnectionID)
		f.connections.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("unknown request id", func(t *testing.T) {
		f := newRespondFixture()
		id := uuid.New()
		f.requests.On("GetByID", ctx, id).Return(nil, nil).Once()

		_, err := f.handler.Handle(ctx, RespondRequestCommand{RequestID: id, ResponderID: receiver, Accept: true})
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})

	t.Run("only the receiver may respond", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)
		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()

		_, err := f.handler.Handle(ctx, RespondRequestCommand{RequestID: req.ID(), ResponderID: sender, Accept: true})
		assert.ErrorIs(t, err, domain.ErrNotReceiver)
		f.requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("already resolved request", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)
		require.NoError(t, req.Reject(receiver))
		req.ClearDomainEvents()

		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()

		_, err := f.handler.Handle(ctx, RespondRequestCommand{RequestID: req.ID(), ResponderID: receiver, Accept: true})
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	})

	t.Run("losing the status race surfaces as already resolved", func(t *testing.T) {
		f := newRespondFixture()
		req := pendingRequest(t, sender, receiver)

		f.requests.On("GetByID", ctx, req.ID()).Return(req, nil).Once()
		f.requests.On("UpdateStatus", ctx, req).Return(domain.ErrAlreadyResolved).Once()

		_, err := f.handler.Handle(ctx, RespondRequestCommand{RequestID: req.ID(), ResponderID: receiver, Accept: true})
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
		f.connections.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}
