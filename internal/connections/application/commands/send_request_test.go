package commands

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSendRequestHandler(t *testing.T) {
	ctx := context.Background()
	sender := uuid.New()
	receiver := uuid.New()

	t.Run("opens a pending request and stages its event", func(t *testing.T) {
		requests := new(mockRequestRepo)
		outboxRepo := new(mockOutboxRepo)
		metrics := observability.NewInMemoryMetrics()

		requests.On("Insert", ctx, mock.MatchedBy(func(req *domain.ConnectionRequest) bool {
			return req.SenderID() == sender && req.ReceiverID() == receiver && req.IsPending()
		})).Return(nil).Once()
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil).Once()

		handler := NewSendRequestHandler(requests, outboxRepo, passthroughUoW{}, testLogger(), metrics)
		result, err := handler.Handle(ctx, SendRequestCommand{SenderID: sender, ReceiverID: receiver})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, result.Status)
		assert.NotEqual(t, uuid.Nil, result.RequestID)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRequestsSent))
		requests.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("self connection is rejected before any write", func(t *testing.T) {
		requests := new(mockRequestRepo)
		handler := NewSendRequestHandler(requests, new(mockOutboxRepo), passthroughUoW{},
			testLogger(), observability.NoopMetrics{})

		_, err := handler.Handle(ctx, SendRequestCommand{SenderID: sender, ReceiverID: sender})
		assert.ErrorIs(t, err, domain.ErrSelfConnection)
		requests.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("duplicate pending pair surfaces as duplicate", func(t *testing.T) {
		requests := new(mockRequestRepo)
		metrics := observability.NewInMemoryMetrics()
		requests.On("Insert", ctx, mock.Anything).Return(domain.ErrDuplicateRequest).Once()

		handler := NewSendRequestHandler(requests, new(mockOutboxRepo), passthroughUoW{},
			testLogger(), metrics)

		_, err := handler.Handle(ctx, SendRequestCommand{SenderID: sender, ReceiverID: receiver})
		assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRequestsDuplicate))
	})
}
