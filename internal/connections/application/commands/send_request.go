// Package commands contains the write-side handlers for the connections
// context.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	sharedApplication "github.com/venturebridge/venturebridge/internal/shared/application"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// SendRequestCommand opens a connection request toward another user.
type SendRequestCommand struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
}

// SendRequestResult contains the result of sending a request.
type SendRequestResult struct {
	RequestID uuid.UUID
	Status    domain.RequestStatus
}

// SendRequestHandler handles the SendRequestCommand.
type SendRequestHandler struct {
	requests   domain.RequestRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
	metrics    observability.Metrics
}

func NewSendRequestHandler(
	requests domain.RequestRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *SendRequestHandler {
	return &SendRequestHandler{
		requests:   requests,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handle opens a pending request. At most one pending request may exist
// per directed (sender, receiver) pair; the repository enforces this and
// a duplicate send surfaces as domain.ErrDuplicateRequest. The reverse
// direction is a separate pair and is not blocked.
func (h *SendRequestHandler) Handle(ctx context.Context, cmd SendRequestCommand) (*SendRequestResult, error) {
	req, err := domain.NewConnectionRequest(cmd.SenderID, cmd.ReceiverID)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.requests.Insert(txCtx, req); err != nil {
			return err
		}

		events := req.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.SenderID))
		msgs, err := outbox.MessagesFromEvents(events)
		if err != nil {
			return fmt.Errorf("building outbox messages: %w", err)
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) {
			h.metrics.Counter(observability.MetricRequestsDuplicate, 1)
		}
		return nil, err
	}

	req.ClearDomainEvents()
	h.metrics.Counter(observability.MetricRequestsSent, 1)
	h.logger.InfoContext(ctx, "connection request sent",
		"request_id", req.ID(), "sender_id", cmd.SenderID, "receiver_id", cmd.ReceiverID)

	return &SendRequestResult{RequestID: req.ID(), Status: req.Status()}, nil
}
