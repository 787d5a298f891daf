package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	sharedApplication "github.com/venturebridge/venturebridge/internal/shared/application"
	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// RespondRequestCommand resolves a pending request.
type RespondRequestCommand struct {
	RequestID   uuid.UUID
	ResponderID uuid.UUID
	Accept      bool
}

// RespondRequestResult contains the resolution outcome.
type RespondRequestResult struct {
	Status       domain.RequestStatus
	ConnectionID *uuid.UUID
}

// RespondRequestHandler handles the RespondRequestCommand.
type RespondRequestHandler struct {
	requests    domain.RequestRepository
	connections domain.ConnectionRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	logger      *slog.Logger
	metrics     observability.Metrics
}

func NewRespondRequestHandler(
	requests domain.RequestRepository,
	connections domain.ConnectionRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *RespondRequestHandler {
	return &RespondRequestHandler{
		requests:    requests,
		connections: connections,
		outboxRepo:  outboxRepo,
		uow:         uow,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle resolves the request exactly once. The status update is a
// compare-and-set on the pending state, so two concurrent responses
// cannot both win; the loser gets domain.ErrAlreadyResolved. Accepting
// forms a connection unless the pair is already linked (the accepted
// reverse request case).
func (h *RespondRequestHandler) Handle(ctx context.Context, cmd RespondRequestCommand) (*RespondRequestResult, error) {
	var result *RespondRequestResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		req, err := h.requests.GetByID(txCtx, cmd.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrRequestNotFound
		}

		if cmd.Accept {
			err = req.Accept(cmd.ResponderID)
		} else {
			err = req.Reject(cmd.ResponderID)
		}
		if err != nil {
			return err
		}

		if err := h.requests.UpdateStatus(txCtx, req); err != nil {
			return err
		}

		events := req.DomainEvents()
		result = &RespondRequestResult{Status: req.Status()}

		if req.Status() == domain.RequestAccepted {
			linked, err := h.connections.Exists(txCtx, req.SenderID(), req.ReceiverID())
			if err != nil {
				return fmt.Errorf("checking existing connection: %w", err)
			}
			if !linked {
				conn := domain.NewConnection(req.SenderID(), req.ReceiverID(), time.Now().UTC())
				if err := h.connections.Insert(txCtx, conn); err != nil {
					return fmt.Errorf("inserting connection: %w", err)
				}
				events = append(events, sharedDomain.DomainEvent(domain.NewConnectionFormed(conn)))
				result.ConnectionID = &conn.ID
				h.metrics.Counter(observability.MetricConnectionsFormed, 1)
			}
		}

		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.ResponderID))
		msgs, err := outbox.MessagesFromEvents(events)
		if err != nil {
			return fmt.Errorf("building outbox messages: %w", err)
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "connection request resolved",
		"request_id", cmd.RequestID, "responder_id", cmd.ResponderID, "status", result.Status)
	return result, nil
}
