// Package queries contains the read-side handlers for the connections
// context.
package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
)

// PendingInboxHandler lists the open requests awaiting a user's answer.
type PendingInboxHandler struct {
	requests domain.RequestRepository
}

func NewPendingInboxHandler(requests domain.RequestRepository) *PendingInboxHandler {
	return &PendingInboxHandler{requests: requests}
}

func (h *PendingInboxHandler) Handle(ctx context.Context, receiverID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	return h.requests.ListPendingForReceiver(ctx, receiverID)
}

// SentRequestsHandler lists the requests a user has sent, in any state.
type SentRequestsHandler struct {
	requests domain.RequestRepository
}

func NewSentRequestsHandler(requests domain.RequestRepository) *SentRequestsHandler {
	return &SentRequestsHandler{requests: requests}
}

func (h *SentRequestsHandler) Handle(ctx context.Context, senderID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	return h.requests.ListSentBySender(ctx, senderID)
}

// GetRequestHandler fetches one request by id.
type GetRequestHandler struct {
	requests domain.RequestRepository
}

func NewGetRequestHandler(requests domain.RequestRepository) *GetRequestHandler {
	return &GetRequestHandler{requests: requests}
}

func (h *GetRequestHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	req, err := h.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

// ListConnectionsHandler lists a user's formed connections.
type ListConnectionsHandler struct {
	connections domain.ConnectionRepository
}

func NewListConnectionsHandler(connections domain.ConnectionRepository) *ListConnectionsHandler {
	return &ListConnectionsHandler{connections: connections}
}

func (h *ListConnectionsHandler) Handle(ctx context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	return h.connections.ListForUser(ctx, userID)
}
