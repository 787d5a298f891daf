// Package domain models connection requests between sponsors and
// proposers and the connections that accepted requests produce.
package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
)

// RequestStatus is the state of a connection request. Pending requests
// resolve exactly once, to accepted or rejected, and never move again.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ConnectionRequest is a directed invitation from sender to receiver.
// The reverse direction is a distinct request: B asking A is not the
// same invitation as A asking B.
type ConnectionRequest struct {
	sharedDomain.BaseAggregateRoot
	senderID   uuid.UUID
	receiverID uuid.UUID
	status     RequestStatus
}

// NewConnectionRequest opens a pending request from sender to receiver.
func NewConnectionRequest(senderID, receiverID uuid.UUID) (*ConnectionRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfConnection
	}
	r := &ConnectionRequest{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		senderID:          senderID,
		receiverID:        receiverID,
		status:            RequestPending,
	}
	r.AddDomainEvent(NewRequestSent(r.ID(), senderID, receiverID))
	return r, nil
}

// RehydrateConnectionRequest rebuilds a request from persistence.
func RehydrateConnectionRequest(
	id uuid.UUID,
	senderID, receiverID uuid.UUID,
	status RequestStatus,
	createdAt, updatedAt time.Time,
) *ConnectionRequest {
	return &ConnectionRequest{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)),
		senderID:          senderID,
		receiverID:        receiverID,
		status:            status,
	}
}

// Accept resolves the request positively. responderID must be the
// receiver, and only a pending request can be accepted.
func (r *ConnectionRequest) Accept(responderID uuid.UUID) error {
	return r.resolve(responderID, RequestAccepted)
}

// Reject resolves the request negatively.
func (r *ConnectionRequest) Reject(responderID uuid.UUID) error {
	return r.resolve(responderID, RequestRejected)
}

func (r *ConnectionRequest) resolve(responderID uuid.UUID, to RequestStatus) error {
	if responderID != r.receiverID {
		return ErrNotReceiver
	}
	if r.status != RequestPending {
		return ErrAlreadyResolved
	}
	r.status = to
	r.Touch()
	r.AddDomainEvent(NewRequestResolved(r.ID(), r.senderID, r.receiverID, to))
	return nil
}

func (r *ConnectionRequest) SenderID() uuid.UUID    { return r.senderID }
func (r *ConnectionRequest) ReceiverID() uuid.UUID  { return r.receiverID }
func (r *ConnectionRequest) Status() RequestStatus  { return r.status }
func (r *ConnectionRequest) IsPending() bool        { return r.status == RequestPending }
