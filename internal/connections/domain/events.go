package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
)

// RequestSent is emitted when a new pending request is opened.
type RequestSent struct {
	sharedDomain.BaseEvent
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
}

func NewRequestSent(requestID, senderID, receiverID uuid.UUID) *RequestSent {
	return &RequestSent{
		BaseEvent:  sharedDomain.NewBaseEvent(requestID, "connection_request", "connections.request.sent"),
		SenderID:   senderID,
		ReceiverID: receiverID,
	}
}

// RequestResolved is emitted when the receiver accepts or rejects.
type RequestResolved struct {
	sharedDomain.BaseEvent
	SenderID   uuid.UUID     `json:"senderId"`
	ReceiverID uuid.UUID     `json:"receiverId"`
	Resolution RequestStatus `json:"resolution"`
}

func NewRequestResolved(requestID, senderID, receiverID uuid.UUID, resolution RequestStatus) *RequestResolved {
	return &RequestResolved{
		BaseEvent:  sharedDomain.NewBaseEvent(requestID, "connection_request", "connections.request.resolved"),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Resolution: resolution,
	}
}

// ConnectionFormed is emitted when an accepted request links two users.
type ConnectionFormed struct {
	sharedDomain.BaseEvent
	UserA uuid.UUID `json:"userA"`
	UserB uuid.UUID `json:"userB"`
}

func NewConnectionFormed(conn *Connection) *ConnectionFormed {
	return &ConnectionFormed{
		BaseEvent: sharedDomain.NewBaseEvent(conn.ID, "connection", "connections.connection.formed"),
		UserA:     conn.UserA,
		UserB:     conn.UserB,
	}
}
