package domain

import (
	"context"

	"github.com/google/uuid"
)

// RequestRepository persists connection requests.
//
// Insert must fail with ErrDuplicateRequest when a pending request for
// the same (sender, receiver) pair already exists. UpdateStatus must
// only move a row out of pending; it returns ErrAlreadyResolved when a
// concurrent responder got there first.
type RequestRepository interface {
	Insert(ctx context.Context, req *ConnectionRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)
	UpdateStatus(ctx context.Context, req *ConnectionRequest) error
	ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]*ConnectionRequest, error)
	ListSentBySender(ctx context.Context, senderID uuid.UUID) ([]*ConnectionRequest, error)
}

// ConnectionRepository persists formed connections.
type ConnectionRepository interface {
	Insert(ctx context.Context, conn *Connection) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Connection, error)
	Exists(ctx context.Context, first, second uuid.UUID) (bool, error)
}
