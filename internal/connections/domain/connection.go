package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Connection is the undirected link formed when a request is accepted.
// The pair is stored normalized (UserA < UserB by string order) so that
// one row represents the link regardless of who asked whom.
type Connection struct {
	ID        uuid.UUID
	UserA     uuid.UUID
	UserB     uuid.UUID
	CreatedAt time.Time
}

// NewConnection links two users at now.
func NewConnection(first, second uuid.UUID, now time.Time) *Connection {
	a, b := NormalizePair(first, second)
	return &Connection{
		ID:        uuid.New(),
		UserA:     a,
		UserB:     b,
		CreatedAt: now,
	}
}

// NormalizePair orders two user ids canonically.
func NormalizePair(first, second uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(first.String(), second.String()) > 0 {
		return second, first
	}
	return first, second
}

// Peer returns the other side of the connection for userID.
func (c *Connection) Peer(userID uuid.UUID) uuid.UUID {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}
