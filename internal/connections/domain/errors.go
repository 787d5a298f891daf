package domain

import "errors"

var (
	// ErrSelfConnection is returned when a user tries to connect with themselves.
	ErrSelfConnection = errors.New("cannot send a connection request to yourself")

	// ErrDuplicateRequest is returned when a pending request for the same
	// sender/receiver pair already exists.
	ErrDuplicateRequest = errors.New("a pending request for this pair already exists")

	// ErrRequestNotFound is returned when a request id does not exist.
	ErrRequestNotFound = errors.New("connection request not found")

	// ErrAlreadyResolved is returned when responding to a request that is
	// no longer pending.
	ErrAlreadyResolved = errors.New("connection request already resolved")

	// ErrNotReceiver is returned when someone other than the receiver
	// tries to respond to a request.
	ErrNotReceiver = errors.New("only the receiver can respond to a request")
)
