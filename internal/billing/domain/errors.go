package domain

import "errors"

var (
	// ErrUnknownTier is returned when a tier string is not part of the catalog.
	ErrUnknownTier = errors.New("unknown tier")

	// ErrSubscriptionNotFound is returned when a referenced subscription does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidSignature is returned when a payment callback or webhook
	// signature does not match the shared secret.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrDuplicateAttempt is returned by the payment store when a record
	// for the same (orderRef, paymentRef) pair already exists. The store
	// reports it without raising a constraint error so a surrounding
	// transaction stays usable.
	ErrDuplicateAttempt = errors.New("payment attempt already recorded")

	// ErrInvalidAmount is returned for non-positive payment amounts.
	ErrInvalidAmount = errors.New("invalid payment amount")
)
