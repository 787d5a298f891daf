package domain

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionRepository persists subscriptions. Lookups that find no row
// return (nil, nil); callers treat a missing subscription as a domain
// state, not an error.
type SubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
}

// PaymentRepository is the append-only ledger store. Insert must return
// ErrDuplicateAttempt, without aborting an enclosing transaction, when a
// row with the same external refs already exists.
type PaymentRepository interface {
	Insert(ctx context.Context, rec *PaymentRecord) error
	FindByExternalRefs(ctx context.Context, orderRef, paymentRef string) (*PaymentRecord, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*PaymentRecord, error)
}
