package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
)

// SubscriptionActivated is emitted when a subscription is created or renewed.
type SubscriptionActivated struct {
	sharedDomain.BaseEvent
	OwnerID uuid.UUID  `json:"ownerId"`
	Tier    Tier       `json:"tier"`
	EndsAt  *time.Time `json:"endsAt,omitempty"`
}

func NewSubscriptionActivated(subscriptionID, ownerID uuid.UUID, tier Tier, endsAt *time.Time) *SubscriptionActivated {
	return &SubscriptionActivated{
		BaseEvent: sharedDomain.NewBaseEvent(subscriptionID, "subscription", "billing.subscription.activated"),
		OwnerID:   ownerID,
		Tier:      tier,
		EndsAt:    endsAt,
	}
}

// SubscriptionLapsed is emitted when a subscription expires.
type SubscriptionLapsed struct {
	sharedDomain.BaseEvent
	OwnerID uuid.UUID `json:"ownerId"`
	Tier    Tier      `json:"tier"`
}

func NewSubscriptionLapsed(subscriptionID, ownerID uuid.UUID, tier Tier) *SubscriptionLapsed {
	return &SubscriptionLapsed{
		BaseEvent: sharedDomain.NewBaseEvent(subscriptionID, "subscription", "billing.subscription.expired"),
		OwnerID:   ownerID,
		Tier:      tier,
	}
}

// PaymentRecorded is emitted once per new ledger row. Duplicate deliveries
// of the same provider attempt do not produce a second event.
type PaymentRecorded struct {
	sharedDomain.BaseEvent
	SubscriptionID *uuid.UUID      `json:"subscriptionId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Outcome        PaymentOutcome  `json:"outcome"`
	OrderRef       string          `json:"orderRef,omitempty"`
	PaymentRef     string          `json:"paymentRef,omitempty"`
}

func NewPaymentRecorded(rec *PaymentRecord) *PaymentRecorded {
	e := &PaymentRecorded{
		BaseEvent:  sharedDomain.NewBaseEvent(rec.ID, "payment", "billing.payment.recorded"),
		Amount:     rec.Amount,
		Outcome:    rec.Outcome,
		OrderRef:   rec.ExternalOrderRef,
		PaymentRef: rec.ExternalPaymentRef,
	}
	if rec.SubscriptionID.Valid {
		id := rec.SubscriptionID.UUID
		e.SubscriptionID = &id
	}
	return e
}
