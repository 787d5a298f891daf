package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentOutcome is the terminal result of one payment attempt.
type PaymentOutcome string

const (
	PaymentSuccess PaymentOutcome = "success"
	PaymentFailed  PaymentOutcome = "failed"
)

// PaymentRecord is one immutable ledger row. Records are only ever
// inserted; corrections arrive as new rows. ExternalOrderRef and
// ExternalPaymentRef identify the attempt at the provider and, when both
// are present, make the row idempotent.
type PaymentRecord struct {
	ID                 uuid.UUID
	SubscriptionID     uuid.NullUUID
	Amount             decimal.Decimal
	Outcome            PaymentOutcome
	ExternalOrderRef   string
	ExternalPaymentRef string
	CreatedAt          time.Time
}

// NewPaymentRecord builds a ledger row for an attempt resolved at now.
func NewPaymentRecord(
	subscriptionID uuid.NullUUID,
	amount decimal.Decimal,
	outcome PaymentOutcome,
	orderRef, paymentRef string,
	now time.Time,
) (*PaymentRecord, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &PaymentRecord{
		ID:                 uuid.New(),
		SubscriptionID:     subscriptionID,
		Amount:             amount,
		Outcome:            outcome,
		ExternalOrderRef:   orderRef,
		ExternalPaymentRef: paymentRef,
		CreatedAt:          now,
	}, nil
}

// HasExternalRefs reports whether both provider references are present,
// which is what the ledger dedupes on.
func (p *PaymentRecord) HasExternalRefs() bool {
	return p.ExternalOrderRef != "" && p.ExternalPaymentRef != ""
}

// Succeeded reports whether this attempt settled successfully.
func (p *PaymentRecord) Succeeded() bool {
	return p.Outcome == PaymentSuccess
}
