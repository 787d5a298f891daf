// Package application wires billing use cases: payment verification, the
// idempotent settlement ledger, and subscription lifecycle transitions.
package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
)

// VerifiedPayment is a payment attempt whose authenticity has been
// established. Only the gateway produces these; downstream code trusts
// the contents.
type VerifiedPayment struct {
	OrderRef       string
	PaymentRef     string
	SubscriptionID uuid.NullUUID
	Amount         decimal.Decimal
	Outcome        domain.PaymentOutcome
}

// TrustGateway verifies that payment confirmations really come from the
// payment provider. Client callbacks sign the order and payment refs;
// webhooks sign the raw request body. Both use HMAC-SHA256 with secrets
// shared with the provider at onboarding.
type TrustGateway struct {
	callbackSecret []byte
	webhookSecret  []byte
	logger         *slog.Logger
}

func NewTrustGateway(callbackSecret, webhookSecret string, logger *slog.Logger) *TrustGateway {
	return &TrustGateway{
		callbackSecret: []byte(callbackSecret),
		webhookSecret:  []byte(webhookSecret),
		logger:         logger,
	}
}

// VerifyClientCallback checks the signature a browser relays after
// checkout. The signed payload is "orderRef|paymentRef"; the signature
// is lowercase hex.
func (g *TrustGateway) VerifyClientCallback(orderRef, paymentRef, signature string) error {
	expected := signPayload(g.callbackSecret, []byte(orderRef+"|"+paymentRef))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		g.logger.Warn("client callback signature mismatch", "order_ref", orderRef)
		return domain.ErrInvalidSignature
	}
	return nil
}

// VerifyWebhook checks the signature header of a server-to-server
// notification against the raw body bytes, before any parsing.
func (g *TrustGateway) VerifyWebhook(body []byte, signature string) error {
	expected := signPayload(g.webhookSecret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		g.logger.Warn("webhook signature mismatch")
		return domain.ErrInvalidSignature
	}
	return nil
}

func signPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
