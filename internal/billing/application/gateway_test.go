package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTrustGatewayVerifyClientCallback(t *testing.T) {
	gw := NewTrustGateway("callback-secret", "webhook-secret", testLogger())

	t.Run("accepts a valid signature", func(t *testing.T) {
		sig := sign("callback-secret", []byte("order_123|pay_456"))
		require.NoError(t, gw.VerifyClientCallback("order_123", "pay_456", sig))
	})

	t.Run("rejects a tampered payment ref", func(t *testing.T) {
		sig := sign("callback-secret", []byte("order_123|pay_456"))
		err := gw.VerifyClientCallback("order_123", "pay_999", sig)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("rejects a signature under the wrong secret", func(t *testing.T) {
		sig := sign("other-secret", []byte("order_123|pay_456"))
		err := gw.VerifyClientCallback("order_123", "pay_456", sig)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		err := gw.VerifyClientCallback("order_123", "pay_456", "")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("swapping the refs invalidates the signature", func(t *testing.T) {
		sig := sign("callback-secret", []byte("order_123|pay_456"))
		err := gw.VerifyClientCallback("pay_456", "order_123", sig)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})
}

func TestTrustGatewayVerifyWebhook(t *testing.T) {
	gw := NewTrustGateway("callback-secret", "webhook-secret", testLogger())
	body := []byte(`{"event":"payment.captured","payload":{"order_id":"order_123"}}`)

	t.Run("accepts a valid body signature", func(t *testing.T) {
		require.NoError(t, gw.VerifyWebhook(body, sign("webhook-secret", body)))
	})

	t.Run("rejects a modified body", func(t *testing.T) {
		sig := sign("webhook-secret", body)
		tampered := []byte(`{"event":"payment.captured","payload":{"order_id":"order_999"}}`)
		assert.ErrorIs(t, gw.VerifyWebhook(tampered, sig), domain.ErrInvalidSignature)
	})

	t.Run("webhook and callback secrets are independent", func(t *testing.T) {
		assert.ErrorIs(t, gw.VerifyWebhook(body, sign("callback-secret", body)), domain.ErrInvalidSignature)
	})
}
