package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	billingApp "github.com/venturebridge/venturebridge/internal/billing/application"
	billingDomain "github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/internal/billing/infrastructure/provider"
)

// webhookSignatureHeader carries the provider's HMAC over the raw body.
const webhookSignatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds how much of a webhook body is read.
const maxWebhookBody = 1 << 20

// BillingHandler exposes checkout, payment trust, and subscription
// endpoints.
type BillingHandler struct {
	lifecycle *billingApp.LifecycleManager
	provider  *provider.Client
	logger    *slog.Logger
}

func NewBillingHandler(lifecycle *billingApp.LifecycleManager, providerClient *provider.Client, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{lifecycle: lifecycle, provider: providerClient, logger: logger}
}

type planResponse struct {
	Tier            string  `json:"tier"`
	Price           string  `json:"price"`
	Months          int     `json:"months,omitempty"`
	Lifetime        bool    `json:"lifetime"`
	VisibleFraction float64 `json:"visibleFraction"`
}

// ListPlans handles GET /api/v1/billing/plans.
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.lifecycle.Plans()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			Tier:            string(p.Tier),
			Price:           p.Price.StringFixed(2),
			Months:          p.Months,
			Lifetime:        p.Lifetime,
			VisibleFraction: p.VisibleFraction,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

type checkoutRequest struct {
	Tier string `json:"tier"`
}

type checkoutResponse struct {
	OrderID string `json:"orderId"`
	Amount  string `json:"amount"`
	Tier    string `json:"tier"`
}

// StartCheckout handles POST /api/v1/billing/checkout. It opens a
// provider order for the chosen plan; the browser completes checkout
// against the provider and relays the signed result to HandleCallback.
func (h *BillingHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}

	tier, err := billingDomain.ParseTier(req.Tier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var plan billingDomain.Plan
	for _, p := range h.lifecycle.Plans() {
		if p.Tier == tier {
			plan = p
			break
		}
	}

	order, err := h.provider.CreateOrder(r.Context(), plan.Price, "INR", identity.UserID.String())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating provider order", "error", err)
		writeError(w, http.StatusBadGateway, "provider_unavailable", "Payment provider is unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID: order.ID,
		Amount:  plan.Price.StringFixed(2),
		Tier:    string(tier),
	})
}

type callbackRequest struct {
	OrderRef        string `json:"orderRef"`
	PaymentRef      string `json:"paymentRef"`
	Signature       string `json:"signature"`
	SubscriptionRef string `json:"subscriptionRef,omitempty"`
	Amount          string `json:"amount"`
}

type paymentResponse struct {
	RecordID string `json:"recordId"`
	Outcome  string `json:"outcome"`
}

// HandleCallback handles POST /api/v1/billing/callback, the payment
// confirmation relayed by the payer's browser.
func (h *BillingHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_amount", "Amount must be a decimal string")
			return
		}
		amount = parsed
	}

	rec, err := h.lifecycle.HandleClientCallback(r.Context(), billingApp.ClientCallback{
		OrderRef:        req.OrderRef,
		PaymentRef:      req.PaymentRef,
		Signature:       req.Signature,
		SubscriptionRef: req.SubscriptionRef,
		Amount:          amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{RecordID: rec.ID.String(), Outcome: string(rec.Outcome)})
}

// HandleWebhook handles POST /api/v1/billing/webhook, the provider's
// server-to-server notification. The signature covers the raw body, so
// the body is read before any decoding.
func (h *BillingHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Could not read request body")
		return
	}

	rec, err := h.lifecycle.HandleWebhook(r.Context(), body, r.Header.Get(webhookSignatureHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rec == nil {
		// Unrecognized event kind, acknowledged so the provider stops
		// redelivering.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{RecordID: rec.ID.String(), Outcome: string(rec.Outcome)})
}

type subscribeRequest struct {
	Tier string `json:"tier"`
}

type subscriptionResponse struct {
	ID       string  `json:"id"`
	Tier     string  `json:"tier"`
	Status   string  `json:"status"`
	StartsAt string  `json:"startsAt"`
	EndsAt   *string `json:"endsAt"`
}

func toSubscriptionResponse(sub *billingDomain.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:       sub.ID().String(),
		Tier:     string(sub.Tier()),
		Status:   string(sub.Status()),
		StartsAt: sub.StartsAt().UTC().Format(time.RFC3339),
	}
	if end := sub.EndsAt(); end != nil {
		s := end.UTC().Format(time.RFC3339)
		resp.EndsAt = &s
	}
	return resp
}

// Subscribe handles POST /api/v1/subscriptions, the trusted direct
// activation path.
func (h *BillingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return
	}

	tier, err := billingDomain.ParseTier(req.Tier)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sub, err := h.lifecycle.Subscribe(r.Context(), identity.UserID, tier)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "subscribing", "user_id", identity.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

// GetMySubscription handles GET /api/v1/subscriptions/me.
func (h *BillingHandler) GetMySubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid credentials")
		return
	}

	sub, err := h.lifecycle.SubscriptionFor(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sub == nil {
		writeDomainError(w, billingDomain.ErrSubscriptionNotFound)
		return
	}

	ent, err := h.lifecycle.EntitlementFor(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": toSubscriptionResponse(sub),
		"entitlement": map[string]any{
			"active":          ent.Active,
			"tier":            string(ent.Tier),
			"visibleFraction": ent.VisibleFraction,
		},
	})
}
