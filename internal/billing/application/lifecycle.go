package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	sharedApp "github.com/venturebridge/venturebridge/internal/shared/application"
	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// ClientCallback is the payload a browser relays after provider checkout.
type ClientCallback struct {
	OrderRef        string
	PaymentRef      string
	Signature       string
	SubscriptionRef string
	Amount          decimal.Decimal
}

// webhookEnvelope mirrors the provider's server-to-server notification.
// It is only decoded after the raw body passed signature verification.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		OrderRef         string `json:"order_id"`
		PaymentRef       string `json:"payment_id"`
		AmountMinorUnits int64  `json:"amount"`
		Notes            struct {
			SubscriptionRef string `json:"subscription_id"`
		} `json:"notes"`
	} `json:"payload"`
}

// LifecycleManager owns subscription state transitions. Every mutation
// runs inside a unit of work together with its ledger row and outbox
// messages, so a crash never leaves a paid-but-inactive subscription.
type LifecycleManager struct {
	subs    domain.SubscriptionRepository
	ledger  *Ledger
	gateway *TrustGateway
	catalog *domain.Catalog
	outbox  outbox.Repository
	uow     sharedApp.UnitOfWork
	logger  *slog.Logger
	metrics observability.Metrics
	clock   func() time.Time
}

func NewLifecycleManager(
	subs domain.SubscriptionRepository,
	ledger *Ledger,
	gateway *TrustGateway,
	catalog *domain.Catalog,
	outboxRepo outbox.Repository,
	uow sharedApp.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *LifecycleManager {
	return &LifecycleManager{
		subs:    subs,
		ledger:  ledger,
		gateway: gateway,
		catalog: catalog,
		outbox:  outboxRepo,
		uow:     uow,
		logger:  logger,
		metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe activates or renews the owner's subscription on tier and
// writes a success ledger row for the charged plan price. This is the
// trusted direct path; provider-confirmed payments go through
// HandleClientCallback or HandleWebhook instead.
func (m *LifecycleManager) Subscribe(ctx context.Context, ownerID uuid.UUID, tier domain.Tier) (*domain.Subscription, error) {
	plan, err := m.catalog.Plan(tier)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	var sub *domain.Subscription

	err = sharedApp.WithUnitOfWork(ctx, m.uow, func(ctx context.Context) error {
		existing, err := m.subs.GetByOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("loading subscription for owner %s: %w", ownerID, err)
		}
		if existing != nil {
			existing.Renew(plan, now)
			sub = existing
		} else {
			sub = domain.NewSubscription(ownerID, plan, now)
		}
		if err := m.subs.Upsert(ctx, sub); err != nil {
			return fmt.Errorf("persisting subscription: %w", err)
		}

		rec, _, err := m.ledger.Record(ctx, VerifiedPayment{
			SubscriptionID: uuid.NullUUID{UUID: sub.ID(), Valid: true},
			Amount:         plan.Price,
			Outcome:        domain.PaymentSuccess,
		}, now)
		if err != nil {
			return err
		}

		events := append(sub.DomainEvents(), domain.NewPaymentRecorded(rec))
		return m.stageEvents(ctx, events, ownerID)
	})
	if err != nil {
		return nil, err
	}

	sub.ClearDomainEvents()
	m.metrics.Counter(observability.MetricSubscriptionsRenewed, 1, observability.T("tier", string(tier)))
	m.logger.InfoContext(ctx, "subscription activated",
		"owner_id", ownerID, "tier", tier, "subscription_id", sub.ID())
	return sub, nil
}

// HandleClientCallback verifies and settles a browser-relayed payment
// confirmation. An invalid signature is itself recorded on the ledger as
// a failed attempt when the caller named a subscription, then rejected.
func (m *LifecycleManager) HandleClientCallback(ctx context.Context, cb ClientCallback) (*domain.PaymentRecord, error) {
	subID := m.parseSubscriptionRef(ctx, cb.SubscriptionRef)

	if err := m.gateway.VerifyClientCallback(cb.OrderRef, cb.PaymentRef, cb.Signature); err != nil {
		m.metrics.Counter(observability.MetricSignatureFailures, 1, observability.T("source", "callback"))
		if subID.Valid {
			if _, recErr := m.recordFailedAttempt(ctx, cb, subID); recErr != nil {
				m.logger.ErrorContext(ctx, "recording failed payment attempt",
					"order_ref", cb.OrderRef, "error", recErr)
			}
		}
		return nil, err
	}

	return m.settle(ctx, VerifiedPayment{
		OrderRef:       cb.OrderRef,
		PaymentRef:     cb.PaymentRef,
		SubscriptionID: subID,
		Amount:         cb.Amount,
		Outcome:        domain.PaymentSuccess,
	})
}

// HandleWebhook verifies a server-to-server notification against its raw
// body, then settles the attempt it describes. Unrecognized event kinds
// are acknowledged without effect so the provider stops redelivering.
func (m *LifecycleManager) HandleWebhook(ctx context.Context, body []byte, signature string) (*domain.PaymentRecord, error) {
	if err := m.gateway.VerifyWebhook(body, signature); err != nil {
		m.metrics.Counter(observability.MetricSignatureFailures, 1, observability.T("source", "webhook"))
		return nil, err
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding webhook body: %w", err)
	}

	var outcome domain.PaymentOutcome
	switch env.Event {
	case "payment.captured", "payment.authorized":
		outcome = domain.PaymentSuccess
	case "payment.failed":
		outcome = domain.PaymentFailed
	default:
		m.logger.InfoContext(ctx, "ignoring webhook event", "event", env.Event)
		return nil, nil
	}

	return m.settle(ctx, VerifiedPayment{
		OrderRef:       env.Payload.OrderRef,
		PaymentRef:     env.Payload.PaymentRef,
		SubscriptionID: m.parseSubscriptionRef(ctx, env.Payload.Notes.SubscriptionRef),
		Amount:         decimal.New(env.Payload.AmountMinorUnits, -2),
		Outcome:        outcome,
	})
}

// settle records the verified attempt and, when it created a new
// successful row against a known subscription, renews that subscription
// on its current tier. Redelivered attempts return the existing row and
// never advance state a second time. A failed attempt leaves an active
// subscription untouched.
func (m *LifecycleManager) settle(ctx context.Context, vp VerifiedPayment) (*domain.PaymentRecord, error) {
	now := m.clock()
	var rec *domain.PaymentRecord

	err := sharedApp.WithUnitOfWork(ctx, m.uow, func(ctx context.Context) error {
		var created bool
		var err error
		rec, created, err = m.ledger.Record(ctx, vp, now)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		events := []sharedDomain.DomainEvent{domain.NewPaymentRecorded(rec)}

		if vp.Outcome == domain.PaymentSuccess && vp.SubscriptionID.Valid {
			sub, err := m.subs.GetByID(ctx, vp.SubscriptionID.UUID)
			if err != nil {
				return fmt.Errorf("loading subscription %s: %w", vp.SubscriptionID.UUID, err)
			}
			if sub == nil {
				m.logger.WarnContext(ctx, "verified payment references unknown subscription",
					"subscription_id", vp.SubscriptionID.UUID, "order_ref", vp.OrderRef)
			} else {
				plan, err := m.catalog.Plan(sub.Tier())
				if err != nil {
					return err
				}
				sub.Renew(plan, now)
				if err := m.subs.Upsert(ctx, sub); err != nil {
					return fmt.Errorf("persisting renewed subscription: %w", err)
				}
				events = append(events, sub.DomainEvents()...)
				sub.ClearDomainEvents()
				m.metrics.Counter(observability.MetricSubscriptionsRenewed, 1,
					observability.T("tier", string(sub.Tier())))
			}
		}

		return m.stageEvents(ctx, events, uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// EntitlementFor resolves the caller's current entitlement. Pure read:
// an expired row is reported inactive without being rewritten.
func (m *LifecycleManager) EntitlementFor(ctx context.Context, ownerID uuid.UUID) (domain.Entitlement, error) {
	sub, err := m.subs.GetByOwner(ctx, ownerID)
	if err != nil {
		return domain.Entitlement{}, fmt.Errorf("loading subscription for owner %s: %w", ownerID, err)
	}
	ent := domain.Evaluate(sub, m.catalog, m.clock())
	if !ent.Active {
		m.metrics.Counter(observability.MetricEntitlementDenials, 1)
	}
	return ent, nil
}

// SubscriptionFor returns the owner's subscription row, or nil.
func (m *LifecycleManager) SubscriptionFor(ctx context.Context, ownerID uuid.UUID) (*domain.Subscription, error) {
	return m.subs.GetByOwner(ctx, ownerID)
}

// Plans exposes the validated plan catalog for read endpoints.
func (m *LifecycleManager) Plans() []domain.Plan {
	return m.catalog.Plans()
}

func (m *LifecycleManager) recordFailedAttempt(ctx context.Context, cb ClientCallback, subID uuid.NullUUID) (*domain.PaymentRecord, error) {
	now := m.clock()
	var rec *domain.PaymentRecord
	err := sharedApp.WithUnitOfWork(ctx, m.uow, func(ctx context.Context) error {
		var err error
		rec, _, err = m.ledger.Record(ctx, VerifiedPayment{
			OrderRef:       cb.OrderRef,
			PaymentRef:     cb.PaymentRef,
			SubscriptionID: subID,
			Amount:         cb.Amount,
			Outcome:        domain.PaymentFailed,
		}, now)
		return err
	})
	return rec, err
}

func (m *LifecycleManager) parseSubscriptionRef(ctx context.Context, ref string) uuid.NullUUID {
	if ref == "" {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		m.logger.WarnContext(ctx, "malformed subscription ref", "ref", ref)
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

func (m *LifecycleManager) stageEvents(ctx context.Context, events []sharedDomain.DomainEvent, userID uuid.UUID) error {
	if len(events) == 0 {
		return nil
	}
	sharedApp.ApplyEventMetadata(events, sharedApp.NewEventMetadata(userID))
	msgs, err := outbox.MessagesFromEvents(events)
	if err != nil {
		return fmt.Errorf("building outbox messages: %w", err)
	}
	if err := m.outbox.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("staging outbox messages: %w", err)
	}
	return nil
}
