package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/venturebridge/venturebridge/internal/shared/domain"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription is the aggregate holding one owner's paid access. An owner
// has at most one subscription row; renewals mutate it in place. A nil
// endsAt means the subscription never lapses on its own (lifetime plans).
type Subscription struct {
	sharedDomain.BaseAggregateRoot
	ownerID  uuid.UUID
	tier     Tier
	status   SubscriptionStatus
	startsAt time.Time
	endsAt   *time.Time
}

// NewSubscription activates a fresh subscription on the given plan.
func NewSubscription(ownerID uuid.UUID, plan Plan, now time.Time) *Subscription {
	s := &Subscription{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		ownerID:           ownerID,
		tier:              plan.Tier,
		status:            SubscriptionActive,
		startsAt:          now,
		endsAt:            endFor(plan, now),
	}
	s.AddDomainEvent(NewSubscriptionActivated(s.ID(), ownerID, plan.Tier, s.endsAt))
	return s
}

// RehydrateSubscription rebuilds a subscription from persistence without
// emitting events.
func RehydrateSubscription(
	id uuid.UUID,
	ownerID uuid.UUID,
	tier Tier,
	status SubscriptionStatus,
	startsAt time.Time,
	endsAt *time.Time,
	createdAt, updatedAt time.Time,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)),
		ownerID:           ownerID,
		tier:              tier,
		status:            status,
		startsAt:          startsAt,
		endsAt:            endsAt,
	}
}

func endFor(plan Plan, now time.Time) *time.Time {
	if plan.Lifetime {
		return nil
	}
	end := now.AddDate(0, plan.Months, 0)
	return &end
}

// Renew moves the subscription onto plan starting at now. It reactivates
// an expired subscription and replaces the previous window entirely.
func (s *Subscription) Renew(plan Plan, now time.Time) {
	s.tier = plan.Tier
	s.status = SubscriptionActive
	s.startsAt = now
	s.endsAt = endFor(plan, now)
	s.Touch()
	s.AddDomainEvent(NewSubscriptionActivated(s.ID(), s.ownerID, plan.Tier, s.endsAt))
}

// Expire marks the subscription lapsed. Expiring an already expired
// subscription is a no-op.
func (s *Subscription) Expire(now time.Time) {
	if s.status == SubscriptionExpired {
		return
	}
	s.status = SubscriptionExpired
	if s.endsAt == nil || s.endsAt.After(now) {
		end := now
		s.endsAt = &end
	}
	s.Touch()
	s.AddDomainEvent(NewSubscriptionLapsed(s.ID(), s.ownerID, s.tier))
}

func (s *Subscription) OwnerID() uuid.UUID           { return s.ownerID }
func (s *Subscription) Tier() Tier                   { return s.tier }
func (s *Subscription) Status() SubscriptionStatus   { return s.status }
func (s *Subscription) StartsAt() time.Time          { return s.startsAt }
func (s *Subscription) EndsAt() *time.Time           { return s.endsAt }
func (s *Subscription) Lifetime() bool               { return s.endsAt == nil }
