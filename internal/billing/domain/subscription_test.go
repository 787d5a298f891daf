package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscription(t *testing.T) {
	catalog := MustDefaultCatalog()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()

	t.Run("time-bound plan sets an end timestamp", func(t *testing.T) {
		plan, _ := catalog.Plan(TierStandard)
		sub := NewSubscription(owner, plan, now)

		assert.Equal(t, owner, sub.OwnerID())
		assert.Equal(t, TierStandard, sub.Tier())
		assert.Equal(t, SubscriptionActive, sub.Status())
		require.NotNil(t, sub.EndsAt())
		assert.Equal(t, now.AddDate(0, 3, 0), *sub.EndsAt())
		assert.False(t, sub.Lifetime())

		events := sub.DomainEvents()
		require.Len(t, events, 1)
		activated, ok := events[0].(*SubscriptionActivated)
		require.True(t, ok)
		assert.Equal(t, sub.ID(), activated.AggregateID())
		assert.Equal(t, TierStandard, activated.Tier)
	})

	t.Run("lifetime plan has no end timestamp", func(t *testing.T) {
		plan, _ := catalog.Plan(TierPro)
		sub := NewSubscription(owner, plan, now)

		assert.Nil(t, sub.EndsAt())
		assert.True(t, sub.Lifetime())
	})
}

func TestSubscriptionRenew(t *testing.T) {
	catalog := MustDefaultCatalog()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lite, _ := catalog.Plan(TierLite)
	premium, _ := catalog.Plan(TierPremium)

	sub := NewSubscription(uuid.New(), lite, start)
	sub.ClearDomainEvents()

	renewedAt := start.AddDate(0, 2, 0)
	sub.Renew(premium, renewedAt)

	assert.Equal(t, TierPremium, sub.Tier())
	assert.Equal(t, SubscriptionActive, sub.Status())
	assert.Equal(t, renewedAt, sub.StartsAt())
	require.NotNil(t, sub.EndsAt())
	assert.Equal(t, renewedAt.AddDate(0, 12, 0), *sub.EndsAt())
	require.Len(t, sub.DomainEvents(), 1)
}

func TestSubscriptionRenewReactivatesExpired(t *testing.T) {
	catalog := MustDefaultCatalog()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lite, _ := catalog.Plan(TierLite)

	sub := NewSubscription(uuid.New(), lite, start)
	sub.Expire(start.AddDate(0, 1, 1))
	require.Equal(t, SubscriptionExpired, sub.Status())

	sub.Renew(lite, start.AddDate(0, 2, 0))
	assert.Equal(t, SubscriptionActive, sub.Status())
}

func TestSubscriptionExpire(t *testing.T) {
	catalog := MustDefaultCatalog()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pro, _ := catalog.Plan(TierPro)

	sub := NewSubscription(uuid.New(), pro, start)
	sub.ClearDomainEvents()

	expiredAt := start.AddDate(1, 0, 0)
	sub.Expire(expiredAt)

	assert.Equal(t, SubscriptionExpired, sub.Status())
	require.NotNil(t, sub.EndsAt())
	assert.Equal(t, expiredAt, *sub.EndsAt())
	require.Len(t, sub.DomainEvents(), 1)
	lapsed, ok := sub.DomainEvents()[0].(*SubscriptionLapsed)
	require.True(t, ok)
	assert.Equal(t, TierPro, lapsed.Tier)

	// Idempotent: a second expire changes nothing.
	sub.ClearDomainEvents()
	sub.Expire(expiredAt.AddDate(0, 1, 0))
	assert.Equal(t, expiredAt, *sub.EndsAt())
	assert.Empty(t, sub.DomainEvents())
}

func TestRehydrateSubscription(t *testing.T) {
	id := uuid.New()
	owner := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)

	sub := RehydrateSubscription(id, owner, TierStandard, SubscriptionActive, start, &end, start, start)

	assert.Equal(t, id, sub.ID())
	assert.Equal(t, owner, sub.OwnerID())
	assert.Equal(t, TierStandard, sub.Tier())
	require.NotNil(t, sub.EndsAt())
	assert.Equal(t, end, *sub.EndsAt())
	assert.Empty(t, sub.DomainEvents())
}
