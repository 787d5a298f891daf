package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	catalog := MustDefaultCatalog()
	now := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	owner := uuid.New()

	subOn := func(tier Tier, startedAgo time.Duration) *Subscription {
		plan, _ := catalog.Plan(tier)
		return NewSubscription(owner, plan, now.Add(-startedAgo))
	}

	t.Run("nil subscription is inactive", func(t *testing.T) {
		ent := Evaluate(nil, catalog, now)
		assert.False(t, ent.Active)
		assert.Zero(t, ent.VisibleFraction)
	})

	t.Run("active subscription within window", func(t *testing.T) {
		ent := Evaluate(subOn(TierStandard, 24*time.Hour), catalog, now)
		assert.True(t, ent.Active)
		assert.Equal(t, TierStandard, ent.Tier)
		assert.InDelta(t, 0.60, ent.VisibleFraction, 1e-9)
	})

	t.Run("end timestamp in the past is inactive", func(t *testing.T) {
		plan, _ := catalog.Plan(TierLite)
		sub := NewSubscription(owner, plan, now.AddDate(0, -2, 0))
		ent := Evaluate(sub, catalog, now)
		assert.False(t, ent.Active)
	})

	t.Run("evaluation at the exact end instant is still active", func(t *testing.T) {
		plan, _ := catalog.Plan(TierLite)
		sub := NewSubscription(owner, plan, now)
		ent := Evaluate(sub, catalog, *sub.EndsAt())
		assert.True(t, ent.Active)
	})

	t.Run("lifetime subscription never lapses", func(t *testing.T) {
		sub := subOn(TierPro, 0)
		ent := Evaluate(sub, catalog, now.AddDate(50, 0, 0))
		assert.True(t, ent.Active)
		assert.Equal(t, TierPro, ent.Tier)
		assert.InDelta(t, 1.00, ent.VisibleFraction, 1e-9)
	})

	t.Run("expired status is inactive regardless of end timestamp", func(t *testing.T) {
		sub := subOn(TierPro, 0)
		sub.Expire(now)
		ent := Evaluate(sub, catalog, now)
		assert.False(t, ent.Active)
	})

	t.Run("tier missing from catalog denies access", func(t *testing.T) {
		sub := RehydrateSubscription(uuid.New(), owner, Tier("legacy"), SubscriptionActive, now, nil, now, now)
		ent := Evaluate(sub, catalog, now)
		assert.False(t, ent.Active)
	})
}

func TestEntitlementVisibleCount(t *testing.T) {
	tests := []struct {
		name     string
		ent      Entitlement
		total    int
		expected int
	}{
		{"inactive sees nothing", Entitlement{}, 100, 0},
		{"empty catalog", Entitlement{Active: true, VisibleFraction: 0.30}, 0, 0},
		{"rounds up", Entitlement{Active: true, VisibleFraction: 0.30}, 7, 3},
		{"exact fraction", Entitlement{Active: true, VisibleFraction: 0.60}, 10, 6},
		{"full visibility", Entitlement{Active: true, VisibleFraction: 1.00}, 42, 42},
		{"never zero for non-empty catalog", Entitlement{Active: true, VisibleFraction: 0.30}, 1, 1},
		{"never exceeds total", Entitlement{Active: true, VisibleFraction: 1.00}, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ent.VisibleCount(tt.total))
		})
	}
}
