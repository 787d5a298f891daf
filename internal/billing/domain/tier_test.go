package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, tier := range AllTiers() {
		parsed, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseTier("platinum")
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = ParseTier("")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestNewCatalogDefaultPlans(t *testing.T) {
	catalog, err := NewCatalog(DefaultPlans())
	require.NoError(t, err)

	for _, tier := range AllTiers() {
		plan, err := catalog.Plan(tier)
		require.NoError(t, err)
		assert.Equal(t, tier, plan.Tier)
	}

	pro, _ := catalog.Plan(TierPro)
	assert.True(t, pro.Lifetime)
	assert.False(t, pro.EndsAfter())

	lite, _ := catalog.Plan(TierLite)
	assert.Equal(t, 1, lite.Months)
	assert.InDelta(t, 0.30, lite.VisibleFraction, 1e-9)
}

func TestNewCatalogRejectsIncompleteTable(t *testing.T) {
	plans := DefaultPlans()
	_, err := NewCatalog(plans[:len(plans)-1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestNewCatalogRejectsBadPlans(t *testing.T) {
	base := DefaultPlans()

	tests := []struct {
		name   string
		mutate func([]Plan) []Plan
	}{
		{
			name: "duplicate tier",
			mutate: func(plans []Plan) []Plan {
				return append(plans, plans[0])
			},
		},
		{
			name: "negative price",
			mutate: func(plans []Plan) []Plan {
				plans[0].Price = decimal.NewFromInt(-1)
				return plans
			},
		},
		{
			name: "lifetime with months",
			mutate: func(plans []Plan) []Plan {
				plans[3].Months = 6
				return plans
			},
		},
		{
			name: "zero duration",
			mutate: func(plans []Plan) []Plan {
				plans[0].Months = 0
				return plans
			},
		},
		{
			name: "fraction above one",
			mutate: func(plans []Plan) []Plan {
				plans[1].VisibleFraction = 1.5
				return plans
			},
		},
		{
			name: "zero fraction",
			mutate: func(plans []Plan) []Plan {
				plans[1].VisibleFraction = 0
				return plans
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := make([]Plan, len(base))
			copy(plans, base)
			_, err := NewCatalog(tt.mutate(plans))
			assert.Error(t, err)
		})
	}
}
