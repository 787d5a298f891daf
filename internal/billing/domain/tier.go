package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier identifies a subscription plan level.
type Tier string

const (
	TierLite     Tier = "lite"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierPro      Tier = "pro"
)

// AllTiers lists every tier the catalog must cover.
func AllTiers() []Tier {
	return []Tier{TierLite, TierStandard, TierPremium, TierPro}
}

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierLite, TierStandard, TierPremium, TierPro:
		return true
	}
	return false
}

// ParseTier converts a wire string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Plan describes the commercial terms of a tier.
type Plan struct {
	Tier            Tier
	Price           decimal.Decimal
	Months          int
	Lifetime        bool
	VisibleFraction float64
}

// EndsAfter reports whether subscriptions on this plan carry an end timestamp.
func (p Plan) EndsAfter() bool {
	return !p.Lifetime
}

// Catalog holds the full plan table. It is validated once at startup so
// that every tier lookup after construction is total.
type Catalog struct {
	plans map[Tier]Plan
}

// DefaultPlans returns the production plan table.
func DefaultPlans() []Plan {
	return []Plan{
		{Tier: TierLite, Price: decimal.NewFromInt(29), Months: 1, VisibleFraction: 0.30},
		{Tier: TierStandard, Price: decimal.NewFromInt(89), Months: 3, VisibleFraction: 0.60},
		{Tier: TierPremium, Price: decimal.NewFromInt(249), Months: 12, VisibleFraction: 1.00},
		{Tier: TierPro, Price: decimal.NewFromInt(499), Lifetime: true, VisibleFraction: 1.00},
	}
}

// NewCatalog validates the plan table and builds the catalog. Every known
// tier must be present exactly once with coherent terms.
func NewCatalog(plans []Plan) (*Catalog, error) {
	byTier := make(map[Tier]Plan, len(plans))
	for _, p := range plans {
		if !p.Tier.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, p.Tier)
		}
		if _, dup := byTier[p.Tier]; dup {
			return nil, fmt.Errorf("plan catalog: duplicate tier %q", p.Tier)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("plan catalog: tier %q has negative price", p.Tier)
		}
		if p.Lifetime && p.Months != 0 {
			return nil, fmt.Errorf("plan catalog: tier %q is lifetime but carries a month count", p.Tier)
		}
		if !p.Lifetime && p.Months <= 0 {
			return nil, fmt.Errorf("plan catalog: tier %q has no duration", p.Tier)
		}
		if p.VisibleFraction <= 0 || p.VisibleFraction > 1 {
			return nil, fmt.Errorf("plan catalog: tier %q visible fraction %v out of range (0,1]", p.Tier, p.VisibleFraction)
		}
		byTier[p.Tier] = p
	}
	for _, t := range AllTiers() {
		if _, ok := byTier[t]; !ok {
			return nil, fmt.Errorf("plan catalog: tier %q missing", t)
		}
	}
	return &Catalog{plans: byTier}, nil
}

// MustDefaultCatalog builds the default catalog and panics on an invalid
// plan table. Intended for wiring at startup.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPlans())
	if err != nil {
		panic(err)
	}
	return c
}

// Plan returns the plan for a tier.
func (c *Catalog) Plan(t Tier) (Plan, error) {
	p, ok := c.plans[t]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return p, nil
}

// Plans returns all plans in tier order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, t := range AllTiers() {
		if p, ok := c.plans[t]; ok {
			out = append(out, p)
		}
	}
	return out
}
