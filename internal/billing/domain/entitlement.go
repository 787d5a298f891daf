package domain

import (
	"math"
	"time"
)

// Entitlement is the resolved access level for one user at one instant.
// It is a pure read model: evaluating never mutates the subscription.
type Entitlement struct {
	Active          bool
	Tier            Tier
	VisibleFraction float64
}

// Evaluate resolves the entitlement for sub at now. A nil subscription,
// an expired status, or a past end timestamp all yield an inactive
// entitlement with zero visibility. A nil end timestamp never lapses.
func Evaluate(sub *Subscription, catalog *Catalog, now time.Time) Entitlement {
	if sub == nil || sub.Status() != SubscriptionActive {
		return Entitlement{}
	}
	if end := sub.EndsAt(); end != nil && now.After(*end) {
		return Entitlement{}
	}
	plan, err := catalog.Plan(sub.Tier())
	if err != nil {
		// A persisted tier outside the catalog means the catalog shrank
		// under live data; deny rather than guess a fraction.
		return Entitlement{}
	}
	return Entitlement{
		Active:          true,
		Tier:            sub.Tier(),
		VisibleFraction: plan.VisibleFraction,
	}
}

// VisibleCount applies the entitlement's fraction to a catalog of total
// items, rounding up. A non-empty catalog under an active entitlement is
// never reduced to zero visible items.
func (e Entitlement) VisibleCount(total int) int {
	if !e.Active || total <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(total) * e.VisibleFraction))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}
