package profiles

import (
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// commerceStrategy models a storefront session: landing, optional search,
// a handful of product views with research sub-branches, then the cart and
// checkout funnel with a possible repeat purchase.
type commerceStrategy struct{}

func (commerceStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event
	add := func(name string, minSec, maxSec int) {
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(minSec, maxSec)))
	}

	add("page_view", 0, 5)

	if gate(rng, 0.55) {
		add("search", 5, 40)
	}

	viewed := 0
	for i := 0; i < 1+rng.Intn(5); i++ {
		if !gate(rng, 0.80) {
			break
		}
		add("view_product", 10, 90)
		viewed++
		if gate(rng, 0.35) {
			add("read_reviews", 5, 60)
		}
		if gate(rng, 0.20) {
			add("compare_products", 10, 45)
		}
		if gate(rng, 0.12) {
			add("view_bundle", 5, 30)
		}
	}

	if viewed > 0 && gate(rng, 0.45) {
		add("add_to_cart", 10, 120)
		if gate(rng, 0.30) {
			add("apply_coupon", 5, 60)
		}
		if gate(rng, 0.65) {
			add("begin_checkout", 15, 90)
			if gate(rng, 0.70) {
				add("purchase", 30, 180)
				if gate(rng, 0.10) {
					add("reorder", 60, 600)
				}
			}
		}
	}

	// Ancillary behavior, not tied to the funnel.
	if gate(rng, 0.18) {
		add("add_to_wishlist", 5, 300)
	}
	if gate(rng, 0.05) {
		add("contact_support", 30, 400)
	}

	return sortEvents(events)
}

func newCommerceProfile() *Profile {
	return &Profile{
		Vertical: models.VerticalCommerce,
		Vocabulary: []string{
			"page_view", "search", "view_product", "read_reviews", "compare_products",
			"view_bundle", "add_to_cart", "apply_coupon", "begin_checkout", "purchase",
			"reorder", "add_to_wishlist", "contact_support",
		},
		FunnelSteps:     []string{"page_view", "view_product", "add_to_cart", "begin_checkout", "purchase"},
		ConversionEvent: "purchase",
		OrderEvents:     []string{"purchase", "reorder"},
		AmountMin:       9.99,
		AmountMax:       499.99,
		AllowedKinds:    models.AnomalyKinds(),
		Strategy:        commerceStrategy{},
	}
}
