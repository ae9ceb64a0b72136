package profiles

import (
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// fintechStrategy models a banking-app session: balance checks, transfers
// with a confirmation step, and deposit/investment product conversions.
type fintechStrategy struct{}

func (fintechStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event
	add := func(name string, minSec, maxSec int) {
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(minSec, maxSec)))
	}

	add("app_open", 0, 3)
	if !gate(rng, 0.97) {
		return sortEvents(events)
	}
	add("check_balance", 2, 15)

	if gate(rng, 0.55) {
		add("view_transactions", 5, 60)
	}

	for i := 0; i < 1+rng.Intn(3); i++ {
		if !gate(rng, 0.35) {
			break
		}
		add("transfer_initiated", 20, 120)
		if gate(rng, 0.88) {
			add("transfer_confirmed", 10, 60)
		}
	}

	if gate(rng, 0.10) {
		add("view_products", 10, 90)
		if gate(rng, 0.40) {
			add("open_deposit", 60, 400)
		} else if gate(rng, 0.30) {
			add("invest", 60, 400)
		}
	}

	if gate(rng, 0.15) {
		add("view_offers", 5, 60)
	}
	if gate(rng, 0.04) {
		add("contact_support", 60, 500)
	}

	return sortEvents(events)
}

func newFintechProfile() *Profile {
	return &Profile{
		Vertical: models.VerticalFintech,
		Vocabulary: []string{
			"app_open", "check_balance", "view_transactions", "transfer_initiated",
			"transfer_confirmed", "view_products", "open_deposit", "invest",
			"view_offers", "contact_support",
		},
		FunnelSteps:     []string{"app_open", "check_balance", "transfer_initiated", "transfer_confirmed"},
		ConversionEvent: "transfer_confirmed",
		OrderEvents:     []string{"open_deposit", "invest"},
		AmountMin:       100.00,
		AmountMax:       25000.00,
		// Paid-acquisition efficiency problems read oddly for a banking
		// product, so that kind stays out of the fintech pool.
		AllowedKinds: []models.AnomalyKind{
			models.AnomalyChannelConversionDrop,
			models.AnomalyDeviceIssue,
			models.AnomalyTimeBased,
			models.AnomalyCountryBehaviorChange,
			models.AnomalyDataCollectionGap,
			models.AnomalyRetentionDrop,
			models.AnomalySignupConversionDrop,
		},
		Strategy: fintechStrategy{},
	}
}
