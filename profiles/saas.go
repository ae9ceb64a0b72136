package profiles

import (
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// saasStrategy models a workspace-tool session: login, dashboard, feature
// usage loops, and a trial-to-paid upgrade funnel.
type saasStrategy struct{}

func (saasStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event
	add := func(name string, minSec, maxSec int) {
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(minSec, maxSec)))
	}

	add("login", 0, 5)
	if !gate(rng, 0.95) {
		return sortEvents(events)
	}
	add("view_dashboard", 3, 30)

	if gate(rng, 0.30) {
		add("create_project", 20, 180)
	}
	if gate(rng, 0.25) {
		add("invite_member", 15, 120)
	}

	for i := 0; i < 1+rng.Intn(4); i++ {
		if !gate(rng, 0.75) {
			break
		}
		add("use_feature", 30, 300)
		if gate(rng, 0.15) {
			add("export_report", 20, 120)
		}
	}

	if gate(rng, 0.20) {
		add("view_billing", 10, 90)
		if gate(rng, 0.35) {
			add("start_trial", 30, 180)
		}
		if gate(rng, 0.30) {
			add("upgrade_plan", 60, 400)
		}
	}

	if gate(rng, 0.12) {
		add("read_docs", 30, 600)
	}
	if gate(rng, 0.06) {
		add("contact_support", 60, 500)
	}

	return sortEvents(events)
}

func newSaaSProfile() *Profile {
	return &Profile{
		Vertical: models.VerticalSaaS,
		Vocabulary: []string{
			"login", "view_dashboard", "create_project", "invite_member", "use_feature",
			"export_report", "view_billing", "start_trial", "upgrade_plan",
			"read_docs", "contact_support",
		},
		FunnelSteps:     []string{"login", "view_dashboard", "use_feature", "view_billing", "upgrade_plan"},
		ConversionEvent: "upgrade_plan",
		OrderEvents:     []string{"upgrade_plan"},
		AmountMin:       19.00,
		AmountMax:       299.00,
		AllowedKinds:    models.AnomalyKinds(),
		Strategy:        saasStrategy{},
	}
}
