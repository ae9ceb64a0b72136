package profiles

import (
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// contentStrategy models a media site session: feed browsing, several
// article reads with scroll-depth and engagement sub-branches, and a
// premium-subscription funnel tail.
type contentStrategy struct{}

func (contentStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event
	add := func(name string, minSec, maxSec int) {
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(minSec, maxSec)))
	}

	add("visit_home", 0, 5)

	if !gate(rng, 0.85) {
		return sortEvents(events)
	}
	add("browse_feed", 5, 60)

	opened := 0
	for i := 0; i < 1+rng.Intn(6); i++ {
		if !gate(rng, 0.70) {
			break
		}
		add("open_article", 10, 120)
		opened++
		if gate(rng, 0.75) {
			add("scroll_50", 20, 90)
			if gate(rng, 0.55) {
				add("scroll_90", 30, 180)
			}
		}
		if gate(rng, 0.25) {
			add("like_article", 5, 30)
		}
		if gate(rng, 0.08) {
			add("post_comment", 30, 240)
		}
	}

	if opened > 0 && gate(rng, 0.12) {
		add("share_article", 10, 60)
	}
	if opened >= 2 && gate(rng, 0.15) {
		add("view_paywall", 10, 90)
		if gate(rng, 0.40) {
			add("subscribe", 60, 300)
		}
	}

	if gate(rng, 0.10) {
		add("manage_newsletter", 10, 120)
	}

	return sortEvents(events)
}

func newContentProfile() *Profile {
	return &Profile{
		Vertical: models.VerticalContent,
		Vocabulary: []string{
			"visit_home", "browse_feed", "open_article", "scroll_50", "scroll_90",
			"like_article", "post_comment", "share_article", "view_paywall",
			"subscribe", "manage_newsletter",
		},
		FunnelSteps:     []string{"visit_home", "browse_feed", "open_article", "view_paywall", "subscribe"},
		ConversionEvent: "subscribe",
		// No orders: subscriptions bill outside the simulated order table.
		OrderEvents: nil,
		AllowedKinds: []models.AnomalyKind{
			models.AnomalyChannelConversionDrop,
			models.AnomalyDeviceIssue,
			models.AnomalyTimeBased,
			models.AnomalyCountryBehaviorChange,
			models.AnomalyDataCollectionGap,
			models.AnomalyRetentionDrop,
			models.AnomalySignupConversionDrop,
		},
		Strategy: contentStrategy{},
	}
}
