package profiles

import (
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// communityStrategy models a forum session: thread browsing with voting
// and reply sub-branches, and posting as the conversion tail.
type communityStrategy struct{}

func (communityStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event
	add := func(name string, minSec, maxSec int) {
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(minSec, maxSec)))
	}

	add("visit_forum", 0, 5)
	if !gate(rng, 0.90) {
		return sortEvents(events)
	}
	add("browse_threads", 5, 60)

	opened := 0
	for i := 0; i < 1+rng.Intn(5); i++ {
		if !gate(rng, 0.72) {
			break
		}
		add("open_thread", 10, 120)
		opened++
		if gate(rng, 0.30) {
			add("upvote", 3, 20)
		}
		if gate(rng, 0.18) {
			add("reply", 40, 400)
		}
	}

	if opened > 0 && gate(rng, 0.15) {
		add("create_post", 90, 600)
	}
	if gate(rng, 0.10) {
		add("follow_user", 5, 60)
	}

	if gate(rng, 0.08) {
		add("edit_profile", 30, 240)
	}
	if gate(rng, 0.02) {
		add("report_content", 10, 90)
	}

	return sortEvents(events)
}

func newCommunityProfile() *Profile {
	return &Profile{
		Vertical: models.VerticalCommunity,
		Vocabulary: []string{
			"visit_forum", "browse_threads", "open_thread", "upvote", "reply",
			"create_post", "follow_user", "edit_profile", "report_content",
		},
		FunnelSteps:     []string{"visit_forum", "browse_threads", "open_thread", "reply", "create_post"},
		ConversionEvent: "create_post",
		OrderEvents:     nil,
		AllowedKinds: []models.AnomalyKind{
			models.AnomalyChannelConversionDrop,
			models.AnomalyDeviceIssue,
			models.AnomalyTimeBased,
			models.AnomalyCountryBehaviorChange,
			models.AnomalyDataCollectionGap,
			models.AnomalyRetentionDrop,
			models.AnomalySignupConversionDrop,
		},
		Strategy: communityStrategy{},
	}
}
