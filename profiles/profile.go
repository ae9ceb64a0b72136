package profiles

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"sqlcamp/datagen/models"
)

// Strategy produces the ordered event sequence for one user session. It is
// pure: no I/O, finite output, deterministic for a given rng state.
type Strategy interface {
	GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event
}

// Profile bundles a vertical's strategy with the static facts the assembler
// and the anomaly injector need about it.
type Profile struct {
	Vertical        models.Vertical
	Vocabulary      []string
	FunnelSteps     []string // ordered funnel, first-to-last
	ConversionEvent string   // terminal funnel event
	OrderEvents     []string // purchase-class events that may spawn orders
	AmountMin       float64
	AmountMax       float64
	AllowedKinds    []models.AnomalyKind
	Strategy        Strategy
}

// HasOrders reports whether the vertical is commerce-style (produces orders).
func (p *Profile) HasOrders() bool { return len(p.OrderEvents) > 0 }

// IsOrderEvent reports whether name is a purchase-class event for this vertical.
func (p *Profile) IsOrderEvent(name string) bool {
	for _, e := range p.OrderEvents {
		if e == name {
			return true
		}
	}
	return false
}

// Amount draws an order amount within the vertical's configured band.
func (p *Profile) Amount(rng *rand.Rand) float64 {
	v := p.AmountMin + rng.Float64()*(p.AmountMax-p.AmountMin)
	return float64(int(v*100)) / 100
}

// Shared user/session dimension values. Anomaly parameter selection draws
// from the same lists the assembler populates from, so a chosen slice is
// usually (not always) non-empty.
var (
	Countries = []string{"US", "GB", "DE", "IN", "BR", "JP"}
	Channels  = []string{"organic", "paid", "social", "referral", "email"}
	Devices   = []string{"desktop", "mobile", "tablet"}
)

// gate draws one probability check. A probability of 0 never fires.
func gate(rng *rand.Rand, p float64) bool {
	return p > 0 && rng.Float64() < p
}

// sessionClock hands out strictly non-decreasing timestamps within a
// session, which keeps the within-session ordering invariant without
// relying on the final sort.
type sessionClock struct {
	rng *rand.Rand
	now time.Time
}

func newSessionClock(rng *rand.Rand, start time.Time) *sessionClock {
	return &sessionClock{rng: rng, now: start}
}

// advance moves the clock forward by a random offset in [minSec, maxSec]
// seconds and returns the new time.
func (c *sessionClock) advance(minSec, maxSec int) time.Time {
	span := maxSec - minSec
	if span < 0 {
		span = 0
	}
	off := minSec
	if span > 0 {
		off += c.rng.Intn(span + 1)
	}
	c.now = c.now.Add(time.Duration(off) * time.Second)
	return c.now
}

// newID derives an identifier from the run's seeded source, so a fixed seed
// reproduces the identical dataset, IDs included.
func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// rand.Rand.Read never fails.
		return uuid.New().String()
	}
	return id.String()
}

func newEvent(rng *rand.Rand, userID, sessionID, name string, at time.Time) models.Event {
	return models.Event{
		EventID:   newID(rng),
		UserID:    userID,
		SessionID: sessionID,
		EventTime: at,
		EventName: name,
	}
}

// sortEvents is the defensive final ordering pass applied before any
// strategy returns.
func sortEvents(events []models.Event) []models.Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventTime.Before(events[j].EventTime)
	})
	return events
}
