package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sqlcamp/datagen/models"
	"sqlcamp/datagen/profiles"
	"sqlcamp/datagen/store"
)

// Options are the volume knobs of one generation cycle.
type Options struct {
	UserCount        int
	SignupWindowDays int
	SessionsMin      int
	SessionsMax      int
	OrderProbability float64
	// Seed fixes the PRNG for reproducible datasets; 0 means a fresh
	// time-derived seed per run.
	Seed int64
}

// Assembler drives one full generation cycle: users, their sessions, the
// per-session event walks, synthesized orders, and the bulk load. Callers
// guarantee single-writer discipline per cycle; the assembler itself is
// stateless between runs.
type Assembler struct {
	registry *profiles.Registry
	store    *store.DatasetStore
	log      *zap.SugaredLogger
	opts     Options
}

func NewAssembler(registry *profiles.Registry, st *store.DatasetStore, log *zap.SugaredLogger, opts Options) *Assembler {
	if opts.UserCount <= 0 {
		opts.UserCount = 1000
	}
	if opts.SignupWindowDays <= 0 {
		opts.SignupWindowDays = 30
	}
	if opts.SessionsMin <= 0 {
		opts.SessionsMin = 1
	}
	if opts.SessionsMax < opts.SessionsMin {
		opts.SessionsMax = opts.SessionsMin
	}
	if opts.OrderProbability <= 0 || opts.OrderProbability > 1 {
		opts.OrderProbability = 0.85
	}
	return &Assembler{registry: registry, store: st, log: log, opts: opts}
}

// GenerateDataset builds and persists the full dataset for one vertical and
// target date. The whole in-memory result flushes as one transactional
// load; a context deadline hit mid-generation stops producing further
// users but still flushes what exists.
func (a *Assembler) GenerateDataset(ctx context.Context, vertical models.Vertical, targetDate time.Time) (*models.DatasetVersion, error) {
	profile, err := a.registry.Get(vertical)
	if err != nil {
		return nil, err
	}

	seed := a.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	windowEnd := targetDate.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	windowStart := windowEnd.AddDate(0, 0, -a.opts.SignupWindowDays)
	window := windowEnd.Sub(windowStart)

	var (
		users    []models.User
		sessions []models.Session
		events   []models.Event
		orders   []models.Order
	)

	for i := 0; i < a.opts.UserCount; i++ {
		if ctx.Err() != nil {
			a.log.Warnw("generation budget exceeded, flushing partial dataset",
				"vertical", vertical, "generated_users", len(users))
			break
		}

		user := models.User{
			UserID:   newID(rng),
			SignupAt: windowStart.Add(time.Duration(rng.Int63n(int64(window)))),
			Country:  profiles.Countries[rng.Intn(len(profiles.Countries))],
			Channel:  profiles.Channels[rng.Intn(len(profiles.Channels))],
		}
		users = append(users, user)

		sessionCount := a.opts.SessionsMin + rng.Intn(a.opts.SessionsMax-a.opts.SessionsMin+1)
		for s := 0; s < sessionCount; s++ {
			remaining := windowEnd.Sub(user.SignupAt)
			if remaining <= 0 {
				remaining = time.Hour
			}
			session := models.Session{
				SessionID: newID(rng),
				UserID:    user.UserID,
				StartedAt: user.SignupAt.Add(time.Duration(rng.Int63n(int64(remaining)))),
				Device:    profiles.Devices[rng.Intn(len(profiles.Devices))],
			}
			sessions = append(sessions, session)

			sessionEvents := profile.Strategy.GenerateSessionEvents(rng, user.UserID, session.SessionID, session.StartedAt)
			events = append(events, sessionEvents...)

			if profile.HasOrders() {
				for _, e := range sessionEvents {
					if profile.IsOrderEvent(e.EventName) && rng.Float64() < a.opts.OrderProbability {
						orders = append(orders, models.Order{
							OrderID:   newID(rng),
							UserID:    user.UserID,
							OrderTime: e.EventTime,
							Amount:    profile.Amount(rng),
						})
					}
				}
			}
		}
	}

	// Temporal load order: some engines check monotonicity-adjacent
	// constraints at load, and first-N exercises assume it.
	sort.Slice(users, func(i, j int) bool { return users[i].SignupAt.Before(users[j].SignupAt) })
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.Before(sessions[j].StartedAt) })
	sort.Slice(events, func(i, j int) bool { return events[i].EventTime.Before(events[j].EventTime) })
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderTime.Before(orders[j].OrderTime) })

	version := &models.DatasetVersion{
		CreatedAt:   time.Now().UTC(),
		ProductType: vertical,
		UserCount:   len(users),
		EventCount:  len(events),
	}
	if len(users) > 0 {
		version.SignupMin = users[0].SignupAt
		version.SignupMax = users[len(users)-1].SignupAt
	}

	// The flush must survive a generation-budget overrun: the partial
	// in-memory result is still a consistent dataset, and the load is the
	// all-or-nothing boundary.
	loadCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
	}
	if err := a.store.LoadDataset(loadCtx, version, users, sessions, events, orders); err != nil {
		return nil, err
	}

	a.log.Infow("generation cycle complete",
		"vertical", vertical, "seed", seed,
		"users", len(users), "sessions", len(sessions),
		"events", len(events), "orders", len(orders))
	return version, nil
}

// BuildDataSummary renders the free-text schema-and-counts block consumed
// by the problem-authoring collaborator. Content stability matters more
// than formatting.
func (a *Assembler) BuildDataSummary(ctx context.Context, vertical models.Vertical) (string, error) {
	profile, err := a.registry.Get(vertical)
	if err != nil {
		return "", err
	}

	counts, err := a.store.Counts(ctx)
	if err != nil {
		return "", err
	}
	names, err := a.store.DistinctEventNames(ctx)
	if err != nil {
		return "", err
	}
	minSignup, maxSignup, ok, err := a.store.SignupRange(ctx)
	if err != nil {
		return "", err
	}
	hours, err := a.store.HourlyEventCounts(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product vertical: %s\n\n", vertical)
	b.WriteString("Tables:\n")
	b.WriteString("  users(user_id, signup_at, country, channel)\n")
	b.WriteString("  sessions(session_id, user_id, started_at, device)\n")
	b.WriteString("  events(event_id, user_id, session_id, event_time, event_name)\n")
	if profile.HasOrders() {
		b.WriteString("  orders(order_id, user_id, order_time, amount)\n")
	}
	fmt.Fprintf(&b, "\nRow counts: users=%d sessions=%d events=%d orders=%d\n",
		counts.Users, counts.Sessions, counts.Events, counts.Orders)
	if ok {
		fmt.Fprintf(&b, "Signup range: %s to %s\n",
			minSignup.Format("2006-01-02"), maxSignup.Format("2006-01-02"))
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "Event names (most frequent first): %s\n", strings.Join(names, ", "))
	}
	if len(hours) > 0 {
		peak := hours[0]
		for _, h := range hours[1:] {
			if h.Count > peak.Count {
				peak = h
			}
		}
		fmt.Fprintf(&b, "Busiest hour of day: %02d:00 (%d events across %d active hours)\n",
			peak.Hour, peak.Count, len(hours))
	}
	fmt.Fprintf(&b, "Funnel order: %s\n", strings.Join(profile.FunnelSteps, " -> "))
	return b.String(), nil
}

func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
