package anomaly

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"sqlcamp/datagen/database"
	"sqlcamp/datagen/models"
	"sqlcamp/datagen/profiles"
	"sqlcamp/datagen/store"
)

// maxAttempts bounds re-selection when a mutation's predicate matches no
// rows (for example, no user of the drawn channel exists).
const maxAttempts = 3

// Options steer one injection. Zero value means: pick a kind uniformly
// from the vertical's allowed subset and draw parameters. Tests force both.
type Options struct {
	ForceKind   *models.AnomalyKind
	ForceParams *models.AnomalyParams
}

// Injector runs strictly after a completed generation cycle and mutates
// the persisted dataset in place. Every mutation executes inside one
// transaction; a parent delete relies on the schema's ON DELETE CASCADE to
// keep children from orphaning.
type Injector struct {
	client   *database.Client
	registry *profiles.Registry
	metadata *store.AnomalyStore
	log      *zap.SugaredLogger
	rng      *rand.Rand
}

func NewInjector(client *database.Client, registry *profiles.Registry, metadata *store.AnomalyStore, log *zap.SugaredLogger, seed int64) *Injector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Injector{
		client:   client,
		registry: registry,
		metadata: metadata,
		log:      log,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Inject selects and applies one anomaly for the vertical and date,
// persists its metadata, and returns the record. A zero-row predicate is
// retried with a fresh draw up to maxAttempts times unless the kind was
// forced. A metadata write failure is logged and surfaced on the record's
// behalf as a warning only: the destructive mutation cannot be reverted.
func (in *Injector) Inject(ctx context.Context, vertical models.Vertical, date time.Time, opts Options) (*models.AnomalyRecord, error) {
	profile, err := in.registry.Get(vertical)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		kind := in.pickKind(profile, opts.ForceKind)

		rec, err := in.mutate(ctx, profile, kind, date, opts.ForceParams)
		if errors.Is(err, models.ErrNoRowsMatched) {
			in.log.Warnw("anomaly predicate matched no rows",
				"vertical", vertical, "kind", kind, "attempt", attempt)
			if opts.ForceKind != nil {
				return nil, fmt.Errorf("forced anomaly %s: %w", kind, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, err := in.metadata.Save(ctx, rec); err != nil {
			// The dataset mutation already committed; losing the
			// metadata is bad but not worth pretending to roll back.
			in.log.Warnw("anomaly metadata write failed after successful mutation",
				"vertical", vertical, "kind", kind, "error", err)
		}

		in.log.Infow("anomaly injected",
			"vertical", vertical, "kind", kind, "scope", rec.AffectedScope)
		return rec, nil
	}

	return nil, fmt.Errorf("anomaly injection failed after %d attempts: %w", maxAttempts, models.ErrNoRowsMatched)
}

func (in *Injector) pickKind(profile *profiles.Profile, forced *models.AnomalyKind) models.AnomalyKind {
	if forced != nil {
		return *forced
	}
	return profile.AllowedKinds[in.rng.Intn(len(profile.AllowedKinds))]
}

// mutate applies one kind inside a transaction. The transaction only
// commits when the primary predicate deleted at least one row.
func (in *Injector) mutate(ctx context.Context, profile *profiles.Profile, kind models.AnomalyKind, date time.Time, forced *models.AnomalyParams) (*models.AnomalyRecord, error) {
	tx, err := in.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin injection transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		params   models.AnomalyParams
		affected int64
	)
	switch kind {
	case models.AnomalyChannelConversionDrop:
		params, affected, err = in.channelConversionDrop(ctx, tx, profile, forced)
	case models.AnomalyDeviceIssue:
		params, affected, err = in.deviceIssue(ctx, tx, profile, forced)
	case models.AnomalyTimeBased:
		params, affected, err = in.timeBasedAnomaly(ctx, tx, profile, forced)
	case models.AnomalyCountryBehaviorChange:
		params, affected, err = in.countryBehaviorChange(ctx, tx, profile, forced)
	case models.AnomalyDataCollectionGap:
		params, affected, err = in.dataCollectionGap(ctx, tx, profile, forced)
	case models.AnomalyRetentionDrop:
		params, affected, err = in.retentionDrop(ctx, tx, profile, forced)
	case models.AnomalyChannelEfficiencyDecline:
		params, affected, err = in.channelEfficiencyDecline(ctx, tx, forced)
	case models.AnomalySignupConversionDrop:
		params, affected, err = in.signupConversionDrop(ctx, tx, profile, forced)
	default:
		return nil, fmt.Errorf("unknown anomaly kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, models.ErrNoRowsMatched
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit injection: %w", err)
	}
	return buildRecord(profile.Vertical, kind, date, params), nil
}

// gapWindow draws the hour-of-day window for a gap-style mutation. A forced
// GapHours fixes the window length and makes the forced GapStart
// authoritative, hour 0 included; windows are clamped to fit the day.
func (in *Injector) gapWindow(forced *models.AnomalyParams, minHours, maxHours int) (start, hours int) {
	if forced != nil && forced.GapHours > 0 {
		hours = forced.GapHours
		if hours > 24 {
			hours = 24
		}
		start = forced.GapStart
		if start < 0 {
			start = 0
		}
		if start > 24-hours {
			start = 24 - hours
		}
		return start, hours
	}

	hours = minHours + in.rng.Intn(maxHours-minHours+1)
	start = in.rng.Intn(24 - hours)
	if forced != nil && forced.GapStart > 0 {
		start = forced.GapStart
		if start > 24-hours {
			start = 24 - hours
		}
	}
	return start, hours
}

// dropRate draws the default partial-drop band. A full wipe would read as
// an outage rather than a divergence, so the band stays under 1.
func (in *Injector) dropRate(forced *models.AnomalyParams) float64 {
	if forced != nil && forced.DropRate > 0 {
		return forced.DropRate
	}
	return 0.5 + in.rng.Float64()*0.4
}

func (in *Injector) pickChannel(forced *models.AnomalyParams) string {
	if forced != nil && forced.Channel != "" {
		return forced.Channel
	}
	return profiles.Channels[in.rng.Intn(len(profiles.Channels))]
}

func (in *Injector) pickDevice(forced *models.AnomalyParams) string {
	if forced != nil && forced.Device != "" {
		return forced.Device
	}
	return profiles.Devices[in.rng.Intn(len(profiles.Devices))]
}

func (in *Injector) pickCountry(forced *models.AnomalyParams) string {
	if forced != nil && forced.Country != "" {
		return forced.Country
	}
	return profiles.Countries[in.rng.Intn(len(profiles.Countries))]
}

// pickSafeEvent draws a funnel step that is not a purchase-class event, so
// event-level drops never strand orders without their backing purchase.
func (in *Injector) pickSafeEvent(profile *profiles.Profile, forced *models.AnomalyParams) string {
	if forced != nil && forced.EventName != "" {
		return forced.EventName
	}
	var candidates []string
	for _, step := range profile.FunnelSteps {
		if !profile.IsOrderEvent(step) {
			candidates = append(candidates, step)
		}
	}
	if len(candidates) == 0 {
		candidates = profile.FunnelSteps
	}
	return candidates[in.rng.Intn(len(candidates))]
}

func execAffected(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("anomaly mutation failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("anomaly mutation rows-affected: %w", err)
	}
	return n, nil
}
