package anomaly

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sqlcamp/datagen/models"
	"sqlcamp/datagen/profiles"
)

// The eight mutation operations. Each runs on the caller's transaction,
// reports rows affected by its primary delete (zero means the predicate
// missed), and leaves the dataset referentially consistent: parent deletes
// cascade through the schema, and purchase-event deletes are followed by a
// cleanup of orders that lost their backing event.

// channelConversionDrop thins the vertical's conversion events for one
// acquisition channel. The target event is definitional for this kind, so a
// forced EventName is not consulted; force the channel and rate instead.
func (in *Injector) channelConversionDrop(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		Channel:   in.pickChannel(forced),
		EventName: profile.ConversionEvent,
		DropRate:  in.dropRate(forced),
	}

	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE event_name = ?
		AND user_id IN (SELECT user_id FROM users WHERE channel = ?)
		AND %s`, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.EventName, params.Channel, params.DropRate)
	if err != nil || affected == 0 {
		return params, affected, err
	}

	if profile.HasOrders() {
		if err := in.deleteUnsupportedOrders(ctx, tx, profile, params.Channel); err != nil {
			return params, 0, err
		}
	}
	return params, affected, nil
}

func (in *Injector) deviceIssue(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		Device:    in.pickDevice(forced),
		EventName: in.pickSafeEvent(profile, forced),
		DropRate:  in.dropRate(forced),
	}

	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE event_name = ?
		AND session_id IN (SELECT session_id FROM sessions WHERE device = ?)
		AND %s`, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.EventName, params.Device, params.DropRate)
	return params, affected, err
}

func (in *Injector) timeBasedAnomaly(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		EventName: in.pickSafeEvent(profile, forced),
		DropRate:  in.dropRate(forced),
	}
	params.GapStart, params.GapHours = in.gapWindow(forced, 1, 2)

	hour := d.HourOf("event_time")
	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE event_name = ?
		AND %s >= ? AND %s < ?
		AND %s`, hour, hour, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query,
		params.EventName, params.GapStart, params.GapStart+params.GapHours, params.DropRate)
	return params, affected, err
}

func (in *Injector) countryBehaviorChange(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		Country:   in.pickCountry(forced),
		EventName: in.pickSafeEvent(profile, forced),
		DropRate:  in.dropRate(forced),
	}

	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE event_name = ?
		AND user_id IN (SELECT user_id FROM users WHERE country = ?)
		AND %s`, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.EventName, params.Country, params.DropRate)
	return params, affected, err
}

func (in *Injector) dataCollectionGap(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	var params models.AnomalyParams
	params.GapStart, params.GapHours = in.gapWindow(forced, 2, 3)

	hour := d.HourOf("event_time")
	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE %s >= ? AND %s < ?`, hour, hour))
	affected, err := execAffected(ctx, tx, query, params.GapStart, params.GapStart+params.GapHours)
	if err != nil || affected == 0 {
		return params, affected, err
	}

	// The wipe may have removed purchase events backing existing orders.
	if profile.HasOrders() {
		if err := in.deleteUnsupportedOrders(ctx, tx, profile, ""); err != nil {
			return params, 0, err
		}
	}
	return params, affected, nil
}

func (in *Injector) retentionDrop(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		CohortDays: 3 + in.rng.Intn(5),
		DropRate:   in.dropRate(forced),
	}
	if forced != nil && forced.CohortDays > 0 {
		params.CohortDays = forced.CohortDays
	}

	// The cohort is the first CohortDays of the signup window. Post-day-1
	// sessions of that cohort go away; the schema cascades their events
	// so none orphan. An empty users table falls out as zero rows.
	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM sessions
		WHERE session_id IN (
			SELECT s.session_id
			FROM sessions s
			JOIN users u ON u.user_id = s.user_id
			WHERE u.signup_at < %s
			AND s.started_at >= %s
			AND %s
		)`,
		d.AddDays("(SELECT MIN(signup_at) FROM users)", params.CohortDays),
		d.AddDays("u.signup_at", 1),
		d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.DropRate)
	if err != nil || affected == 0 {
		return params, affected, err
	}

	// The cascade took the sessions' events with them, possibly including
	// purchase-class events behind existing orders.
	if profile.HasOrders() {
		if err := in.deleteUnsupportedOrders(ctx, tx, profile, ""); err != nil {
			return params, 0, err
		}
	}
	return params, affected, nil
}

func (in *Injector) channelEfficiencyDecline(ctx context.Context, tx *sql.Tx, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		Channel:  in.pickChannel(forced),
		DropRate: in.dropRate(forced),
	}

	// Orders disappear, sessions stay: conversion diverges while the
	// traffic denominator holds steady.
	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM orders
		WHERE user_id IN (SELECT user_id FROM users WHERE channel = ?)
		AND %s`, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.Channel, params.DropRate)
	return params, affected, err
}

func (in *Injector) signupConversionDrop(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, forced *models.AnomalyParams) (models.AnomalyParams, int64, error) {
	d := in.client.Dialect
	params := models.AnomalyParams{
		FunnelStep: in.pickMiddleStep(profile, forced),
		DropRate:   in.dropRate(forced),
	}

	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM events
		WHERE event_name = ?
		AND %s`, d.RandomLT()))
	affected, err := execAffected(ctx, tx, query, params.FunnelStep, params.DropRate)
	if err != nil || affected == 0 {
		return params, affected, err
	}

	// A fraction of users who never got past the step vanish entirely;
	// user deletes cascade to sessions, events and orders.
	userQuery := d.Rebind(fmt.Sprintf(`
		DELETE FROM users
		WHERE NOT EXISTS (
			SELECT 1 FROM events e
			WHERE e.user_id = users.user_id AND e.event_name = ?
		)
		AND %s`, d.RandomLT()))
	if _, err := execAffected(ctx, tx, userQuery, params.FunnelStep, params.DropRate*0.3); err != nil {
		return params, 0, err
	}
	return params, affected, nil
}

// pickMiddleStep draws an interior, non-purchase funnel step: deleting the
// entry step hides the whole funnel and deleting a purchase-class step
// would strand orders.
func (in *Injector) pickMiddleStep(profile *profiles.Profile, forced *models.AnomalyParams) string {
	if forced != nil && forced.FunnelStep != "" {
		return forced.FunnelStep
	}
	var candidates []string
	for _, step := range profile.FunnelSteps[1:] {
		if !profile.IsOrderEvent(step) {
			candidates = append(candidates, step)
		}
	}
	if len(candidates) == 0 {
		candidates = profile.FunnelSteps[1:]
	}
	return candidates[in.rng.Intn(len(candidates))]
}

// deleteUnsupportedOrders removes orders whose user no longer has any
// purchase-class event at or before the order time, optionally scoped to
// one acquisition channel.
func (in *Injector) deleteUnsupportedOrders(ctx context.Context, tx *sql.Tx, profile *profiles.Profile, channel string) error {
	d := in.client.Dialect

	names := make([]string, len(profile.OrderEvents))
	args := make([]interface{}, 0, len(profile.OrderEvents)+1)
	if channel != "" {
		args = append(args, channel)
	}
	for i, name := range profile.OrderEvents {
		names[i] = "?"
		args = append(args, name)
	}

	scope := ""
	if channel != "" {
		scope = "user_id IN (SELECT user_id FROM users WHERE channel = ?) AND "
	}
	query := d.Rebind(fmt.Sprintf(`
		DELETE FROM orders
		WHERE %sNOT EXISTS (
			SELECT 1 FROM events e
			WHERE e.user_id = orders.user_id
			AND e.event_name IN (%s)
			AND e.event_time <= orders.order_time
		)`, scope, strings.Join(names, ", ")))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clean up unsupported orders: %w", err)
	}
	return nil
}
