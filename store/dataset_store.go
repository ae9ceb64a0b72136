package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"sqlcamp/datagen/database"
	"sqlcamp/datagen/models"
)

// DatasetStore owns the four core tables and the dataset version history.
// All load statements for one cycle run inside a single transaction, so a
// failed load never leaves a partially visible dataset.
type DatasetStore struct {
	client        *database.Client
	log           *zap.SugaredLogger
	copyThreshold int
}

func NewDatasetStore(client *database.Client, log *zap.SugaredLogger, copyThreshold int) *DatasetStore {
	if copyThreshold <= 0 {
		copyThreshold = 5000
	}
	return &DatasetStore{client: client, log: log, copyThreshold: copyThreshold}
}

// Counts holds per-table row counts for summaries and sanity checks.
type Counts struct {
	Users    int `json:"users"`
	Sessions int `json:"sessions"`
	Events   int `json:"events"`
	Orders   int `json:"orders"`
}

// HourCount is one bucket of the hourly event histogram.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// LoadDataset truncates the core tables and loads the generated entities in
// foreign-key order, recording the dataset version in the same transaction.
// Collections must already be sorted by their temporal keys.
func (s *DatasetStore) LoadDataset(ctx context.Context, version *models.DatasetVersion,
	users []models.User, sessions []models.Session, events []models.Event, orders []models.Order) error {

	tx, err := s.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin load transaction: %v", models.ErrGenerationFailed, err)
	}
	defer tx.Rollback()

	// Child-first truncation keeps FK checks satisfied on engines that
	// validate during DELETE.
	for _, stmt := range s.client.Dialect.TruncateStmts("orders", "events", "sessions", "users") {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: truncate: %v", models.ErrGenerationFailed, err)
		}
	}

	userRows := make([][]interface{}, len(users))
	for i, u := range users {
		userRows[i] = []interface{}{u.UserID, u.SignupAt, u.Country, u.Channel}
	}
	if err := s.insertRows(ctx, tx, "users", []string{"user_id", "signup_at", "country", "channel"}, userRows); err != nil {
		return fmt.Errorf("%w: load users: %v", models.ErrGenerationFailed, err)
	}

	sessionRows := make([][]interface{}, len(sessions))
	for i, sess := range sessions {
		sessionRows[i] = []interface{}{sess.SessionID, sess.UserID, sess.StartedAt, sess.Device}
	}
	if err := s.insertRows(ctx, tx, "sessions", []string{"session_id", "user_id", "started_at", "device"}, sessionRows); err != nil {
		return fmt.Errorf("%w: load sessions: %v", models.ErrGenerationFailed, err)
	}

	eventRows := make([][]interface{}, len(events))
	for i, e := range events {
		eventRows[i] = []interface{}{e.EventID, e.UserID, e.SessionID, e.EventTime, e.EventName}
	}
	if err := s.insertRows(ctx, tx, "events", []string{"event_id", "user_id", "session_id", "event_time", "event_name"}, eventRows); err != nil {
		return fmt.Errorf("%w: load events: %v", models.ErrGenerationFailed, err)
	}

	orderRows := make([][]interface{}, len(orders))
	for i, o := range orders {
		orderRows[i] = []interface{}{o.OrderID, o.UserID, o.OrderTime, o.Amount}
	}
	if err := s.insertRows(ctx, tx, "orders", []string{"order_id", "user_id", "order_time", "amount"}, orderRows); err != nil {
		return fmt.Errorf("%w: load orders: %v", models.ErrGenerationFailed, err)
	}

	versionQuery := s.client.Dialect.Rebind(`
		INSERT INTO dataset_versions (created_at, product_type, signup_min, signup_max, user_count, event_count)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, versionQuery,
		version.CreatedAt, string(version.ProductType), version.SignupMin, version.SignupMax,
		version.UserCount, version.EventCount); err != nil {
		return fmt.Errorf("%w: record dataset version: %v", models.ErrGenerationFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit load: %v", models.ErrGenerationFailed, err)
	}

	s.log.Infow("dataset loaded",
		"vertical", version.ProductType,
		"users", len(users), "sessions", len(sessions),
		"events", len(events), "orders", len(orders))
	return nil
}

// insertRows picks the fastest load path the engine offers: pq's streaming
// COPY above the threshold, chunked multi-row INSERT below it.
func (s *DatasetStore) insertRows(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if s.client.Dialect.SupportsCopy() && len(rows) > s.copyThreshold {
		return s.copyRows(ctx, tx, table, cols, rows)
	}
	return s.batchInsert(ctx, tx, table, cols, rows)
}

func (s *DatasetStore) copyRows(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]interface{}) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, cols...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer copy row for %s: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy for %s: %w", table, err)
	}
	return stmt.Close()
}

func (s *DatasetStore) batchInsert(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]interface{}) error {
	// SQLite caps bound variables at 999 by default; stay under it.
	chunk := 900 / len(cols)
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		values := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(cols))
		for i, row := range batch {
			values[i] = placeholder
			args = append(args, row...)
		}
		query := s.client.Dialect.Rebind(fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ", "), strings.Join(values, ", ")))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to batch insert into %s: %w", table, err)
		}
	}
	return nil
}

func (s *DatasetStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"users", &c.Users},
		{"sessions", &c.Sessions},
		{"events", &c.Events},
		{"orders", &c.Orders},
	} {
		if err := s.client.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", q.table, err)
		}
	}
	return c, nil
}

// SignupRange returns the min and max signup timestamps; ok is false on an
// empty users table. Aggregates come back without a declared column type
// on SQLite, so the values are scanned as strings and parsed.
func (s *DatasetStore) SignupRange(ctx context.Context) (min, max time.Time, ok bool, err error) {
	var nmin, nmax sql.NullString
	err = s.client.DB.QueryRowContext(ctx, "SELECT MIN(signup_at), MAX(signup_at) FROM users").Scan(&nmin, &nmax)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to query signup range: %w", err)
	}
	if !nmin.Valid || !nmax.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	min, err = parseDBTime(nmin.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	max, err = parseDBTime(nmax.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return min, max, true, nil
}

// parseDBTime handles the timestamp text shapes the two engines produce
// when a value is read through a string scan.
func parseDBTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// DistinctEventNames lists the event vocabulary actually present, most
// frequent first.
func (s *DatasetStore) DistinctEventNames(ctx context.Context) ([]string, error) {
	rows, err := s.client.DB.QueryContext(ctx, `
		SELECT event_name, COUNT(*) AS n
		FROM events
		GROUP BY event_name
		ORDER BY n DESC, event_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event name row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HourlyEventCounts buckets events by hour of day for the data summary.
// Gap anomalies show up here as empty or depressed buckets.
func (s *DatasetStore) HourlyEventCounts(ctx context.Context) ([]HourCount, error) {
	hourExpr := s.client.Dialect.HourOf("event_time")
	rows, err := s.client.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s AS hour_bucket, COUNT(*) AS n
		FROM events
		GROUP BY hour_bucket
		ORDER BY hour_bucket ASC`, hourExpr))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly event counts: %w", err)
	}
	defer rows.Close()

	var out []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly count row: %w", err)
		}
		out = append(out, hc)
	}
	return out, rows.Err()
}

// ListVersions returns the most recent dataset versions for a vertical.
func (s *DatasetStore) ListVersions(ctx context.Context, vertical models.Vertical, limit int) ([]models.DatasetVersion, error) {
	if limit <= 0 {
		limit = 10
	}
	query := s.client.Dialect.Rebind(`
		SELECT id, created_at, product_type, signup_min, signup_max, user_count, event_count
		FROM dataset_versions
		WHERE product_type = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)
	rows, err := s.client.DB.QueryContext(ctx, query, string(vertical), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset versions: %w", err)
	}
	defer rows.Close()

	var out []models.DatasetVersion
	for rows.Next() {
		var v models.DatasetVersion
		var pt string
		if err := rows.Scan(&v.ID, &v.CreatedAt, &pt, &v.SignupMin, &v.SignupMax, &v.UserCount, &v.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan dataset version row: %w", err)
		}
		v.ProductType = models.Vertical(pt)
		out = append(out, v)
	}
	return out, rows.Err()
}
