package store

import (
	"context"
	"fmt"

	"sqlcamp/datagen/database"
)

// EnsureSchema creates the core tables if they do not exist. Production
// schema management lives outside this service; this bootstrap covers local
// development and the test suite. The ON DELETE CASCADE clauses are load
// bearing: anomaly mutations rely on the storage layer to keep children
// from orphaning when a parent row is deleted.
func EnsureSchema(ctx context.Context, client *database.Client) error {
	serial := "BIGSERIAL PRIMARY KEY"
	ts := "TIMESTAMPTZ"
	if client.Dialect.Name() == "sqlite3" {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "TIMESTAMP"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			user_id   TEXT PRIMARY KEY,
			signup_at %s NOT NULL,
			country   TEXT NOT NULL,
			channel   TEXT NOT NULL
		)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			started_at %s NOT NULL,
			device     TEXT NOT NULL
		)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
			event_id   TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
			event_time %s NOT NULL,
			event_name TEXT NOT NULL
		)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
			order_id   TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			order_time %s NOT NULL,
			amount     REAL NOT NULL
		)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS dataset_versions (
			id           %s,
			created_at   %s NOT NULL,
			product_type TEXT NOT NULL,
			signup_min   %s NOT NULL,
			signup_max   %s NOT NULL,
			user_count   INTEGER NOT NULL,
			event_count  INTEGER NOT NULL
		)`, serial, ts, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS anomaly_metadata (
			id             %s,
			problem_date   TEXT NOT NULL,
			product_type   TEXT NOT NULL,
			anomaly_type   TEXT NOT NULL,
			params         TEXT NOT NULL,
			affected_scope TEXT NOT NULL,
			description    TEXT NOT NULL,
			hint           TEXT NOT NULL,
			hints          TEXT,
			root_cause     TEXT,
			created_at     %s NOT NULL
		)`, serial, ts),
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events(event_name)`,
		`CREATE INDEX IF NOT EXISTS idx_events_time ON events(event_time)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_anomaly_lookup ON anomaly_metadata(problem_date, product_type, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := client.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
