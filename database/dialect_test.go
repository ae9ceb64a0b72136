package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRebind(t *testing.T) {
	d, err := DialectFor("postgres")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM events WHERE event_name = $1 AND user_id = $2",
		d.Rebind("SELECT * FROM events WHERE event_name = ? AND user_id = ?"))
	assert.Equal(t, "SELECT 1", d.Rebind("SELECT 1"))
}

func TestSQLiteRebindIsIdentity(t *testing.T) {
	d, err := DialectFor("sqlite3")
	require.NoError(t, err)

	q := "DELETE FROM events WHERE event_name = ? AND user_id = ?"
	assert.Equal(t, q, d.Rebind(q))
}

func TestDialectExpressions(t *testing.T) {
	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	lite, err := DialectFor("sqlite3")
	require.NoError(t, err)

	assert.Equal(t, "EXTRACT(HOUR FROM event_time)::int", pg.HourOf("event_time"))
	assert.Equal(t, "CAST(strftime('%H', event_time) AS INTEGER)", lite.HourOf("event_time"))

	assert.Equal(t, "signup_at + INTERVAL '7 days'", pg.AddDays("signup_at", 7))
	assert.Equal(t, "datetime(signup_at, '+7 days')", lite.AddDays("signup_at", 7))

	assert.True(t, pg.SupportsCopy())
	assert.False(t, lite.SupportsCopy())
}

func TestTruncateStatements(t *testing.T) {
	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	lite, err := DialectFor("sqlite3")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"TRUNCATE TABLE orders, events, sessions, users RESTART IDENTITY CASCADE"},
		pg.TruncateStmts("orders", "events", "sessions", "users"))
	assert.Equal(t,
		[]string{"DELETE FROM orders", "DELETE FROM events", "DELETE FROM sessions", "DELETE FROM users"},
		lite.TruncateStmts("orders", "events", "sessions", "users"))
}

func TestDialectForUnknownDriver(t *testing.T) {
	_, err := DialectFor("oracle")
	require.Error(t, err)
}
