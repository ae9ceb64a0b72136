package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect abstracts the handful of SQL constructs that differ between the
// production Postgres target and the in-process SQLite engine: placeholder
// style, server-side random sampling, hour extraction, day arithmetic and
// truncation. Queries throughout the store and anomaly packages are written
// with '?' placeholders and passed through Rebind.
type Dialect interface {
	Name() string
	// Rebind rewrites '?' placeholders into the engine's native style.
	Rebind(query string) string
	// RandomLT returns a predicate that is true for a uniformly random
	// fraction of rows; the fraction is bound as the next '?' argument.
	RandomLT() string
	// HourOf returns an integer-typed expression for the hour of day of a
	// timestamp column.
	HourOf(col string) string
	// AddDays returns an expression for a timestamp column shifted forward
	// by a whole number of days.
	AddDays(col string, days int) string
	// TruncateStmts returns the statements that empty the given tables.
	// Tables are listed child-first.
	TruncateStmts(tables ...string) []string
	// SupportsCopy reports whether the engine has a streaming bulk-copy
	// path (pq.CopyIn); engines without it always use batch inserts.
	SupportsCopy() bool
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) RandomLT() string { return "random() < ?" }

func (postgresDialect) HourOf(col string) string {
	return fmt.Sprintf("EXTRACT(HOUR FROM %s)::int", col)
}

func (postgresDialect) AddDays(col string, days int) string {
	return fmt.Sprintf("%s + INTERVAL '%d days'", col, days)
}

func (postgresDialect) TruncateStmts(tables ...string) []string {
	return []string{"TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"}
}

func (postgresDialect) SupportsCopy() bool { return true }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }

func (sqliteDialect) Rebind(query string) string { return query }

// random() yields a signed 64-bit integer; normalizing through float
// division avoids the integer-overflow edge of abs(random()).
func (sqliteDialect) RandomLT() string {
	return "((random() / 9223372036854775808.0) + 1.0) / 2.0 < ?"
}

func (sqliteDialect) HourOf(col string) string {
	return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", col)
}

func (sqliteDialect) AddDays(col string, days int) string {
	return fmt.Sprintf("datetime(%s, '+%d days')", col, days)
}

func (sqliteDialect) TruncateStmts(tables ...string) []string {
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, "DELETE FROM "+t)
	}
	return stmts
}

func (sqliteDialect) SupportsCopy() bool { return false }

// DialectFor returns the dialect matching a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect{}, nil
	case "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
