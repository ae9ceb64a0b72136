package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB opens an in-process SQLite database. Used by the test suite
// and by local single-file deployments. Foreign-key enforcement must be on
// for anomaly mutations to cascade the same way Postgres does.
func NewSQLiteDB(path string) (*Client, error) {
	if path == "" {
		path = "file:sqlcamp.db?cache=shared"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite3", path+sep+"_fk=1&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	// A single writer connection; SQLite serializes writes anyway and a
	// shared in-memory database disappears when its last conn closes.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to sqlite (ping failed): %w", err)
	}

	return &Client{DB: db, Dialect: sqliteDialect{}}, nil
}
