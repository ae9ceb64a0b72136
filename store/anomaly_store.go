package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sqlcamp/datagen/database"
	"sqlcamp/datagen/models"
)

// AnomalyStore persists anomaly metadata. Records are written once after a
// successful injection and read by the problem-authoring collaborator;
// they survive dataset regeneration.
type AnomalyStore struct {
	client *database.Client
}

func NewAnomalyStore(client *database.Client) *AnomalyStore {
	return &AnomalyStore{client: client}
}

const problemDateLayout = "2006-01-02"

// Save inserts a record and returns its id.
func (s *AnomalyStore) Save(ctx context.Context, rec *models.AnomalyRecord) (int64, error) {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal params: %v", models.ErrMetadataPersistence, err)
	}
	var hints []byte
	if len(rec.Hints) > 0 {
		hints, err = json.Marshal(rec.Hints)
		if err != nil {
			return 0, fmt.Errorf("%w: marshal hints: %v", models.ErrMetadataPersistence, err)
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	cols := `problem_date, product_type, anomaly_type, params, affected_scope,
		description, hint, hints, root_cause, created_at`
	args := []interface{}{
		rec.ProblemDate.UTC().Format(problemDateLayout),
		string(rec.ProductType),
		string(rec.AnomalyType),
		string(params),
		rec.AffectedScope,
		rec.Description,
		rec.Hint,
		nullableString(hints),
		nullString(rec.RootCause),
		rec.CreatedAt,
	}

	if s.client.Dialect.Name() == "postgres" {
		query := s.client.Dialect.Rebind(fmt.Sprintf(
			"INSERT INTO anomaly_metadata (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id", cols))
		var id int64
		if err := s.client.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("%w: %v", models.ErrMetadataPersistence, err)
		}
		rec.ID = id
		return id, nil
	}

	query := fmt.Sprintf("INSERT INTO anomaly_metadata (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", cols)
	res, err := s.client.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrMetadataPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrMetadataPersistence, err)
	}
	rec.ID = id
	return id, nil
}

// GetLatest returns the most recently created record for a vertical and
// date, or nil when none exists. Absence is a legitimate state: normal-data
// problem days have no anomaly.
func (s *AnomalyStore) GetLatest(ctx context.Context, vertical models.Vertical, date time.Time) (*models.AnomalyRecord, error) {
	query := s.client.Dialect.Rebind(`
		SELECT id, problem_date, product_type, anomaly_type, params, affected_scope,
			description, hint, hints, root_cause, created_at
		FROM anomaly_metadata
		WHERE product_type = ? AND problem_date = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	row := s.client.DB.QueryRowContext(ctx, query, string(vertical), date.UTC().Format(problemDateLayout))

	var rec models.AnomalyRecord
	var problemDate, productType, anomalyType, params string
	var hints, rootCause sql.NullString
	err := row.Scan(&rec.ID, &problemDate, &productType, &anomalyType, &params,
		&rec.AffectedScope, &rec.Description, &rec.Hint, &hints, &rootCause, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest anomaly record: %w", err)
	}

	rec.ProblemDate, err = time.Parse(problemDateLayout, problemDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored problem date %q: %w", problemDate, err)
	}
	rec.ProductType = models.Vertical(productType)
	rec.AnomalyType = models.AnomalyKind(anomalyType)
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("failed to decode stored anomaly params: %w", err)
	}
	if hints.Valid && hints.String != "" {
		if err := json.Unmarshal([]byte(hints.String), &rec.Hints); err != nil {
			return nil, fmt.Errorf("failed to decode stored anomaly hints: %w", err)
		}
	}
	if rootCause.Valid {
		rec.RootCause = rootCause.String
	}
	return &rec, nil
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
