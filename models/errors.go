package models

import "errors"

// Error taxonomy for the generation core. Callers match with errors.Is.
var (
	// ErrGenerationFailed marks a bulk-load failure after truncation.
	// Fatal for the cycle; retry policy belongs to the scheduler.
	ErrGenerationFailed = errors.New("dataset generation failed")

	// ErrNoRowsMatched marks an injection whose target predicate matched
	// zero rows. Non-fatal: the injector retries with a different draw.
	ErrNoRowsMatched = errors.New("anomaly predicate matched no rows")

	// ErrMetadataPersistence marks a failed anomaly-metadata write after a
	// successful mutation. The mutation is not rolled back.
	ErrMetadataPersistence = errors.New("anomaly metadata write failed")
)
