package utils

import (
	"time"

	"sqlcamp/datagen/models"
)

// ParseDate parses a YYYY-MM-DD query value, defaulting to today (UTC)
// when empty.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", s)
}

// ParseAnomalyKind resolves a kind name against the closed taxonomy.
func ParseAnomalyKind(s string) (models.AnomalyKind, bool) {
	for _, k := range models.AnomalyKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
