package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcamp/datagen/logger"
	"sqlcamp/datagen/models"
)

func fixtureDataset(users, eventsPerUser int) ([]models.User, []models.Session, []models.Event, []models.Order) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var us []models.User
	var ss []models.Session
	var es []models.Event
	var os []models.Order
	for i := 0; i < users; i++ {
		u := models.User{
			UserID:   fmt.Sprintf("u%04d", i),
			SignupAt: base.Add(time.Duration(i) * time.Hour),
			Country:  "US",
			Channel:  "organic",
		}
		us = append(us, u)

		s := models.Session{
			SessionID: fmt.Sprintf("s%04d", i),
			UserID:    u.UserID,
			StartedAt: u.SignupAt.Add(30 * time.Minute),
			Device:    "desktop",
		}
		ss = append(ss, s)

		for j := 0; j < eventsPerUser; j++ {
			name := "page_view"
			if j == eventsPerUser-1 {
				name = "purchase"
			}
			es = append(es, models.Event{
				EventID:   fmt.Sprintf("e%04d-%02d", i, j),
				UserID:    u.UserID,
				SessionID: s.SessionID,
				EventTime: s.StartedAt.Add(time.Duration(j) * time.Minute),
				EventName: name,
			})
		}
		os = append(os, models.Order{
			OrderID:   fmt.Sprintf("o%04d", i),
			UserID:    u.UserID,
			OrderTime: s.StartedAt.Add(time.Duration(eventsPerUser) * time.Minute),
			Amount:    19.99,
		})
	}
	return us, ss, es, os
}

func loadFixture(t *testing.T, s *DatasetStore, users, eventsPerUser int) {
	t.Helper()
	us, ss, es, os := fixtureDataset(users, eventsPerUser)
	version := &models.DatasetVersion{
		CreatedAt:   time.Now().UTC(),
		ProductType: models.VerticalCommerce,
		SignupMin:   us[0].SignupAt,
		SignupMax:   us[len(us)-1].SignupAt,
		UserCount:   len(us),
		EventCount:  len(es),
	}
	require.NoError(t, s.LoadDataset(context.Background(), version, us, ss, es, os))
}

func TestLoadDatasetAndCounts(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	loadFixture(t, s, 25, 4)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 25, Sessions: 25, Events: 100, Orders: 25}, counts)
}

// Crossing the batch chunk boundary must not drop or duplicate rows.
func TestLoadDatasetLargeBatchChunks(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	loadFixture(t, s, 100, 6)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600, counts.Events)
}

func TestLoadDatasetReplacesPreviousCycle(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	loadFixture(t, s, 50, 3)
	loadFixture(t, s, 10, 3)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, counts.Users)
	assert.Equal(t, 30, counts.Events)

	// Version history survives regeneration.
	versions, err := s.ListVersions(context.Background(), models.VerticalCommerce, 10)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, 10, versions[0].UserCount, "most recent first")
}

func TestSignupRange(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	_, _, ok, err := s.SignupRange(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "empty table has no range")

	loadFixture(t, s, 5, 2)

	min, max, ok, err := s.SignupRange(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, max.After(min))
	assert.Equal(t, 2025, min.Year())
}

func TestDistinctEventNamesOrderedByFrequency(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	loadFixture(t, s, 10, 4) // 30 page_view, 10 purchase

	names, err := s.DistinctEventNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"page_view", "purchase"}, names)
}

func TestHourlyEventCounts(t *testing.T) {
	client := newTestClient(t)
	s := NewDatasetStore(client, logger.Nop(), 0)

	loadFixture(t, s, 6, 2)

	buckets, err := s.HourlyEventCounts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, buckets)

	total := 0
	for _, b := range buckets {
		assert.GreaterOrEqual(t, b.Hour, 0)
		assert.Less(t, b.Hour, 24)
		total += b.Count
	}
	assert.Equal(t, 12, total)
}
