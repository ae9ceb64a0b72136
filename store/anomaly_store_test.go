package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcamp/datagen/database"
	"sqlcamp/datagen/models"
)

func newTestClient(t *testing.T) *database.Client {
	t.Helper()
	client, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, EnsureSchema(context.Background(), client))
	return client
}

func sampleRecord(date time.Time) *models.AnomalyRecord {
	return &models.AnomalyRecord{
		ProblemDate: date,
		ProductType: models.VerticalCommerce,
		AnomalyType: models.AnomalyDeviceIssue,
		Params: models.AnomalyParams{
			Device:    "mobile",
			EventName: "add_to_cart",
			DropRate:  0.7,
		},
		AffectedScope: `sessions on "mobile" devices`,
		Description:   "Mobile sessions stopped recording most add_to_cart events.",
		Hint:          "Compare per-device event rates.",
		Hints:         []string{"one", "two", "three"},
		RootCause:     "A release broke the cart button on mobile.",
	}
}

func TestAnomalyStoreSaveAndGetLatest(t *testing.T) {
	client := newTestClient(t)
	s := NewAnomalyStore(client)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	got, err := s.GetLatest(context.Background(), models.VerticalCommerce, date)
	require.NoError(t, err)
	assert.Nil(t, got, "absence is a legitimate, non-error state")

	rec := sampleRecord(date)
	id, err := s.Save(context.Background(), rec)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err = s.GetLatest(context.Background(), models.VerticalCommerce, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.AnomalyType, got.AnomalyType)
	assert.Equal(t, rec.Params, got.Params)
	assert.Equal(t, rec.Hints, got.Hints)
	assert.Equal(t, rec.RootCause, got.RootCause)
	assert.Equal(t, date, got.ProblemDate)
}

func TestAnomalyStoreMostRecentWins(t *testing.T) {
	client := newTestClient(t)
	s := NewAnomalyStore(client)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	first := sampleRecord(date)
	first.CreatedAt = time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC)
	_, err := s.Save(context.Background(), first)
	require.NoError(t, err)

	second := sampleRecord(date)
	second.AnomalyType = models.AnomalyDataCollectionGap
	second.Params = models.AnomalyParams{GapStart: 4, GapHours: 2}
	second.CreatedAt = time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC)
	_, err = s.Save(context.Background(), second)
	require.NoError(t, err)

	got, err := s.GetLatest(context.Background(), models.VerticalCommerce, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.AnomalyDataCollectionGap, got.AnomalyType)
}

func TestAnomalyStoreScopedByVerticalAndDate(t *testing.T) {
	client := newTestClient(t)
	s := NewAnomalyStore(client)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Save(context.Background(), sampleRecord(date))
	require.NoError(t, err)

	got, err := s.GetLatest(context.Background(), models.VerticalFintech, date)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetLatest(context.Background(), models.VerticalCommerce, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnomalyStoreOptionalFields(t *testing.T) {
	client := newTestClient(t)
	s := NewAnomalyStore(client)
	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	rec := sampleRecord(date)
	rec.Hints = nil
	rec.RootCause = ""
	_, err := s.Save(context.Background(), rec)
	require.NoError(t, err)

	got, err := s.GetLatest(context.Background(), models.VerticalCommerce, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Hints)
	assert.Empty(t, got.RootCause)
}
