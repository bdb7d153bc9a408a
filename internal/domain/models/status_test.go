package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestDeriveDisplayStatus_PastExpiryForcesExpired(t *testing.T) {
	for _, stored := range []models.BatchStatus{models.BatchStatusActive, models.BatchStatusEmpty, models.BatchStatusExpired} {
		status, err := models.DeriveDisplayStatus(stored, strPtr("2024-05-31T23:59:59"), now)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusExpired, status, "stored %s", stored)
	}
}

func TestDeriveDisplayStatus_RecalledWins(t *testing.T) {
	for _, expiry := range []*string{nil, strPtr("2020-01-01"), strPtr("2030-01-01T00:00:00"), strPtr("garbage")} {
		status, err := models.DeriveDisplayStatus(models.BatchStatusRecalled, expiry, now)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusRecalled, status)
	}
}

func TestDeriveDisplayStatus_NoOrFutureExpiryKeepsStored(t *testing.T) {
	for _, stored := range []models.BatchStatus{models.BatchStatusActive, models.BatchStatusEmpty, models.BatchStatusExpired} {
		status, err := models.DeriveDisplayStatus(stored, nil, now)
		require.NoError(t, err)
		assert.Equal(t, stored, status)

		status, err = models.DeriveDisplayStatus(stored, strPtr(""), now)
		require.NoError(t, err)
		assert.Equal(t, stored, status)

		status, err = models.DeriveDisplayStatus(stored, strPtr("2024-06-01T12:00:01"), now)
		require.NoError(t, err)
		assert.Equal(t, stored, status)
	}
}

func TestDeriveDisplayStatus_ExactlyNowIsNotExpired(t *testing.T) {
	status, err := models.DeriveDisplayStatus(models.BatchStatusActive, strPtr("2024-06-01T12:00:00"), now)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusActive, status)
}

func TestDeriveDisplayStatus_UnparseableExpiryNeverForcesExpired(t *testing.T) {
	for _, raw := range []string{"not-a-date", "2024-13-45", "31/12/2020", "T", "2020-01-01Tnoon"} {
		var status models.BatchStatus
		var err error
		assert.NotPanics(t, func() {
			status, err = models.DeriveDisplayStatus(models.BatchStatusActive, strPtr(raw), now)
		})
		assert.Error(t, err, raw)
		assert.Equal(t, models.BatchStatusActive, status, raw)
	}
}

func TestDeriveDisplayStatus_RepairedDoubledTimestamp(t *testing.T) {
	status, err := models.DeriveDisplayStatus(models.BatchStatusActive, strPtr("2024-01-15T00:00:00T10:30:00"), now)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusExpired, status)
}

func TestDisplayStatusAt_IgnoresParseErrors(t *testing.T) {
	b := models.StockBatch{Status: models.BatchStatusEmpty, ExpiryDate: strPtr("??")}
	assert.Equal(t, models.BatchStatusEmpty, b.DisplayStatusAt(now))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "green", models.StatusColor(models.BatchStatusActive))
	assert.Equal(t, "red", models.StatusColor(models.BatchStatusExpired))
	assert.Equal(t, "gray", models.StatusColor(models.BatchStatusEmpty))
	assert.Equal(t, "orange", models.StatusColor(models.BatchStatusRecalled))
	assert.Equal(t, "gray", models.StatusColor(models.BatchStatus("PENDING")))
}
