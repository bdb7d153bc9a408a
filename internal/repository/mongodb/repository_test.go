package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "batchdesk.expiry_reports"

	newRepo := func(mt *mtest.T) *MongoDBRepository {
		return &MongoDBRepository{client: mt.Client, dbName: "batchdesk", collName: "expiry_reports"}
	}

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := newRepo(mt).SaveExpiryReport(ctx, models.ExpiryReport{ThresholdDays: 30, TotalBatches: 1})
		require.NoError(mt, err)
	})

	mt.Run("latest", func(mt *mtest.T) {
		generated := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "generated_at", Value: generated},
			{Key: "threshold_days", Value: 30},
			{Key: "total_batches", Value: 4},
		}))

		report, err := newRepo(mt).LatestExpiryReport(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, 4, report.TotalBatches)
		assert.True(mt, report.GeneratedAt.Equal(generated))
	})

	mt.Run("none stored", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := newRepo(mt).LatestExpiryReport(ctx)
		assert.ErrorIs(mt, err, ErrNoReport)
	})
}
