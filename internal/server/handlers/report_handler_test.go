package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/internal/repository/mongodb"
	"github.com/mamadbah2/batchdesk/internal/server/handlers"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) RunExpirySweep(ctx context.Context, thresholdDays int) (models.ExpiryReport, string, error) {
	args := m.Called(ctx, thresholdDays)
	return args.Get(0).(models.ExpiryReport), args.String(1), args.Error(2)
}

type MockReportReader struct {
	mock.Mock
}

func (m *MockReportReader) LatestExpiryReport(ctx context.Context) (*models.ExpiryReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.ExpiryReport)
	return report, args.Error(1)
}

func reportEngine(h *handlers.ReportHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/reports/expiry", h.Run)
	r.GET("/reports/expiry/latest", h.Latest)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestReportRun(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("RunExpirySweep", mock.Anything, 14).
		Return(models.ExpiryReport{ThresholdDays: 14, TotalBatches: 2}, "2 batches", nil).Once()
	sweeper.On("RunExpirySweep", mock.Anything, 0).
		Return(models.ExpiryReport{}, "", apperrors.Transport(errors.New("refused"))).Once()
	r := reportEngine(handlers.NewReportHandler(sweeper, nil, nil))

	rec := serve(r, http.MethodPost, "/reports/expiry?daysThreshold=14")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Report  models.ExpiryReport `json:"report"`
		Summary string              `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Report.TotalBatches)
	assert.Equal(t, "2 batches", body.Summary)

	rec = serve(r, http.MethodPost, "/reports/expiry")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(r, http.MethodPost, "/reports/expiry?daysThreshold=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	sweeper.AssertExpectations(t)
}

func TestReportLatest(t *testing.T) {
	r := reportEngine(handlers.NewReportHandler(new(MockSweeper), nil, nil))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/reports/expiry/latest").Code)

	reader := new(MockReportReader)
	reader.On("LatestExpiryReport", mock.Anything).Return(nil, mongodb.ErrNoReport).Once()
	reader.On("LatestExpiryReport", mock.Anything).
		Return(&models.ExpiryReport{GeneratedAt: time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC), TotalBatches: 4}, nil).Once()
	r = reportEngine(handlers.NewReportHandler(new(MockSweeper), reader, nil))

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/reports/expiry/latest").Code)

	rec := serve(r, http.MethodGet, "/reports/expiry/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.ExpiryReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 4, report.TotalBatches)
}
