package inventory_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/config"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/pkg/clients/inventory"
	"github.com/mamadbah2/batchdesk/pkg/requestid"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*inventory.APIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := inventory.NewClient(config.InventoryConfig{
		BaseURL: srv.URL + "/",
		Token:   "test-token",
		Timeout: 5 * time.Second,
	}, inventory.NewStaticToken("test-token", nil), nil)
	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListByStock_SendsAuthAndRequestID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/stock-batches/stock/7", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "req-123", r.Header.Get(requestid.Header))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "stockId": 7, "batchNumber": "LOT-1", "quantity": 10, "status": "ACTIVE", "expiryDate": "2025-12-31T00:00:00"},
		})
	})

	ctx := requestid.With(context.Background(), "req-123")
	list, err := client.ListByStock(ctx, 7)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "LOT-1", list[0].BatchNumber)
	assert.Equal(t, models.BatchStatusActive, list[0].Status)
	require.NotNil(t, list[0].ExpiryDate)
	assert.Equal(t, "2025-12-31T00:00:00", *list[0].ExpiryDate)
}

func TestListPaths(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, []any{})
	})
	ctx := context.Background()

	list, err := client.ListByProduct(ctx, 12)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = client.ListByVariant(ctx, 13)
	require.NoError(t, err)

	assert.Equal(t, []string{"/stock-batches/product/12", "/stock-batches/variant/13"}, paths)
}

func TestExpiringSoon_SendsThreshold(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-batches/expiring-soon", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("daysThreshold"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 4}, {"id": 5}})
	})

	list, err := client.ExpiringSoon(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreate_PostsBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stock-batches", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, float64(7), body["stockId"])
		assert.Equal(t, "2024-01-15T14:30:00", body["manufactureDate"])
		assert.NotContains(t, body, "expiryDate")

		writeJSON(w, http.StatusCreated, map[string]any{"id": 55, "stockId": 7, "batchNumber": "LOT-2024-001", "quantity": 100, "status": "ACTIVE"})
	})

	batch, err := client.Create(context.Background(), models.CreateStockBatchRequest{
		StockID:         7,
		BatchNumber:     "LOT-2024-001",
		ManufactureDate: "2024-01-15T14:30:00",
		Quantity:        100,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), batch.ID)
}

func TestCreateForVariant_Path(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-batches/variant/3/warehouse/2", r.URL.Path)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "stockId": 40})
	})

	batch, err := client.CreateForVariant(context.Background(), 3, 2, models.CreateStockBatchRequest{BatchNumber: "B", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(40), batch.StockID)
}

func TestUpdateAndDelete(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-batches/5", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			writeJSON(w, http.StatusOK, map[string]any{"id": 5, "quantity": 80})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	batch, err := client.Update(context.Background(), 5, models.UpdateStockBatchRequest{BatchNumber: "B", Quantity: 80})
	require.NoError(t, err)
	assert.Equal(t, 80, batch.Quantity)

	assert.NoError(t, client.Delete(context.Background(), 5))
}

func TestRecall(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/stock-batches/8/recall":
			assert.Equal(t, "supplier contamination", r.URL.Query().Get("reason"))
			w.WriteHeader(http.StatusOK)
		case "/stock-batches/9/recall":
			assert.False(t, r.URL.Query().Has("reason"))
			writeJSON(w, http.StatusOK, map[string]any{"id": 9, "status": "RECALLED"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	batch, err := client.Recall(context.Background(), 8, "supplier contamination")
	require.NoError(t, err)
	assert.Nil(t, batch)

	batch, err = client.Recall(context.Background(), 9, "")
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, models.BatchStatusRecalled, batch.Status)
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    any
		kind    apperrors.Kind
		message string
	}{
		{"not found", http.StatusNotFound, map[string]string{"message": "Stock batch not found with id: 5"}, apperrors.KindNotFound, "Stock batch not found with id: 5"},
		{"conflict", http.StatusBadRequest, map[string]string{"message": "Batch number already exists"}, apperrors.KindBackend, "Batch number already exists"},
		{"error field fallback", http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"}, apperrors.KindBackend, "Internal Server Error"},
		{"no body", http.StatusBadGateway, nil, apperrors.KindBackend, "request failed: Bad Gateway"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.body == nil {
					w.WriteHeader(tc.status)
					return
				}
				writeJSON(w, tc.status, tc.body)
			})

			_, err := client.Get(context.Background(), 5)

			require.Error(t, err)
			assert.Equal(t, tc.kind, apperrors.KindOf(err))
			assert.Equal(t, tc.message, apperrors.Message(err))
		})
	}
}

func TestUnreachableServerIsTransport(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.ListByStock(context.Background(), 7)

	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.TransportMessage, apperrors.Message(err))
}

func TestEmptyTokenFailsBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	client := inventory.NewClient(config.InventoryConfig{BaseURL: srv.URL, Timeout: time.Second}, inventory.NewStaticToken("", nil), nil)
	_, err := client.Get(context.Background(), 1)

	assert.True(t, apperrors.IsValidation(err))
	assert.ErrorIs(t, err, inventory.ErrNoToken)
	assert.Equal(t, "inventory api token is not configured", apperrors.Message(err))
	assert.False(t, called)
}
