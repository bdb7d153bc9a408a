package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/config"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/pkg/requestid"
)

const (
	pathBatch            = "/stock-batches/{batchId}"
	pathBatches          = "/stock-batches"
	pathByStock          = "/stock-batches/stock/{stockId}"
	pathByProduct        = "/stock-batches/product/{productId}"
	pathByVariant        = "/stock-batches/variant/{variantId}"
	pathVariantWarehouse = "/stock-batches/variant/{variantId}/warehouse/{warehouseId}"
	pathRecall           = "/stock-batches/{batchId}/recall"
	pathExpiringSoon     = "/stock-batches/expiring-soon"
)

// Client exposes the stock batch endpoints of the inventory backend. Every error it
// returns is an *apperrors.Error.
type Client interface {
	ListByStock(ctx context.Context, stockID int64) ([]models.StockBatch, error)
	ListByProduct(ctx context.Context, productID int64) ([]models.StockBatch, error)
	ListByVariant(ctx context.Context, variantID int64) ([]models.StockBatch, error)
	Get(ctx context.Context, batchID int64) (*models.StockBatch, error)
	Create(ctx context.Context, req models.CreateStockBatchRequest) (*models.StockBatch, error)
	CreateForVariant(ctx context.Context, variantID, warehouseID int64, req models.CreateStockBatchRequest) (*models.StockBatch, error)
	Update(ctx context.Context, batchID int64, req models.UpdateStockBatchRequest) (*models.StockBatch, error)
	Delete(ctx context.Context, batchID int64) error
	Recall(ctx context.Context, batchID int64, reason string) (*models.StockBatch, error)
	ExpiringSoon(ctx context.Context, daysThreshold int) ([]models.StockBatch, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient builds an inventory API client from the provided configuration values.
func NewClient(cfg config.InventoryConfig, tokens TokenSource, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetLogger(logger.Sugar())

	return &APIClient{
		httpClient: restyClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// apiError is the error body of the inventory backend. Only message is documented;
// error shows up on framework-generated responses.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Error)
}

func (c *APIClient) ListByStock(ctx context.Context, stockID int64) ([]models.StockBatch, error) {
	return c.list(ctx, "list batches by stock", pathByStock, "stockId", stockID)
}

func (c *APIClient) ListByProduct(ctx context.Context, productID int64) ([]models.StockBatch, error) {
	return c.list(ctx, "list batches by product", pathByProduct, "productId", productID)
}

func (c *APIClient) ListByVariant(ctx context.Context, variantID int64) ([]models.StockBatch, error) {
	return c.list(ctx, "list batches by variant", pathByVariant, "variantId", variantID)
}

func (c *APIClient) Get(ctx context.Context, batchID int64) (*models.StockBatch, error) {
	result := new(models.StockBatch)
	req := c.httpClient.R().
		SetPathParam("batchId", formatID(batchID)).
		SetResult(result)

	if _, err := c.send(ctx, "get batch", req, http.MethodGet, pathBatch); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) Create(ctx context.Context, body models.CreateStockBatchRequest) (*models.StockBatch, error) {
	result := new(models.StockBatch)
	req := c.httpClient.R().
		SetBody(body).
		SetResult(result)

	if _, err := c.send(ctx, "create batch", req, http.MethodPost, pathBatches); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) CreateForVariant(ctx context.Context, variantID, warehouseID int64, body models.CreateStockBatchRequest) (*models.StockBatch, error) {
	result := new(models.StockBatch)
	req := c.httpClient.R().
		SetPathParams(map[string]string{
			"variantId":   formatID(variantID),
			"warehouseId": formatID(warehouseID),
		}).
		SetBody(body).
		SetResult(result)

	if _, err := c.send(ctx, "create variant batch", req, http.MethodPost, pathVariantWarehouse); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) Update(ctx context.Context, batchID int64, body models.UpdateStockBatchRequest) (*models.StockBatch, error) {
	result := new(models.StockBatch)
	req := c.httpClient.R().
		SetPathParam("batchId", formatID(batchID)).
		SetBody(body).
		SetResult(result)

	if _, err := c.send(ctx, "update batch", req, http.MethodPut, pathBatch); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) Delete(ctx context.Context, batchID int64) error {
	req := c.httpClient.R().SetPathParam("batchId", formatID(batchID))
	_, err := c.send(ctx, "delete batch", req, http.MethodDelete, pathBatch)
	return err
}

// Recall returns the recalled batch, or nil when the backend answers without a body.
func (c *APIClient) Recall(ctx context.Context, batchID int64, reason string) (*models.StockBatch, error) {
	req := c.httpClient.R().SetPathParam("batchId", formatID(batchID))
	if reason != "" {
		req.SetQueryParam("reason", reason)
	}

	resp, err := c.send(ctx, "recall batch", req, http.MethodPost, pathRecall)
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, nil
	}
	result := new(models.StockBatch)
	if err := json.Unmarshal(body, result); err != nil {
		return nil, apperrors.Transport(fmt.Errorf("recall batch: decode response: %w", err))
	}
	return result, nil
}

func (c *APIClient) ExpiringSoon(ctx context.Context, daysThreshold int) ([]models.StockBatch, error) {
	var result []models.StockBatch
	req := c.httpClient.R().
		SetQueryParam("daysThreshold", strconv.Itoa(daysThreshold)).
		SetResult(&result)

	if _, err := c.send(ctx, "list expiring batches", req, http.MethodGet, pathExpiringSoon); err != nil {
		return nil, err
	}
	return nonNil(result), nil
}

func (c *APIClient) list(ctx context.Context, op, path, param string, id int64) ([]models.StockBatch, error) {
	var result []models.StockBatch
	req := c.httpClient.R().
		SetPathParam(param, formatID(id)).
		SetResult(&result)

	if _, err := c.send(ctx, op, req, http.MethodGet, path); err != nil {
		return nil, err
	}
	return nonNil(result), nil
}

// send authenticates and executes req, translating every failure into an *apperrors.Error.
func (c *APIClient) send(ctx context.Context, op string, req *resty.Request, method, path string) (*resty.Response, error) {
	token, err := c.tokens.Token(ctx)
	if errors.Is(err, ErrNoToken) {
		c.logger.Error("inventory request not sent", zap.String("op", op), zap.Error(err))
		return nil, &apperrors.Error{Kind: apperrors.KindValidation, Message: ErrNoToken.Error(), Err: err}
	}
	if err != nil {
		return nil, apperrors.Transport(fmt.Errorf("%s: %w", op, err))
	}

	apiErr := new(apiError)
	req.SetContext(ctx).
		SetAuthToken(token).
		SetError(apiErr)
	if id := requestid.From(ctx); id != "" {
		req.SetHeader(requestid.Header, id)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("inventory request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, apperrors.Transport(fmt.Errorf("%s: %w", op, err))
	}

	status := resp.StatusCode()
	c.logger.Debug("inventory request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)))

	if status >= http.StatusBadRequest {
		msg := apiErr.text()
		if status == http.StatusNotFound {
			return nil, apperrors.NotFound(msg)
		}
		return nil, apperrors.Backend(status, msg)
	}

	return resp, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func nonNil(batches []models.StockBatch) []models.StockBatch {
	if batches == nil {
		return []models.StockBatch{}
	}
	return batches
}
