package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

// BatchGateway is the batch service surface exposed to the dashboard.
type BatchGateway interface {
	ListByStock(ctx context.Context, stockID int64) ([]models.StockBatch, error)
	ListByProduct(ctx context.Context, productID int64) ([]models.StockBatch, error)
	ListByVariant(ctx context.Context, variantID int64) ([]models.StockBatch, error)
	GetByID(ctx context.Context, batchID int64) (*models.StockBatch, error)
	Create(ctx context.Context, in models.CreateBatchInput) (*models.StockBatch, error)
	CreateForVariant(ctx context.Context, variantID, warehouseID int64, fields models.BatchFields) (*models.StockBatch, error)
	Update(ctx context.Context, batchID int64, fields models.BatchFields) (*models.StockBatch, error)
	Delete(ctx context.Context, batchID int64) error
	Recall(ctx context.Context, batchID int64, reason string) (*models.StockBatch, error)
	ListExpiringSoon(ctx context.Context, daysThreshold int) ([]models.StockBatch, error)
	Views(batches []models.StockBatch) []models.BatchView
	Group(batches []models.StockBatch) []models.WarehouseGroup
}

// BatchHandler serves the stock batch endpoints.
type BatchHandler struct {
	gateway BatchGateway
	logger  *zap.Logger
}

// NewBatchHandler constructs the HTTP handler adapter.
func NewBatchHandler(gateway BatchGateway, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{gateway: gateway, logger: logger}
}

// ListByStock handles GET /stocks/:stockId/batches.
func (h *BatchHandler) ListByStock(c *gin.Context) {
	h.listBy(c, "stockId", h.gateway.ListByStock)
}

// ListByProduct handles GET /products/:productId/batches.
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	h.listBy(c, "productId", h.gateway.ListByProduct)
}

// ListByVariant handles GET /variants/:variantId/batches.
func (h *BatchHandler) ListByVariant(c *gin.Context) {
	h.listBy(c, "variantId", h.gateway.ListByVariant)
}

// GroupedByVariant handles GET /variants/:variantId/batches/grouped.
func (h *BatchHandler) GroupedByVariant(c *gin.Context) {
	id, ok := h.pathID(c, "variantId")
	if !ok {
		return
	}
	batches, err := h.gateway.ListByVariant(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.gateway.Group(batches))
}

// Get handles GET /batches/:batchId.
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	batch, err := h.gateway.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.gateway.Views([]models.StockBatch{*batch})[0])
}

// Create handles POST /batches.
func (h *BatchHandler) Create(c *gin.Context) {
	var in models.CreateBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}
	batch, err := h.gateway.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// CreateForVariant handles POST /variants/:variantId/warehouses/:warehouseId/batches.
func (h *BatchHandler) CreateForVariant(c *gin.Context) {
	variantID, ok := h.pathID(c, "variantId")
	if !ok {
		return
	}
	warehouseID, ok := h.pathID(c, "warehouseId")
	if !ok {
		return
	}
	var fields models.BatchFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		h.badBody(c, err)
		return
	}
	batch, err := h.gateway.CreateForVariant(c.Request.Context(), variantID, warehouseID, fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// Update handles PUT /batches/:batchId.
func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	var fields models.BatchFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		h.badBody(c, err)
		return
	}
	batch, err := h.gateway.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Delete handles DELETE /batches/:batchId.
func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	if err := h.gateway.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recall handles POST /batches/:batchId/recall. The body is optional.
func (h *BatchHandler) Recall(c *gin.Context) {
	id, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	var req models.RecallRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(c, err)
		return
	}
	batch, err := h.gateway.Recall(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	if batch == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// ExpiringSoon handles GET /batches/expiring-soon?daysThreshold=.
func (h *BatchHandler) ExpiringSoon(c *gin.Context) {
	days := 0
	if raw := c.Query("daysThreshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, apperrors.Validation("daysThreshold must be a positive integer"))
			return
		}
		days = n
	}
	batches, err := h.gateway.ListExpiringSoon(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.gateway.Views(batches))
}

type listByIDFunc func(ctx context.Context, id int64) ([]models.StockBatch, error)

func (h *BatchHandler) listBy(c *gin.Context, param string, list listByIDFunc) {
	id, ok := h.pathID(c, param)
	if !ok {
		return
	}
	batches, err := list(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.gateway.Views(batches))
}

func (h *BatchHandler) pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, apperrors.Validation(param+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *BatchHandler) badBody(c *gin.Context, err error) {
	h.logger.Warn("invalid batch payload", zap.Error(err))
	h.fail(c, apperrors.Validation("invalid request body"))
}

func (h *BatchHandler) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("batch request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	writeError(c, status, err)
}

func writeError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperrors.Message(err),
		"kind":  apperrors.KindOf(err),
	})
}
