package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/internal/repository/mongodb"
)

// ExpirySweeper runs an expiry sweep on demand.
type ExpirySweeper interface {
	RunExpirySweep(ctx context.Context, thresholdDays int) (models.ExpiryReport, string, error)
}

// ReportReader loads stored sweep results.
type ReportReader interface {
	LatestExpiryReport(ctx context.Context) (*models.ExpiryReport, error)
}

// ReportHandler exposes expiry reports.
type ReportHandler struct {
	sweeper ExpirySweeper
	reader  ReportReader
	logger  *zap.Logger
}

// NewReportHandler constructs the handler. reader may be nil when no report store is configured.
func NewReportHandler(sweeper ExpirySweeper, reader ReportReader, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{sweeper: sweeper, reader: reader, logger: logger}
}

// Run handles POST /reports/expiry?daysThreshold=.
func (h *ReportHandler) Run(c *gin.Context) {
	days := 0
	if raw := c.Query("daysThreshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, apperrors.Validation("daysThreshold must be a positive integer"))
			return
		}
		days = n
	}

	report, summary, err := h.sweeper.RunExpirySweep(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("manual expiry sweep failed", zap.Error(err))
		writeError(c, apperrors.HTTPStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "summary": summary})
}

// Latest handles GET /reports/expiry/latest.
func (h *ReportHandler) Latest(c *gin.Context) {
	if h.reader == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report storage is not configured", "kind": apperrors.KindNotFound})
		return
	}

	report, err := h.reader.LatestExpiryReport(c.Request.Context())
	if errors.Is(err, mongodb.ErrNoReport) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no expiry report yet", "kind": apperrors.KindNotFound})
		return
	}
	if err != nil {
		h.logger.Error("failed to load expiry report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load expiry report"})
		return
	}

	c.JSON(http.StatusOK, report)
}
