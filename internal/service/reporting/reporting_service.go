package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

const dateLayout = "2006-01-02"

// BatchSource is the part of the batch gateway the sweep needs.
type BatchSource interface {
	ListExpiringSoon(ctx context.Context, daysThreshold int) ([]models.StockBatch, error)
}

// ReportStore persists sweep results.
type ReportStore interface {
	SaveExpiryReport(ctx context.Context, report models.ExpiryReport) error
}

// RowAppender exports sweep lines to a spreadsheet.
type RowAppender interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// Service builds expiry reports from the backend's expiring-soon list.
type Service struct {
	batches    BatchSource
	store      ReportStore
	sheet      RowAppender
	sheetRange string
	threshold  int
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes optional sinks of the service.
type Option func(*Service)

// WithReportStore stores every sweep result.
func WithReportStore(store ReportStore) Option {
	return func(s *Service) { s.store = store }
}

// WithSheetExport appends one row per swept batch into sheetRange.
func WithSheetExport(sheet RowAppender, sheetRange string) Option {
	return func(s *Service) {
		s.sheet = sheet
		s.sheetRange = sheetRange
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a new reporting service instance.
func NewService(batches BatchSource, thresholdDays int, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{batches: batches, threshold: thresholdDays, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured day window.
func (s *Service) Threshold() int { return s.threshold }

// BuildExpiryReport lists batches expiring within the threshold and groups them by
// warehouse with the status an operator would see at now.
func (s *Service) BuildExpiryReport(ctx context.Context, now time.Time, thresholdDays int) (models.ExpiryReport, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.threshold
	}

	batches, err := s.batches.ListExpiringSoon(ctx, thresholdDays)
	if err != nil {
		return models.ExpiryReport{}, fmt.Errorf("list expiring batches: %w", err)
	}

	report := models.ExpiryReport{
		GeneratedAt:   now.UTC(),
		ThresholdDays: thresholdDays,
		Warehouses:    []models.WarehouseExpiry{},
	}

	for _, group := range models.GroupByWarehouse(batches, now) {
		wh := models.WarehouseExpiry{
			WarehouseID:   group.WarehouseID,
			WarehouseName: group.WarehouseName,
			Lines:         make([]models.ExpiryLine, 0, len(group.Batches)),
		}
		for _, view := range group.Batches {
			line := models.ExpiryLine{
				BatchID:       view.ID,
				BatchNumber:   view.BatchNumber,
				ProductName:   view.ProductName,
				VariantName:   view.VariantName,
				Quantity:      view.Quantity,
				DisplayStatus: view.DisplayStatus,
			}
			if view.ExpiryDate != nil {
				line.ExpiryDate = *view.ExpiryDate
			}
			wh.Lines = append(wh.Lines, line)

			report.TotalBatches++
			report.TotalQuantity += view.Quantity
			if view.DisplayStatus == models.BatchStatusExpired {
				report.ExpiredCount++
			} else {
				report.ExpiringCount++
			}
		}
		report.Warehouses = append(report.Warehouses, wh)
	}

	return report, nil
}

// RunExpirySweep builds a report, hands it to the configured sinks and returns the text
// summary. Sink failures are logged; they do not fail the sweep.
func (s *Service) RunExpirySweep(ctx context.Context, thresholdDays int) (models.ExpiryReport, string, error) {
	now := s.now()
	report, err := s.BuildExpiryReport(ctx, now, thresholdDays)
	if err != nil {
		return models.ExpiryReport{}, "", err
	}

	if s.store != nil {
		if err := s.store.SaveExpiryReport(ctx, report); err != nil {
			s.logger.Error("failed to store expiry report", zap.Error(err))
		}
	}

	if s.sheet != nil && report.TotalBatches > 0 {
		if err := s.sheet.AppendRows(ctx, s.sheetRange, sheetRows(report, now)); err != nil {
			s.logger.Error("failed to export expiry report", zap.Error(err))
		}
	}

	s.logger.Info("expiry sweep completed",
		zap.Int("batches", report.TotalBatches),
		zap.Int("expired", report.ExpiredCount),
		zap.Int("threshold_days", report.ThresholdDays))

	return report, FormatSummary(report), nil
}

// FormatSummary renders a report as a short message for operators.
func FormatSummary(report models.ExpiryReport) string {
	day := report.GeneratedAt.Format(dateLayout)
	if report.TotalBatches == 0 {
		return fmt.Sprintf("Expiry check %s: no batches expire within %d days.", day, report.ThresholdDays)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Expiry check %s: %d batches (%d units) within %d days, %d already expired.",
		day, report.TotalBatches, report.TotalQuantity, report.ThresholdDays, report.ExpiredCount)

	for _, wh := range report.Warehouses {
		name := wh.WarehouseName
		if name == "" {
			name = fmt.Sprintf("warehouse %d", wh.WarehouseID)
		}
		fmt.Fprintf(&b, "\n%s:", name)
		for _, line := range wh.Lines {
			fmt.Fprintf(&b, "\n- %s %s x%d exp %s", line.BatchNumber, productLabel(line), line.Quantity, shortDate(line.ExpiryDate))
			if line.DisplayStatus == models.BatchStatusExpired {
				b.WriteString(" (EXPIRED)")
			}
		}
	}

	return b.String()
}

func sheetRows(report models.ExpiryReport, now time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, report.TotalBatches)
	day := now.Format(dateLayout)
	for _, wh := range report.Warehouses {
		for _, line := range wh.Lines {
			rows = append(rows, []interface{}{
				day,
				line.BatchNumber,
				productLabel(line),
				wh.WarehouseName,
				line.ExpiryDate,
				line.Quantity,
				string(line.DisplayStatus),
			})
		}
	}
	return rows
}

func productLabel(line models.ExpiryLine) string {
	if line.VariantName == "" {
		return line.ProductName
	}
	return line.ProductName + " / " + line.VariantName
}

func shortDate(value string) string {
	if len(value) > 10 {
		return value[:10]
	}
	if value == "" {
		return "n/a"
	}
	return value
}
