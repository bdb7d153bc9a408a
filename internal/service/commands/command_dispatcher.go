package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

const helpText = "Batch commands:\n" +
	"/batch <id> - show a batch\n" +
	"/expiring [days] - batches expiring soon\n" +
	"/recall <id> [reason] - recall a batch\n" +
	"/help - this message"

// BatchGateway defines the batch operations reachable from chat.
type BatchGateway interface {
	GetByID(ctx context.Context, batchID int64) (*models.StockBatch, error)
	Recall(ctx context.Context, batchID int64, reason string) (*models.StockBatch, error)
}

// ExpiryReporter builds expiry reports on demand.
type ExpiryReporter interface {
	BuildExpiryReport(ctx context.Context, now time.Time, thresholdDays int) (models.ExpiryReport, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	batches   BatchGateway
	reporting ExpiryReporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(batches BatchGateway, reporting ExpiryReporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		batches:   batches,
		reporting: reporting,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs cmd. Gateway errors are turned into replies so the operator sees
// the backend's message; only malformed arguments return an error.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandBatch:
		id, err := batchIDArg(cmd)
		if err != nil {
			return "", err
		}
		batch, err := s.batches.GetByID(ctx, id)
		if err != nil {
			return failureReply("Batch lookup", err), nil
		}
		return describeBatch(*batch, s.now()), nil

	case models.CommandExpiring:
		days := 0
		if len(cmd.Args) > 0 {
			n, err := strconv.Atoi(cmd.Args[0])
			if err != nil || n <= 0 {
				return "", ErrInvalidArguments
			}
			days = n
		}
		report, err := s.reporting.BuildExpiryReport(ctx, s.now(), days)
		if err != nil {
			return failureReply("Expiry check", err), nil
		}
		return reporting.FormatSummary(report), nil

	case models.CommandRecall:
		id, err := batchIDArg(cmd)
		if err != nil {
			return "", err
		}
		reason := strings.Join(cmd.Args[1:], " ")
		batch, err := s.batches.Recall(ctx, id, reason)
		if err != nil {
			return failureReply("Recall", err), nil
		}
		s.logger.Info("batch recalled from chat", zap.Int64("batch_id", id), zap.String("sender", sender))
		if batch == nil {
			return fmt.Sprintf("Batch %d recalled.", id), nil
		}
		return fmt.Sprintf("Batch %s (#%d) recalled.", batch.BatchNumber, batch.ID), nil

	default:
		return helpText, nil
	}
}

func batchIDArg(cmd models.Command) (int64, error) {
	if len(cmd.Args) == 0 {
		return 0, ErrInvalidArguments
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(cmd.Args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidArguments
	}
	return id, nil
}

func describeBatch(b models.StockBatch, now time.Time) string {
	status := b.DisplayStatusAt(now)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s (#%d): %s", b.BatchNumber, b.ID, status)
	if b.ProductName != "" {
		fmt.Fprintf(&sb, "\nProduct: %s", b.ProductName)
		if b.VariantName != "" {
			fmt.Fprintf(&sb, " / %s", b.VariantName)
		}
	}
	if b.WarehouseName != "" {
		fmt.Fprintf(&sb, "\nWarehouse: %s", b.WarehouseName)
	}
	fmt.Fprintf(&sb, "\nQuantity: %d", b.Quantity)
	if b.ExpiryDate != nil && *b.ExpiryDate != "" {
		fmt.Fprintf(&sb, "\nExpiry: %s", *b.ExpiryDate)
	}
	return sb.String()
}

func failureReply(action string, err error) string {
	return fmt.Sprintf("%s failed: %s", action, apperrors.Message(err))
}
