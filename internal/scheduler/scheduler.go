package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/config"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

// ExpirySweeper runs one expiry sweep and returns its summary.
type ExpirySweeper interface {
	RunExpirySweep(ctx context.Context, thresholdDays int) (models.ExpiryReport, string, error)
}

// Notifier delivers the sweep summary.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler runs the expiring-soon sweep on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   ExpirySweeper
	notifier  Notifier
	recipient string
	schedule  string
	logger    *zap.Logger
}

// NewScheduler creates a scheduler in the configured timezone. notifier may be nil, in
// which case summaries are only logged.
func NewScheduler(cfg config.ReportingConfig, recipient string, sweeper ExpirySweeper, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		sweeper:   sweeper,
		notifier:  notifier,
		recipient: recipient,
		schedule:  cfg.CronSchedule,
		logger:    logger,
	}, nil
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.logger.Info("running expiry sweep")
	report, summary, err := s.sweeper.RunExpirySweep(ctx, 0)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}

	if s.notifier == nil || s.recipient == "" {
		s.logger.Info("expiry summary", zap.String("summary", summary))
		return
	}

	req := models.OutboundMessageRequest{To: s.recipient, Message: summary}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send expiry summary", zap.Error(err))
		return
	}
	s.logger.Info("expiry summary sent", zap.Int("batches", report.TotalBatches))
}
