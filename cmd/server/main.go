package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/batchdesk/internal/cache"
	"github.com/mamadbah2/batchdesk/internal/config"
	"github.com/mamadbah2/batchdesk/internal/repository/mongodb"
	"github.com/mamadbah2/batchdesk/internal/repository/sheets"
	"github.com/mamadbah2/batchdesk/internal/scheduler"
	"github.com/mamadbah2/batchdesk/internal/server/handlers"
	"github.com/mamadbah2/batchdesk/internal/server/router"
	batchsvc "github.com/mamadbah2/batchdesk/internal/service/batches"
	commandsvc "github.com/mamadbah2/batchdesk/internal/service/commands"
	reportingsvc "github.com/mamadbah2/batchdesk/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/batchdesk/internal/service/whatsapp"
	"github.com/mamadbah2/batchdesk/pkg/clients/inventory"
	whatsappclient "github.com/mamadbah2/batchdesk/pkg/clients/whatsapp"
	"github.com/mamadbah2/batchdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.Store = cache.NopStore{}
	if cfg.Cache.Enabled() {
		redisStore, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, baseLogger.Named("cache.redis"))
		if err != nil {
			baseLogger.Warn("redis unavailable, batch cache disabled", zap.Error(err))
		} else {
			store = redisStore
			defer func() { _ = redisStore.Close() }()
		}
	}

	tokens := inventory.NewStaticToken(cfg.Inventory.Token, baseLogger.Named("client.inventory"))
	inventoryClient := inventory.NewClient(cfg.Inventory, tokens, baseLogger.Named("client.inventory"))
	gateway := batchsvc.NewGateway(inventoryClient, store, cfg.Cache.TTL, baseLogger.Named("svc.batches"))

	reportOpts := []reportingsvc.Option{}
	var reportReader handlers.ReportReader

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		reportOpts = append(reportOpts, reportingsvc.WithReportStore(mongoRepo))
		reportReader = mongoRepo
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportOpts = append(reportOpts, reportingsvc.WithSheetExport(sheetsRepo, cfg.Sheets.Range))
	}

	reportingSvc := reportingsvc.NewService(gateway, cfg.Reporting.ExpiryThresholdDays, baseLogger.Named("svc.reporting"), reportOpts...)

	h := router.Handlers{
		Batches: handlers.NewBatchHandler(gateway, baseLogger.Named("handlers.batches")),
		Reports: handlers.NewReportHandler(reportingSvc, reportReader, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(gateway, reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		h.Operators = handlers.NewOperatorHandler(messagingSvc, baseLogger.Named("handlers.operators"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp credentials missing, chat commands and alerts disabled")
	}

	engine := router.New(h, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, cfg.WhatsApp.AlertRecipient, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Inventory.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		baseLogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		baseLogger.Error("server stopped with error", zap.Error(err))
	}
}
