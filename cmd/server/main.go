package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/config"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
	"github.com/mamadbah2/lotprice/internal/repository/mongodb"
	"github.com/mamadbah2/lotprice/internal/repository/sheets"
	"github.com/mamadbah2/lotprice/internal/repository/sqlstore"
	"github.com/mamadbah2/lotprice/internal/scheduler"
	"github.com/mamadbah2/lotprice/internal/server/handlers"
	"github.com/mamadbah2/lotprice/internal/server/router"
	exportsvc "github.com/mamadbah2/lotprice/internal/service/export"
	"github.com/mamadbah2/lotprice/internal/service/features"
	pricingsvc "github.com/mamadbah2/lotprice/internal/service/pricing"
	"github.com/mamadbah2/lotprice/pkg/clients/model"
	"github.com/mamadbah2/lotprice/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	engineCfg, err := features.LoadEngineConfig(cfg.Engine.ConfigPath)
	if err != nil {
		baseLogger.Fatal("failed to load engine config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancelStartup := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStartup()

	store, err := sqlstore.Open(startupCtx, cfg.Database.Driver, cfg.Database.DSN, logger.Named(baseLogger, "repo.sql"))
	if err != nil {
		baseLogger.Fatal("failed to open lot store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close lot store", zap.Error(err))
		}
	}()

	if cfg.Database.Driver == sqlstore.DriverSQLite {
		if err := store.ApplySchema(startupCtx); err != nil {
			baseLogger.Fatal("failed to apply sqlite schema", zap.Error(err))
		}
	}

	var (
		archive   ports.SnapshotArchive
		snapshots handlers.SnapshotReader
	)
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive, snapshots = mongoRepo, mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, feature snapshots will not be archived")
	}

	var sink ports.DatasetSink
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sink = sheetsRepo
	} else {
		baseLogger.Warn("google sheets credentials missing, dataset rows will not be exported")
	}

	composer := features.NewComposer(store, engineCfg, logger.Named(baseLogger, "svc.features"))

	var pricing handlers.PricingService
	if cfg.Model.BaseURL != "" {
		pricing = pricingsvc.NewService(composer, model.NewClient(cfg.Model), store, archive, cfg.Pricing.DefaultMarginRate, logger.Named(baseLogger, "svc.pricing"))
		baseLogger.Info("price model client enabled", zap.String("base_url", cfg.Model.BaseURL))
	} else {
		baseLogger.Warn("model base url missing, price suggestions disabled")
	}

	if sink != nil || archive != nil {
		exportLoc, err := time.LoadLocation(cfg.Export.Timezone)
		if err != nil {
			baseLogger.Fatal("failed to load export timezone", zap.String("timezone", cfg.Export.Timezone), zap.Error(err))
		}
		exporter := exportsvc.NewService(store, composer, sink, archive, logger.Named(baseLogger, "svc.export")).InLocation(exportLoc)
		sched, err := scheduler.NewScheduler(cfg.Export, exporter, logger.Named(baseLogger, "scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	lotHandler := handlers.NewLotHandler(composer, pricing, snapshots, logger.Named(baseLogger, "handlers.lots"))
	engine := router.New(lotHandler, store.Ping, logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("feature_set", string(composer.Version())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
