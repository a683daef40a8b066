package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/app"
	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/mongodb"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/repository/sheets"
	"github.com/mamadbah2/cortinas/internal/scheduler"
	"github.com/mamadbah2/cortinas/internal/server/handlers"
	"github.com/mamadbah2/cortinas/internal/server/router"
	budgetsvc "github.com/mamadbah2/cortinas/internal/service/budgets"
	catalogsvc "github.com/mamadbah2/cortinas/internal/service/catalog"
	reportingsvc "github.com/mamadbah2/cortinas/internal/service/reporting"
	settingssvc "github.com/mamadbah2/cortinas/internal/service/settings"
	visitsvc "github.com/mamadbah2/cortinas/internal/service/visits"
	"github.com/mamadbah2/cortinas/internal/session"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/syncer"
	"github.com/mamadbah2/cortinas/pkg/clients/postalcode"
	"github.com/mamadbah2/cortinas/pkg/clients/postgrest"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cache.Open(cfg.Cache.Path, baseLogger.Named("repo.cache"))
	if err != nil {
		baseLogger.Fatal("failed to open local cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close local cache", zap.Error(err))
		}
	}()

	var backend remote.Backend
	switch cfg.Remote.Backend {
	case config.BackendMongo:
		mongoRepo, err := mongodb.NewRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		backend = mongoRepo
	default:
		backend = postgrest.NewClient(cfg.Remote)
	}
	baseLogger.Info("remote backend selected", zap.String("backend", cfg.Remote.Backend))

	st := state.New()
	engine := syncer.NewEngine(backend, store, st, baseLogger.Named("syncer"))

	catalogSvc := catalogsvc.NewService(backend, store, st, baseLogger.Named("svc.catalog"))
	budgetSvc := budgetsvc.NewService(backend, store, st, baseLogger.Named("svc.budgets"))
	visitSvc := visitsvc.NewService(backend, postalcode.NewClient(cfg.PostalCode), store, st, baseLogger.Named("svc.visits"))
	settingsSvc := settingssvc.NewService(backend, store, st, baseLogger.Named("svc.settings"))

	sweeper := budgetsvc.NewSweeper(budgetSvc, st, baseLogger.Named("svc.sweeper"))
	sweeper.Watch(ctx)

	var exporter scheduler.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		loc, err := time.LoadLocation(cfg.Reporting.Timezone)
		if err != nil {
			baseLogger.Warn("unknown timezone, exporting in UTC", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
			loc = time.UTC
		}
		exporter = reportingsvc.NewService(sheetsRepo, st, cfg.Sheets.BudgetRange, loc, baseLogger.Named("svc.reporting"))
	} else {
		baseLogger.Warn("google sheets not configured, budget export disabled")
	}

	sched := scheduler.NewScheduler(*cfg, engine, exporter, baseLogger.Named("scheduler"))
	application := app.New(ctx, sched, baseLogger.Named("app"))
	defer application.Shutdown()

	gate := session.NewGate(cfg.Auth.Users, store, baseLogger.Named("session"))
	restored, err := gate.Restore(ctx)
	if err != nil {
		baseLogger.Warn("failed to restore session", zap.Error(err))
	}
	if restored {
		if err := application.Activate(); err != nil {
			baseLogger.Fatal("failed to start background jobs", zap.Error(err))
		}
	} else {
		baseLogger.Info("no session on this device, background jobs start after login")
	}

	engineHTTP := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(gate, application, baseLogger.Named("handlers.auth")),
		Catalog: handlers.NewCatalogHandler(catalogSvc, st, baseLogger.Named("handlers.catalog")),
		Budgets: handlers.NewBudgetHandler(budgetSvc, st, baseLogger.Named("handlers.budgets")),
		Visits:  handlers.NewVisitHandler(visitSvc, st, baseLogger.Named("handlers.visits")),
		System:  handlers.NewSystemHandler(settingsSvc, engine, baseLogger.Named("handlers.system")),
	}, gate, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engineHTTP,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
