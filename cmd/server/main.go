package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chartapp "github.com/finops/coa-adapter/internal/application/chart"
	reportapp "github.com/finops/coa-adapter/internal/application/report"
	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/infrastructure/cache"
	"github.com/finops/coa-adapter/internal/infrastructure/config"
	"github.com/finops/coa-adapter/internal/infrastructure/logger"
	"github.com/finops/coa-adapter/internal/infrastructure/mip"
	"github.com/finops/coa-adapter/internal/infrastructure/secrets"
	"github.com/finops/coa-adapter/internal/infrastructure/storage"
	"github.com/finops/coa-adapter/internal/interfaces/http/handler"
	"github.com/finops/coa-adapter/internal/interfaces/http/middleware"
	"github.com/finops/coa-adapter/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting chart-of-accounts adapter",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version))

	// Upstream client; shared by chart and report pipelines so the
	// warm HTTP connections are reused across requests.
	upstream, err := mip.NewClient(mip.Config{
		LoginURL:      cfg.Upstream.LoginURL,
		APIBaseURL:    cfg.Upstream.APIBaseURL,
		Org:           cfg.Upstream.Org,
		Segment:       cfg.Upstream.Segment,
		FetchTimeout:  cfg.Upstream.FetchTimeout,
		FetchBudget:   cfg.Upstream.FetchBudget,
		LogoutTimeout: cfg.Upstream.LogoutTimeout,
		LogoutBudget:  cfg.Upstream.LogoutBudget,
	}, log)
	if err != nil {
		log.Fatal("Failed to create upstream client", zap.Error(err))
	}

	// Credential provider
	secretsProvider, err := secrets.NewProvider(context.Background(), cfg.Secrets.SSMPath, cfg.Secrets.Region, log)
	if err != nil {
		log.Fatal("Failed to create secrets provider", zap.Error(err))
	}

	// Snapshot store and reconciler
	store, err := storage.NewSnapshotStore(&cfg.Cache, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create snapshot store", zap.Error(err))
	}
	reconciler := cache.NewReconciler(store, log)

	// Application services
	processor := chart.NewProcessor(cfg.Chart.OmitCodes, cfg.Chart.OtherCode, cfg.Chart.NoProgramCode, log)
	chartService := chartapp.NewService(upstream, secretsProvider, reconciler, processor, cfg.Cache.ChartKey, log)
	reportService := reportapp.NewService(upstream, secretsProvider, reconciler, chartService, cfg.Cache.BalanceKey, log)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	coaHandler := handler.NewCOAHandler(chartService, reportService, handler.OptionDefaults{
		HideInactive:  cfg.Chart.DefaultHideInactive,
		ShowOther:     cfg.Chart.DefaultShowOther,
		ShowNoProgram: cfg.Chart.DefaultShowNoProgram,
	}, log)
	router.NewRouter(engine).Register(coaHandler).Setup()
	handler.NewHealthHandler(version).Register(engine)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
