package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/cache"
	"github.com/KruglovEgor/RestoStats/internal/config"
	"github.com/KruglovEgor/RestoStats/internal/dashboard"
	"github.com/KruglovEgor/RestoStats/internal/handler"
	"github.com/KruglovEgor/RestoStats/internal/ratelimit"
	"github.com/KruglovEgor/RestoStats/internal/repository/postgres"
	"github.com/KruglovEgor/RestoStats/internal/service"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
	"github.com/KruglovEgor/RestoStats/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting application",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("log_level", cfg.App.LogLevel),
		zap.String("backend", cfg.Backend.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Метрики
	meterProvider, shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ExportInterval: cfg.Telemetry.ExportInterval,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// Запуск миграций
	if err := postgres.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.MigrateURL(), postgres.MigrateUp, logger); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Подключение к БД
	db, err := postgres.NewDB(ctx, postgres.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Инициализация зависимостей
	app, err := initApp(ctx, cfg, db, metrics, logger)
	if err != nil {
		return err
	}

	app.dashboard.Start(ctx)
	defer app.dashboard.Stop()

	// Создание HTTP сервера
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("starting HTTP server", zap.String("address", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}

// App содержит все зависимости приложения
type App struct {
	router    http.Handler
	dashboard *dashboard.Dashboard
}

// initApp инициализирует приложение
func initApp(ctx context.Context, cfg *config.Config, db *sql.DB, metrics *telemetry.Metrics, logger *zap.Logger) (*App, error) {
	// Token store
	txManager := postgres.NewTxManager(db)
	tokens := postgres.NewTokenRepository(db, txManager)
	if cfg.Backend.Token != "" {
		if err := tokens.Save(ctx, cfg.Backend.Token); err != nil {
			return nil, fmt.Errorf("failed to store initial token: %w", err)
		}
		logger.Info("initial backend token stored")
	}

	// Backend client
	client, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
		RetryDelay: cfg.Backend.RetryDelay,
		UserAgent:  cfg.Backend.UserAgent,
	}, tokens, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	// Cache and rate limiter
	responseCache := cache.New(cache.Config{
		TTLs: map[string]time.Duration{
			cache.FamilyStats:     cfg.Cache.StatsTTL,
			cache.FamilyLists:     cfg.Cache.ListsTTL,
			cache.FamilyPersonnel: cfg.Cache.PersonnelTTL,
			cache.FamilyRecettes:  cfg.Cache.RecettesTTL,
		},
		DefaultTTL: cfg.Cache.StatsTTL,
	}, logger, metrics)
	responseCache.StartJanitor(ctx, cfg.Cache.SweepInterval)

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	viewers := watcher.NewViewerTracker(cfg.Watcher.ViewerIdle)

	// Services
	statsService := service.NewStatsService(client, logger)
	recettesService := service.NewRecettesService(client, logger)
	stockService := service.NewStockService(client, logger)
	notificationService := service.NewNotificationService(client, logger)

	// Dashboard
	loader := dashboard.NewLoader(statsService, recettesService, stockService, notificationService,
		responseCache, cfg.Watcher.TopSellingLimit)
	dash := dashboard.New(loader, dashboard.Options{
		InitialDelay:             cfg.Watcher.InitialDelay,
		RecettesPollInterval:     cfg.Watcher.RecettesPollInterval,
		SynchronizedPollInterval: cfg.Watcher.SynchronizedPollInterval,
		RefreshOnVisible:         cfg.Watcher.RefreshOnVisible,
	}, watcher.Deps{
		Limiter:    limiter,
		Visibility: viewers,
		Logger:     logger,
		Metrics:    metrics,
	})

	// Handlers
	handlers := handler.Handlers{
		Dashboard: handler.NewDashboardHandler(dash, cfg.Server.WaitTimeout, logger),
		Auth:      handler.NewAuthHandler(tokens, loader, logger),
		Stats:     handler.NewStatsHandler(statsService, loader, logger),
		Lists:     handler.NewListsHandler(loader, notificationService, logger),
	}

	// Router
	router := handler.Router(handlers, viewers, cfg.Server.RequestTimeout, logger)

	return &App{
		router:    router,
		dashboard: dash,
	}, nil
}

// initLogger инициализирует структурированный логгер
func initLogger(level string) (*zap.Logger, error) {
	var zapConfig zap.Config

	if level == "debug" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	// Парсим уровень логирования
	if err := zapConfig.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
