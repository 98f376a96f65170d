// Package cli содержит команды statsctl
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/config"
	"github.com/KruglovEgor/RestoStats/internal/repository/memory"
	"github.com/KruglovEgor/RestoStats/internal/service"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "statsctl",
	Short: "Command line client for the restaurant statistics backend",
	Long: `statsctl queries the restaurant POS statistics API directly.

It uses the same configuration as the dashboard service (environment and .env),
while the access token comes from --token or BACKEND_TOKEN.

Examples:
  statsctl overview --period this_week
  statsctl recettes --date 2024-06-01 --group-by day
  statsctl compare --date 2024-06-01
  statsctl stock --categorie boissons
  statsctl export --from 2024-06-01 --to 2024-06-30 --format xlsx`,
	SilenceUsage: true,
}

// Global flags
var (
	flagToken      string
	flagBackendURL string
	flagLogLevel   string
)

// Execute запускает корневую команду; SIGINT отменяет запрос к бэкенду
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Backend access token (defaults to BACKEND_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagBackendURL, "backend-url", "", "Backend base URL (defaults to BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(salesCmd)
	rootCmd.AddCommand(recettesCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(migrateCmd)
}

// env - зависимости одной команды
type env struct {
	cfg           *config.Config
	logger        *zap.Logger
	stats         *service.StatsService
	recettes      *service.RecettesService
	stock         *service.StockService
	notifications *service.NotificationService
	scheduler     *service.SchedulerService
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagBackendURL != "" {
		cfg.Backend.BaseURL = flagBackendURL
	}
	if flagToken != "" {
		cfg.Backend.Token = flagToken
	}

	logger, err := newLogger(flagLogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newEnv() (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
		RetryDelay: cfg.Backend.RetryDelay,
		UserAgent:  cfg.Backend.UserAgent,
	}, memory.NewTokenStore(cfg.Backend.Token), logger, telemetry.NewNoop())
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:           cfg,
		logger:        logger,
		stats:         service.NewStatsService(client, logger),
		recettes:      service.NewRecettesService(client, logger),
		stock:         service.NewStockService(client, logger),
		notifications: service.NewNotificationService(client, logger),
		scheduler:     service.NewSchedulerService(client, logger),
	}, nil
}

// newLogger пишет в stderr, чтобы stdout оставался для результата
func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = "console"
	zapConfig.DisableStacktrace = true

	if err := zapConfig.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
