package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию приложения
type Config struct {
	// Server конфигурация HTTP сервера
	Server ServerConfig

	// Database конфигурация PostgreSQL (хранилище токена)
	Database DatabaseConfig

	// App конфигурация приложения
	App AppConfig

	// Backend конфигурация REST API кассы
	Backend BackendConfig

	// Cache время жизни записей по семействам
	Cache CacheConfig

	// RateLimit локальный ограничитель запросов
	RateLimit RateLimitConfig

	// Watcher интервалы наблюдателей дашборда
	Watcher WatcherConfig

	// Telemetry экспорт метрик OpenTelemetry
	Telemetry TelemetryConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Host           string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout    time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"25s"`
	// WaitTimeout ограничивает ожидание загрузки наблюдателя в обработчике
	WaitTimeout time.Duration `envconfig:"SERVER_WAIT_TIMEOUT" default:"15s"`
}

// DatabaseConfig конфигурация PostgreSQL
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"postgres"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"restostats"`
	Password        string        `envconfig:"DB_PASSWORD" default:"password"`
	Name            string        `envconfig:"DB_NAME" default:"restostats"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	MigrationsPath  string        `envconfig:"DB_MIGRATIONS_PATH" default:"file://migrations"`
}

// AppConfig конфигурация приложения
type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

// BackendConfig конфигурация клиента бэкенда
type BackendConfig struct {
	BaseURL    string        `envconfig:"BACKEND_BASE_URL" default:"https://api.resto-pos.example.com/api"`
	Timeout    time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"BACKEND_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `envconfig:"BACKEND_RETRY_DELAY" default:"1s"`
	UserAgent  string        `envconfig:"BACKEND_USER_AGENT" default:"restostats"`
	// Token - начальный токен; сохраняется в хранилище при старте, если задан
	Token string `envconfig:"BACKEND_TOKEN"`
}

// CacheConfig время жизни записей кэша
type CacheConfig struct {
	StatsTTL      time.Duration `envconfig:"CACHE_STATS_TTL" default:"1m"`
	ListsTTL      time.Duration `envconfig:"CACHE_LISTS_TTL" default:"4m"`
	PersonnelTTL  time.Duration `envconfig:"CACHE_PERSONNEL_TTL" default:"45s"`
	RecettesTTL   time.Duration `envconfig:"CACHE_RECETTES_TTL" default:"0s"`
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"1m"`
}

// RateLimitConfig ограничение числа загрузок на эндпоинт
type RateLimitConfig struct {
	MaxRequests int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"10"`
	Window      time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// WatcherConfig интервалы наблюдателей
type WatcherConfig struct {
	InitialDelay             time.Duration `envconfig:"WATCHER_INITIAL_DELAY" default:"200ms"`
	RecettesPollInterval     time.Duration `envconfig:"WATCHER_RECETTES_POLL_INTERVAL" default:"30s"`
	SynchronizedPollInterval time.Duration `envconfig:"WATCHER_SYNCHRONIZED_POLL_INTERVAL" default:"1m"`
	ViewerIdle               time.Duration `envconfig:"WATCHER_VIEWER_IDLE" default:"1m"`
	RefreshOnVisible         bool          `envconfig:"WATCHER_REFRESH_ON_VISIBLE" default:"true"`
	TopSellingLimit          int           `envconfig:"WATCHER_TOP_SELLING_LIMIT" default:"10"`
}

// TelemetryConfig экспорт метрик
type TelemetryConfig struct {
	Enabled        bool          `envconfig:"OTEL_METRICS_ENABLED" default:"false"`
	Endpoint       string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Insecure       bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	ExportInterval time.Duration `envconfig:"OTEL_METRIC_EXPORT_INTERVAL" default:"30s"`
}

// Address возвращает адрес для прослушивания HTTP сервера
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// MigrateURL возвращает URL базы в формате golang-migrate
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Validate проверяет значения, которые нельзя выразить тегами default
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative, got %d", c.Backend.MaxRetries)
	}
	return nil
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// переменные окружения имеют приоритет над .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
