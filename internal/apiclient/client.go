// Package apiclient - единый HTTP-клиент REST API бэкенда кассы:
// подставляет Bearer-токен, сбрасывает его при 401 и повторяет запросы при 429.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
)

const (
	// DefaultMaxRetries - число повторов при ответе 429
	DefaultMaxRetries = 2
	// DefaultRetryDelay - задержка перед первым повтором, далее удваивается
	DefaultRetryDelay = time.Second

	maxErrorBody = 4 << 10
)

// Config содержит параметры клиента
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// Client реализует domain.BackendClient поверх net/http
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     domain.TokenStore
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	maxRetries int
	retryDelay time.Duration
	userAgent  string
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет транспортный клиент
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSleep подменяет ожидание между повторами
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// New создаёт клиент
func New(cfg Config, tokens domain.TokenStore, logger *zap.Logger, metrics *telemetry.Metrics, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: scheme and host are required", cfg.BaseURL)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		tokens:     tokens,
		logger:     logger,
		metrics:    metrics,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		userAgent:  cfg.UserAgent,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get выполняет GET и декодирует развёрнутую нагрузку в out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	body, _, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodePayload(body, out)
}

// Send выполняет запрос-действие; out может быть nil
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	respBody, _, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	return decodePayload(respBody, out)
}

// Download выполняет GET и возвращает тело как файл
func (c *Client) Download(ctx context.Context, path string, query url.Values) (*domain.ExportFile, error) {
	body, header, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	file := &domain.ExportFile{
		ContentType: header.Get("Content-Type"),
		Data:        body,
	}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	return file, nil
}

// do выполняет запрос с повторами при 429 и возвращает тело успешного ответа
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, http.Header, error) {
	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		body, header, err := c.doOnce(ctx, method, path, query, payload)
		if err == nil {
			return body, header, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return nil, nil, err
		}

		c.logger.Warn("backend throttled request, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))

		if err := c.sleep(ctx, delay); err != nil {
			return nil, nil, err
		}
		delay *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, http.Header, error) {
	req, err := c.newRequest(ctx, method, path, query, payload)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.BackendRequest(ctx, method, path, 0, time.Since(start))
		return nil, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrBackend, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.BackendRequest(ctx, method, path, resp.StatusCode, elapsed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response body: %v", domain.ErrBackend, err)
	}

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp.Header, nil
	}

	apiErr := newAPIError(method, path, resp.StatusCode, body)
	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken(ctx)
	}
	return nil, nil, apiErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.tokens != nil {
		token, err := c.tokens.Get(ctx)
		if err != nil {
			c.logger.Warn("failed to read backend token", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

func (c *Client) clearToken(ctx context.Context) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error("failed to clear backend token after 401", zap.Error(err))
		return
	}
	c.logger.Warn("backend rejected token, stored token cleared")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
