// Package cache содержит кэш ответов бэкенда с TTL по семействам данных
// и дедупликацией одновременных запросов с одинаковым ключом.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/KruglovEgor/RestoStats/internal/telemetry"
)

// Семейства данных с собственным TTL
const (
	FamilyStats     = "stats"
	FamilyLists     = "lists"
	FamilyPersonnel = "personnel"
	FamilyRecettes  = "recettes"
)

// Config задаёт TTL для каждого семейства. Нулевой TTL отключает кэширование,
// но одновременные запросы по-прежнему объединяются.
type Config struct {
	TTLs       map[string]time.Duration
	DefaultTTL time.Duration
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Cache - общий для процесса кэш и множество ключей, по которым идёт загрузка
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	inFlight   map[string]struct{}
	group      singleflight.Group
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
	metrics    *telemetry.Metrics
}

// Option настраивает Cache
type Option func(*Cache)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New создаёт кэш
func New(cfg Config, logger *zap.Logger, metrics *telemetry.Metrics, opts ...Option) *Cache {
	ttls := make(map[string]time.Duration, len(cfg.TTLs))
	for family, ttl := range cfg.TTLs {
		ttls[family] = ttl
	}

	c := &Cache{
		entries:    make(map[string]entry),
		inFlight:   make(map[string]struct{}),
		ttls:       ttls,
		defaultTTL: cfg.DefaultTTL,
		now:        time.Now,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key собирает ключ кэша из семейства и частей запроса
func Key(family string, parts ...string) string {
	return family + ":" + strings.Join(parts, "|")
}

// TTL возвращает время жизни записей семейства
func (c *Cache) TTL(family string) time.Duration {
	if ttl, ok := c.ttls[family]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get возвращает значение, если запись существует и не истекла.
// Истёкшие записи считаются промахом и удаляются.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set безусловно перезаписывает запись с TTL семейства
func (c *Cache) Set(family, key string, value any) {
	ttl := c.TTL(family)
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
}

// Delete удаляет запись
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Invalidate удаляет все записи с указанным префиксом и возвращает их число
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep удаляет истёкшие записи
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len возвращает число записей, включая ещё не удалённые истёкшие
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// IsInFlight сообщает, выполняется ли сейчас загрузка по ключу
func (c *Cache) IsInFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.inFlight[key]
	return ok
}

// MarkInFlight помечает ключ как загружаемый. Проверка и пометка выполняются
// под одной блокировкой; false означает, что загрузку уже ведёт другой вызов.
func (c *Cache) MarkInFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inFlight[key]; ok {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

// ClearInFlight снимает пометку загрузки
func (c *Cache) ClearInFlight(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, key)
}

// StartJanitor периодически вызывает Sweep до отмены контекста
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.Sweep(); removed > 0 {
					c.logger.Debug("cache sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
}
