package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

type refreshKey struct{}

// WithRefresh помечает контекст: Fetch пропускает чтение из кэша,
// но сохраняет свежий результат и объединяет одновременные вызовы.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// Fetch возвращает значение из кэша или загружает его через fn.
// Одновременные вызовы с одним ключом разделяют один вызов fn.
// Отмена ctx прекращает ожидание вызывающего, но не общую загрузку.
func Fetch[T any](ctx context.Context, c *Cache, family, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	useCache := c.TTL(family) > 0 && !refreshRequested(ctx)
	if useCache {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				c.metrics.CacheHit(ctx, family)
				return typed, nil
			}
		}
	}
	c.metrics.CacheMiss(ctx, family)

	// Загрузка не наследует отмену вызывающего: её результат нужен всем ожидающим.
	loadCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		c.MarkInFlight(key)
		defer c.ClearInFlight(key)

		// предыдущая загрузка могла завершиться между проверкой и DoChan
		if useCache {
			if v, ok := c.Get(key); ok {
				return v, nil
			}
		}

		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(family, key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.InFlightShared(ctx, family)
			c.logger.Debug("reused in-flight request", zap.String("key", key))
		}
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			// один ключ используется для значений разных типов
			c.logger.Error("cached value type mismatch",
				zap.String("key", key),
				zap.String("type", fmt.Sprintf("%T", res.Val)))
			return zero, fmt.Errorf("%w: value for key %q has type %T, want %T", domain.ErrBackend, key, res.Val, zero)
		}
		return typed, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
