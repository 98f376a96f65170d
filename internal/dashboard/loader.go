// Package dashboard собирает наблюдателей статистики для экранов бэк-офиса:
// расширенная статистика, касса, выручка и синхронизированная сводка.
package dashboard

import (
	"context"
	"strconv"

	"github.com/KruglovEgor/RestoStats/internal/cache"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
)

// StatsSource - эндпоинты /stats/*, нужные дашбордам
type StatsSource interface {
	Overview(ctx context.Context, period domain.PeriodSelection) (*domain.OverviewStats, error)
	Sales(ctx context.Context, period domain.PeriodSelection, groupBy string) (*domain.SalesStats, error)
	TopSelling(ctx context.Context, period domain.PeriodSelection, limit int) ([]domain.TopSellingItem, error)
	PerformanceComplete(ctx context.Context, period domain.PeriodSelection) (*domain.PerformanceStats, error)
	PaymentMethods(ctx context.Context, period domain.PeriodSelection) ([]domain.PaymentMethodStat, error)
	Personnel(ctx context.Context, period domain.PeriodSelection) (*domain.PersonnelStats, error)
	PreparationTime(ctx context.Context, period domain.PeriodSelection) (*domain.PreparationTimeStats, error)
	Comparison(ctx context.Context, period domain.PeriodSelection) (*domain.ComparisonStats, error)
	StockStats(ctx context.Context) (*domain.StockStats, error)
}

// RecettesSource - эндпоинт /recettes
type RecettesSource interface {
	Recettes(ctx context.Context, q service.RecettesQuery) ([]domain.DateGroupRecord, error)
}

// ListsSource - списки бэк-офиса с кэшем семейства lists
type ListsSource interface {
	List(ctx context.Context, categorie string) ([]domain.StockItem, error)
	Alerts(ctx context.Context) ([]domain.StockAlert, error)
}

// NotificationsSource - уведомления
type NotificationsSource interface {
	List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error)
}

// Loader оборачивает сервисы кэшем и дедупликацией запросов
type Loader struct {
	stats         StatsSource
	recettes      RecettesSource
	stock         ListsSource
	notifications NotificationsSource
	cache         *cache.Cache
	topLimit      int
}

// NewLoader создаёт Loader
func NewLoader(stats StatsSource, recettes RecettesSource, stock ListsSource, notifications NotificationsSource, c *cache.Cache, topLimit int) *Loader {
	if topLimit <= 0 {
		topLimit = 10
	}
	return &Loader{
		stats:         stats,
		recettes:      recettes,
		stock:         stock,
		notifications: notifications,
		cache:         c,
		topLimit:      topLimit,
	}
}

// Overview возвращает сводку за период
func (l *Loader) Overview(ctx context.Context, p domain.PeriodSelection) (*domain.OverviewStats, error) {
	key := cache.Key(cache.FamilyStats, "overview", p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.OverviewStats, error) {
		return l.stats.Overview(ctx, p)
	})
}

// Sales возвращает продажи за период
func (l *Loader) Sales(ctx context.Context, p domain.PeriodSelection, groupBy string) (*domain.SalesStats, error) {
	key := cache.Key(cache.FamilyStats, "sales", p.Key(), groupBy)
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.SalesStats, error) {
		return l.stats.Sales(ctx, p, groupBy)
	})
}

// TopSelling возвращает рейтинг продаж
func (l *Loader) TopSelling(ctx context.Context, p domain.PeriodSelection) ([]domain.TopSellingItem, error) {
	key := cache.Key(cache.FamilyStats, "top-selling", p.Key(), strconv.Itoa(l.topLimit))
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) ([]domain.TopSellingItem, error) {
		return l.stats.TopSelling(ctx, p, l.topLimit)
	})
}

// Performance возвращает отчёт о производительности
func (l *Loader) Performance(ctx context.Context, p domain.PeriodSelection) (*domain.PerformanceStats, error) {
	key := cache.Key(cache.FamilyStats, "performance", p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.PerformanceStats, error) {
		return l.stats.PerformanceComplete(ctx, p)
	})
}

// PaymentMethods возвращает итоги по способам оплаты
func (l *Loader) PaymentMethods(ctx context.Context, p domain.PeriodSelection) ([]domain.PaymentMethodStat, error) {
	key := cache.Key(cache.FamilyStats, "payment-methods", p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) ([]domain.PaymentMethodStat, error) {
		return l.stats.PaymentMethods(ctx, p)
	})
}

// Personnel возвращает статистику по персоналу
func (l *Loader) Personnel(ctx context.Context, p domain.PeriodSelection) (*domain.PersonnelStats, error) {
	key := cache.Key(cache.FamilyPersonnel, p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyPersonnel, key, func(ctx context.Context) (*domain.PersonnelStats, error) {
		return l.stats.Personnel(ctx, p)
	})
}

// PreparationTime возвращает время приготовления за период
func (l *Loader) PreparationTime(ctx context.Context, p domain.PeriodSelection) (*domain.PreparationTimeStats, error) {
	key := cache.Key(cache.FamilyStats, "preparation-time", p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.PreparationTimeStats, error) {
		return l.stats.PreparationTime(ctx, p)
	})
}

// Comparison возвращает итоги периода и предыдущего периода той же длины
func (l *Loader) Comparison(ctx context.Context, p domain.PeriodSelection) (*domain.ComparisonStats, error) {
	key := cache.Key(cache.FamilyStats, "comparison", p.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.ComparisonStats, error) {
		return l.stats.Comparison(ctx, p)
	})
}

// StockStats возвращает сводку по складу
func (l *Loader) StockStats(ctx context.Context) (*domain.StockStats, error) {
	key := cache.Key(cache.FamilyStats, "stock")
	return cache.Fetch(ctx, l.cache, cache.FamilyStats, key, func(ctx context.Context) (*domain.StockStats, error) {
		return l.stats.StockStats(ctx)
	})
}

// Recettes возвращает выручку. Семейство recettes не кэшируется,
// но одновременные запросы объединяются.
func (l *Loader) Recettes(ctx context.Context, q service.RecettesQuery) ([]domain.DateGroupRecord, error) {
	key := cache.Key(cache.FamilyRecettes, q.Key())
	return cache.Fetch(ctx, l.cache, cache.FamilyRecettes, key, func(ctx context.Context) ([]domain.DateGroupRecord, error) {
		return l.recettes.Recettes(ctx, q)
	})
}

// Stock возвращает складские позиции категории (все при пустой категории)
func (l *Loader) Stock(ctx context.Context, categorie string) ([]domain.StockItem, error) {
	key := cache.Key(cache.FamilyLists, "stock", categorie)
	return cache.Fetch(ctx, l.cache, cache.FamilyLists, key, func(ctx context.Context) ([]domain.StockItem, error) {
		return l.stock.List(ctx, categorie)
	})
}

// StockAlerts возвращает складские алерты
func (l *Loader) StockAlerts(ctx context.Context) ([]domain.StockAlert, error) {
	key := cache.Key(cache.FamilyLists, "stock-alerts")
	return cache.Fetch(ctx, l.cache, cache.FamilyLists, key, func(ctx context.Context) ([]domain.StockAlert, error) {
		return l.stock.Alerts(ctx)
	})
}

// Notifications возвращает уведомления
func (l *Loader) Notifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	key := cache.Key(cache.FamilyLists, "notifications", strconv.FormatBool(unreadOnly))
	return cache.Fetch(ctx, l.cache, cache.FamilyLists, key, func(ctx context.Context) ([]domain.Notification, error) {
		return l.notifications.List(ctx, unreadOnly)
	})
}

// InvalidateNotifications сбрасывает кэш уведомлений после изменений
func (l *Loader) InvalidateNotifications() int {
	return l.cache.Invalidate(cache.Key(cache.FamilyLists, "notifications"))
}

// ClearCache сбрасывает все семейства кэша и возвращает число удалённых записей
func (l *Loader) ClearCache() int {
	removed := 0
	for _, family := range []string{cache.FamilyStats, cache.FamilyLists, cache.FamilyPersonnel, cache.FamilyRecettes} {
		removed += l.cache.Invalidate(family + ":")
	}
	return removed
}
