package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
)

// AdvancedData - данные экрана расширенной статистики
type AdvancedData struct {
	Overview    *domain.OverviewStats    `json:"overview"`
	Sales       *domain.SalesStats       `json:"sales"`
	TopSelling  []domain.TopSellingItem  `json:"topSelling"`
	Performance *domain.PerformanceStats `json:"performance"`
}

// Advanced загружает четыре блока параллельно. Ошибка любого блока
// отменяет остальные и возвращается целиком.
func (l *Loader) Advanced(ctx context.Context, p domain.PeriodSelection) (AdvancedData, error) {
	var out AdvancedData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := l.Overview(gctx, p)
		out.Overview = v
		return err
	})
	g.Go(func() error {
		v, err := l.Sales(gctx, p, string(aggregation.ByDay))
		out.Sales = v
		return err
	})
	g.Go(func() error {
		v, err := l.TopSelling(gctx, p)
		out.TopSelling = v
		return err
	})
	g.Go(func() error {
		v, err := l.Performance(gctx, p)
		out.Performance = v
		return err
	})

	if err := g.Wait(); err != nil {
		return AdvancedData{}, err
	}
	return out, nil
}

// CaisseData - данные кассы за день со сравнением с предыдущим днём
type CaisseData struct {
	Date     string                         `json:"date"`
	Overview domain.OverviewStats           `json:"overview"`
	Previous domain.OverviewStats           `json:"previous"`
	Deltas   aggregation.TotalsDelta        `json:"deltas"`
	Payments []aggregation.PaymentBreakdown `json:"payments"`
}

// Caisse загружает кассу за дату date (YYYY-MM-DD)
func (l *Loader) Caisse(ctx context.Context, date string) (CaisseData, error) {
	prev, err := domain.PreviousDay(date)
	if err != nil {
		return CaisseData{}, err
	}

	var (
		current  *domain.OverviewStats
		previous *domain.OverviewStats
		payments []domain.PaymentMethodStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := l.Overview(gctx, domain.SingleDate(date))
		current = v
		return err
	})
	g.Go(func() error {
		v, err := l.Overview(gctx, domain.SingleDate(prev))
		previous = v
		return err
	})
	g.Go(func() error {
		v, err := l.PaymentMethods(gctx, domain.SingleDate(date))
		payments = v
		return err
	})
	if err := g.Wait(); err != nil {
		return CaisseData{}, err
	}
	if current == nil || previous == nil {
		return CaisseData{}, fmt.Errorf("%w: empty overview for %s", domain.ErrBackend, date)
	}

	return CaisseData{
		Date:     date,
		Overview: *current,
		Previous: *previous,
		Deltas:   aggregation.CompareTotals(current.Totals(), previous.Totals()),
		Payments: aggregation.PaymentShares(payments),
	}, nil
}

// RecettesView - выручка с производными рядами для графиков
type RecettesView struct {
	domain.StatResult[[]domain.DateGroupRecord]
	Series  []domain.DualSeriesPoint `json:"series"`
	Revenue []domain.SeriesPoint     `json:"revenue"`
	Orders  []domain.SeriesPoint     `json:"orders"`
	Summary aggregation.Summary      `json:"summary"`
}

// BuildRecettesView строит ряды по текущему состоянию наблюдателя выручки.
// q - параметры, с которыми загружены данные (Watcher.DataParams). Если
// группировка записей с ними не совпадает, подписи строятся по записям.
func BuildRecettesView(state domain.StatResult[[]domain.DateGroupRecord], q service.RecettesQuery) RecettesView {
	view := RecettesView{
		StatResult: state,
		Series:     []domain.DualSeriesPoint{},
		Revenue:    []domain.SeriesPoint{},
		Orders:     []domain.SeriesPoint{},
	}
	if state.Data == nil {
		return view
	}

	records := *state.Data
	g, err := aggregation.ParseGranularity(q.GroupBy)
	if detected := aggregation.DetectGranularity(records); err != nil || (len(records) > 0 && detected != g) {
		g = detected
	}
	view.Series = aggregation.FlattenDateGroups(records, g)
	view.Revenue = aggregation.RevenueSeries(records, g)
	view.Orders = aggregation.OrdersSeries(records, g)
	view.Summary = aggregation.SummarizeSeries(records)
	return view
}
