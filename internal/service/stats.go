package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// StatsService реализует обращения к эндпоинтам /stats/*
type StatsService struct {
	backend domain.BackendClient
	logger  *zap.Logger
}

// NewStatsService создаёт новый экземпляр StatsService
func NewStatsService(backend domain.BackendClient, logger *zap.Logger) *StatsService {
	return &StatsService{
		backend: backend,
		logger:  logger,
	}
}

// Overview возвращает сводную статистику за период
func (s *StatsService) Overview(ctx context.Context, period domain.PeriodSelection) (*domain.OverviewStats, error) {
	var out domain.OverviewStats
	if err := s.backend.Get(ctx, "/stats/overview", periodParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get overview stats: %w", err)
	}
	return &out, nil
}

// Sales возвращает продажи за период с группировкой groupBy
func (s *StatsService) Sales(ctx context.Context, period domain.PeriodSelection, groupBy string) (*domain.SalesStats, error) {
	params := periodParams(period).Set("groupBy", groupBy)

	var out domain.SalesStats
	if err := s.backend.Get(ctx, "/stats/sales", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get sales stats: %w", err)
	}
	return &out, nil
}

// TopSelling возвращает самые продаваемые позиции
func (s *StatsService) TopSelling(ctx context.Context, period domain.PeriodSelection, limit int) ([]domain.TopSellingItem, error) {
	params := periodParams(period).SetInt("limit", limit)

	var out []domain.TopSellingItem
	if err := s.backend.Get(ctx, "/stats/top-selling", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get top selling items: %w", err)
	}
	return out, nil
}

// PerformanceComplete возвращает полный отчёт о производительности.
// Этот эндпоинт добавляет лишний уровень data, его снимает apiclient.Unwrap.
func (s *StatsService) PerformanceComplete(ctx context.Context, period domain.PeriodSelection) (*domain.PerformanceStats, error) {
	var out domain.PerformanceStats
	if err := s.backend.Get(ctx, "/stats/performance-complete", periodParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get performance stats: %w", err)
	}
	return &out, nil
}

// PaymentMethods возвращает итоги по способам оплаты
func (s *StatsService) PaymentMethods(ctx context.Context, period domain.PeriodSelection) ([]domain.PaymentMethodStat, error) {
	var out []domain.PaymentMethodStat
	if err := s.backend.Get(ctx, "/stats/payment-methods", periodParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get payment method stats: %w", err)
	}
	return out, nil
}

// PreparationTime возвращает время приготовления
func (s *StatsService) PreparationTime(ctx context.Context, period domain.PeriodSelection) (*domain.PreparationTimeStats, error) {
	var out domain.PreparationTimeStats
	if err := s.backend.Get(ctx, "/stats/preparation-time", periodParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get preparation time stats: %w", err)
	}
	return &out, nil
}

// Comparison сравнивает период с предыдущим периодом той же длины
func (s *StatsService) Comparison(ctx context.Context, period domain.PeriodSelection) (*domain.ComparisonStats, error) {
	var out domain.ComparisonStats
	if err := s.backend.Get(ctx, "/stats/comparison", periodParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get comparison stats: %w", err)
	}
	return &out, nil
}

// StockStats возвращает сводку по складу
func (s *StatsService) StockStats(ctx context.Context) (*domain.StockStats, error) {
	var out domain.StockStats
	if err := s.backend.Get(ctx, "/stats/stock", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get stock stats: %w", err)
	}
	return &out, nil
}

// Expenses возвращает расходы за период; эндпоинт ожидает dateDebut/dateFin
func (s *StatsService) Expenses(ctx context.Context, period domain.PeriodSelection) (*domain.ExpenseStats, error) {
	var out domain.ExpenseStats
	if err := s.backend.Get(ctx, "/stats/expenses", frenchRangeParams(period).Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get expense stats: %w", err)
	}
	return &out, nil
}

// Personnel возвращает статистику по персоналу.
// Ошибка бэкенда возвращается как есть, без подстановки демонстрационных данных.
func (s *StatsService) Personnel(ctx context.Context, period domain.PeriodSelection) (*domain.PersonnelStats, error) {
	var out domain.PersonnelStats
	if err := s.backend.Get(ctx, "/stats/personnel", periodParams(period).Values(), &out); err != nil {
		s.logger.Warn("personnel stats unavailable", zap.Error(err))
		return nil, fmt.Errorf("failed to get personnel stats: %w", err)
	}
	return &out, nil
}

// Export выгружает статистику за период в указанном формате (csv, xlsx, pdf)
func (s *StatsService) Export(ctx context.Context, period domain.PeriodSelection, format string) (*domain.ExportFile, error) {
	params := periodParams(period).Set("format", format)

	file, err := s.backend.Download(ctx, "/stats/export", params.Values())
	if err != nil {
		return nil, fmt.Errorf("failed to export stats: %w", err)
	}
	if file.Filename == "" {
		ext := format
		if ext == "" {
			ext = "csv"
		}
		file.Filename = fmt.Sprintf("statistiques-%s.%s", periodSlug(period), ext)
	}

	s.logger.Info("stats exported",
		zap.String("filename", file.Filename),
		zap.Int("bytes", len(file.Data)))

	return file, nil
}

// ClearCache сбрасывает кэш статистики на стороне бэкенда
func (s *StatsService) ClearCache(ctx context.Context) error {
	if err := s.backend.Send(ctx, http.MethodPost, "/stats/clear-cache", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to clear backend stats cache: %w", err)
	}
	s.logger.Info("backend stats cache cleared")
	return nil
}

// periodParams переводит выбор периода в periode/startDate/endDate
func periodParams(period domain.PeriodSelection) *apiclient.Params {
	p := apiclient.NewParams()
	switch period.Mode {
	case domain.PeriodQuick:
		p.Set("periode", period.Value)
	case domain.PeriodDate:
		p.Set("startDate", period.Value).Set("endDate", period.Value)
	case domain.PeriodRange:
		p.Set("startDate", period.Range.StartDate).Set("endDate", period.Range.EndDate)
	}
	return p
}

func periodSlug(period domain.PeriodSelection) string {
	if period.Mode == domain.PeriodRange {
		return period.Range.StartDate + "_" + period.Range.EndDate
	}
	return period.Value
}

// frenchRangeParams - то же для эндпоинтов с dateDebut/dateFin
func frenchRangeParams(period domain.PeriodSelection) *apiclient.Params {
	p := apiclient.NewParams()
	switch period.Mode {
	case domain.PeriodQuick:
		p.Set("periode", period.Value)
	case domain.PeriodDate:
		p.Set("dateDebut", period.Value).Set("dateFin", period.Value)
	case domain.PeriodRange:
		p.Set("dateDebut", period.Range.StartDate).Set("dateFin", period.Range.EndDate)
	}
	return p
}
