// Package aggregation преобразует сгруппированные ответы бэкенда в ряды
// для графиков и карточек. Функции пакета не выполняют ввода-вывода.
package aggregation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// Granularity - шаг группировки записей
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

// ParseGranularity разбирает значение groupBy; пустая строка означает день
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "", "day":
		return ByDay, nil
	case "week":
		return ByWeek, nil
	case "month":
		return ByMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown groupBy %q", domain.ErrInvalidInput, s)
	}
}

var monthAbbr = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// DateLabel форматирует ключ группы для подписи графика.
// День: "D/M"; неделя: "S<n> <год>"; месяц: сокращение месяца и год.
func DateLabel(id domain.DateGroupID, g Granularity) string {
	switch g {
	case ByMonth:
		if id.Month < 1 || id.Month > 12 {
			return fmt.Sprintf("%d", id.Year)
		}
		return fmt.Sprintf("%s %d", monthAbbr[id.Month-1], id.Year)
	case ByWeek:
		return fmt.Sprintf("S%d %d", id.Week, id.Year)
	default:
		return fmt.Sprintf("%d/%d", id.Day, id.Month)
	}
}

// DetectGranularity определяет шаг по первой записи
func DetectGranularity(records []domain.DateGroupRecord) Granularity {
	if len(records) == 0 {
		return ByDay
	}
	id := records[0].ID
	switch {
	case id.Day > 0:
		return ByDay
	case id.Week > 0:
		return ByWeek
	default:
		return ByMonth
	}
}

// FlattenDateGroups превращает записи в точки с количеством заказов и выручкой.
// Порядок входа сохраняется: бэкенд уже отдаёт записи хронологически.
func FlattenDateGroups(records []domain.DateGroupRecord, g Granularity) []domain.DualSeriesPoint {
	points := make([]domain.DualSeriesPoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.DualSeriesPoint{
			Date:      DateLabel(r.ID, g),
			Commandes: r.Commandes,
			Recettes:  r.Recettes,
		})
	}
	return points
}

// RevenueSeries возвращает ряд выручки
func RevenueSeries(records []domain.DateGroupRecord, g Granularity) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.SeriesPoint{Date: DateLabel(r.ID, g), Value: r.Recettes})
	}
	return points
}

// OrdersSeries возвращает ряд количества заказов
func OrdersSeries(records []domain.DateGroupRecord, g Granularity) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.SeriesPoint{Date: DateLabel(r.ID, g), Value: float64(r.Commandes)})
	}
	return points
}

// Summary - итоги ряда для карточек
type Summary struct {
	Commandes   int     `json:"commandes"`
	Recettes    float64 `json:"recettes"`
	PanierMoyen float64 `json:"panierMoyen"`
	Points      int     `json:"points"`
}

// SummarizeSeries суммирует записи. Денежные суммы считаются в decimal
// и округляются до двух знаков.
func SummarizeSeries(records []domain.DateGroupRecord) Summary {
	total := decimal.Zero
	commandes := 0
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Recettes))
		commandes += r.Commandes
	}

	panier := decimal.Zero
	if commandes > 0 {
		panier = total.Div(decimal.NewFromInt(int64(commandes)))
	}

	return Summary{
		Commandes:   commandes,
		Recettes:    total.Round(2).InexactFloat64(),
		PanierMoyen: panier.Round(2).InexactFloat64(),
		Points:      len(records),
	}
}
