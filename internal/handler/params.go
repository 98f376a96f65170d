package handler

import (
	"net/http"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// parsePeriod читает выбор периода из query: mode, value, date, startDate, endDate.
// Без mode режим определяется по заданным параметрам. ok == false, если период не задан.
func parsePeriod(r *http.Request) (period domain.PeriodSelection, ok bool, err error) {
	q := r.URL.Query()
	value := q.Get("value")
	date := q.Get("date")
	start, end := q.Get("startDate"), q.Get("endDate")

	var mode domain.PeriodMode
	switch m := q.Get("mode"); {
	case m != "":
		mode, err = domain.ParsePeriodMode(m)
		if err != nil {
			return domain.PeriodSelection{}, false, err
		}
	case start != "" || end != "":
		mode = domain.PeriodRange
	case date != "":
		mode = domain.PeriodDate
	case value != "":
		mode = domain.PeriodQuick
	default:
		return domain.PeriodSelection{}, false, nil
	}

	switch mode {
	case domain.PeriodQuick:
		period = domain.QuickPeriod(value)
	case domain.PeriodDate:
		if date == "" {
			date = value
		}
		period = domain.SingleDate(date)
	case domain.PeriodRange:
		period = domain.DateRangePeriod(start, end)
	}

	if err := period.Validate(); err != nil {
		return domain.PeriodSelection{}, false, err
	}
	return period, true, nil
}

// parseGroupBy проверяет параметр groupBy; пустое значение заменяется на fallback
func parseGroupBy(r *http.Request, fallback string) (string, error) {
	raw := r.URL.Query().Get("groupBy")
	if raw == "" {
		return fallback, nil
	}
	g, err := aggregation.ParseGranularity(raw)
	if err != nil {
		return "", err
	}
	return string(g), nil
}
