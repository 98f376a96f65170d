package domain

import (
	"fmt"
	"time"
)

// DateLayout - формат календарной даты, принятый бэкендом
const DateLayout = "2006-01-02"

// PeriodMode определяет вариант выбора периода
type PeriodMode string

const (
	// PeriodQuick - именованный относительный период (today, this_week, ...)
	PeriodQuick PeriodMode = "quick"
	// PeriodDate - одна календарная дата
	PeriodDate PeriodMode = "date"
	// PeriodRange - включительный диапазон дат
	PeriodRange PeriodMode = "range"
)

// Именованные относительные периоды
const (
	QuickToday     = "today"
	QuickYesterday = "yesterday"
	QuickThisWeek  = "this_week"
	QuickThisMonth = "this_month"
	QuickThisYear  = "this_year"
)

// DateRange представляет включительный диапазон дат в формате YYYY-MM-DD
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// PeriodSelection - выбор периода из фильтров дашборда.
// Значение сравнимо через ==, что позволяет отслеживать смену параметров.
type PeriodSelection struct {
	Mode  PeriodMode `json:"mode"`
	Value string     `json:"value,omitempty"`
	Range DateRange  `json:"range,omitempty"`
}

// QuickPeriod создаёт выбор именованного периода
func QuickPeriod(value string) PeriodSelection {
	return PeriodSelection{Mode: PeriodQuick, Value: value}
}

// SingleDate создаёт выбор одной даты
func SingleDate(date string) PeriodSelection {
	return PeriodSelection{Mode: PeriodDate, Value: date}
}

// DateRangePeriod создаёт выбор диапазона дат
func DateRangePeriod(startDate, endDate string) PeriodSelection {
	return PeriodSelection{Mode: PeriodRange, Range: DateRange{StartDate: startDate, EndDate: endDate}}
}

// ParsePeriodMode разбирает режим периода; "single" принимается как синоним "date"
func ParsePeriodMode(s string) (PeriodMode, error) {
	switch s {
	case "quick":
		return PeriodQuick, nil
	case "date", "single":
		return PeriodDate, nil
	case "range":
		return PeriodRange, nil
	default:
		return "", fmt.Errorf("%w: unknown period mode %q", ErrInvalidInput, s)
	}
}

// Validate проверяет корректность выбора периода
func (p PeriodSelection) Validate() error {
	switch p.Mode {
	case PeriodQuick:
		if p.Value == "" {
			return fmt.Errorf("%w: quick period value is empty", ErrInvalidInput)
		}
	case PeriodDate:
		if _, err := time.Parse(DateLayout, p.Value); err != nil {
			return fmt.Errorf("%w: invalid date %q", ErrInvalidInput, p.Value)
		}
	case PeriodRange:
		start, err := time.Parse(DateLayout, p.Range.StartDate)
		if err != nil {
			return fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, p.Range.StartDate)
		}
		end, err := time.Parse(DateLayout, p.Range.EndDate)
		if err != nil {
			return fmt.Errorf("%w: invalid end date %q", ErrInvalidInput, p.Range.EndDate)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidInput, p.Range.EndDate, p.Range.StartDate)
		}
	default:
		return fmt.Errorf("%w: unknown period mode %q", ErrInvalidInput, p.Mode)
	}
	return nil
}

// Key возвращает стабильное строковое представление для ключей кэша
func (p PeriodSelection) Key() string {
	switch p.Mode {
	case PeriodRange:
		return fmt.Sprintf("range=%s..%s", p.Range.StartDate, p.Range.EndDate)
	default:
		return fmt.Sprintf("%s=%s", p.Mode, p.Value)
	}
}

// PreviousDay возвращает предыдущую календарную дату
func PreviousDay(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}
	return d.AddDate(0, 0, -1).Format(DateLayout), nil
}
